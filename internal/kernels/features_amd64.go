package kernels

import "golang.org/x/sys/cpu"

// CPU feature flags
var (
	hasAVX2   = cpu.X86.HasAVX2
	hasAVX512 = cpu.X86.HasAVX512F
	hasFMA    = cpu.X86.HasFMA
)

// Features lists the vector extensions reported by the CPU
func Features() []string {
	var out []string
	if hasAVX2 {
		out = append(out, "avx2")
	}
	if hasAVX512 {
		out = append(out, "avx512f")
	}
	if hasFMA {
		out = append(out, "fma")
	}
	return out
}
