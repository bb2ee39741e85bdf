package kernels

import "golang.org/x/sys/cpu"

// CPU feature flags for ARM64
var (
	hasNEON = cpu.ARM64.HasASIMD   // Advanced SIMD, always present on ARM64
	hasSDOT = cpu.ARM64.HasASIMDDP // Dot product instructions (ARMv8.2+)
	hasFP   = cpu.ARM64.HasFP
)

// Features lists the vector extensions reported by the CPU
func Features() []string {
	var out []string
	if hasFP {
		out = append(out, "fp")
	}
	if hasNEON {
		out = append(out, "neon")
	}
	if hasSDOT {
		out = append(out, "asimddp")
	}
	return out
}
