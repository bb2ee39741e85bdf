package kernels

import "fmt"

// VecMul element-wise multiply: dst = a * b
func VecMul(dst, a, b []float64, n int) {
	checkLen("VecMul", n, dst, a, b)

	i := 0
	for ; i+3 < n; i += 4 {
		dst[i] = a[i] * b[i]
		dst[i+1] = a[i+1] * b[i+1]
		dst[i+2] = a[i+2] * b[i+2]
		dst[i+3] = a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		dst[i] = a[i] * b[i]
	}
}

// VecAdd adds two vectors: dst = a + b
func VecAdd(dst, a, b []float64, n int) {
	checkLen("VecAdd", n, dst, a, b)

	for i := 0; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}

// VecGatedSum computes the memory update dst = f*prev + g*cand.
// Each product is rounded before the sum so results do not depend on
// whether the target fuses multiply-add.
func VecGatedSum(dst, f, prev, g, cand []float64, n int) {
	checkLen("VecGatedSum", n, dst, f, prev, g, cand)

	i := 0
	for ; i+3 < n; i += 4 {
		dst[i] = float64(f[i]*prev[i]) + float64(g[i]*cand[i])
		dst[i+1] = float64(f[i+1]*prev[i+1]) + float64(g[i+1]*cand[i+1])
		dst[i+2] = float64(f[i+2]*prev[i+2]) + float64(g[i+2]*cand[i+2])
		dst[i+3] = float64(f[i+3]*prev[i+3]) + float64(g[i+3]*cand[i+3])
	}
	for ; i < n; i++ {
		dst[i] = float64(f[i]*prev[i]) + float64(g[i]*cand[i])
	}
}

func checkLen(op string, n int, vecs ...[]float64) {
	for _, v := range vecs {
		if len(v) < n {
			panic(fmt.Sprintf("%s: vector too small: %d < %d", op, len(v), n))
		}
	}
}
