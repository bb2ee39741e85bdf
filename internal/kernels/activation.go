// Package kernels provides pure-Go elementwise kernels for the memory cell
package kernels

import "math"

// HardSigmoid applies the piecewise-linear sigmoid approximation
// HardSigmoid(x) = clip(0.2*x + 0.5, 0, 1)
// Saturates exactly to 0 for x <= -2.5 and to 1 for x >= 2.5.
func HardSigmoid(dst, src []float64, n int) {
	for i := 0; i < n; i++ {
		x := src[i]
		switch {
		case x <= -2.5:
			dst[i] = 0
		case x >= 2.5:
			dst[i] = 1
		case math.IsNaN(x):
			dst[i] = x
		default:
			dst[i] = 0.2*x + 0.5
		}
	}
}

// Sigmoid applies the logistic function
// Sigmoid(x) = 1 / (1 + exp(-x))
func Sigmoid(dst, src []float64, n int) {
	for i := 0; i < n; i++ {
		x := src[i]
		if x >= 0 {
			dst[i] = 1.0 / (1.0 + math.Exp(-x))
		} else {
			// exp(x) / (1 + exp(x)) avoids overflow of exp(-x) for large negative x
			e := math.Exp(x)
			dst[i] = e / (1.0 + e)
		}
	}
}

// Tanh applies the hyperbolic tangent
func Tanh(dst, src []float64, n int) {
	for i := 0; i < n; i++ {
		dst[i] = math.Tanh(src[i])
	}
}

// Softsign applies x / (1 + |x|)
// Bounded odd function with range (-1, 1).
func Softsign(dst, src []float64, n int) {
	for i := 0; i < n; i++ {
		x := src[i]
		if math.IsInf(x, 0) {
			dst[i] = math.Copysign(1, x)
			continue
		}
		dst[i] = x / (1.0 + math.Abs(x))
	}
}
