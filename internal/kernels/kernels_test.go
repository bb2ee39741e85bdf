package kernels

import (
	"math"
	"testing"
)

func TestHardSigmoid(t *testing.T) {
	src := []float64{-10, -2.5, -1, 0, 1, 2.5, 10, math.Inf(1), math.Inf(-1)}
	expected := []float64{0, 0, 0.3, 0.5, 0.7, 1, 1, 1, 0}
	dst := make([]float64, len(src))

	HardSigmoid(dst, src, len(src))

	for i, v := range expected {
		if math.Abs(dst[i]-v) > 1e-12 {
			t.Errorf("HardSigmoid(%v) = %v, expected %v", src[i], dst[i], v)
		}
	}
}

func TestHardSigmoidNaN(t *testing.T) {
	dst := make([]float64, 1)
	HardSigmoid(dst, []float64{math.NaN()}, 1)
	if !math.IsNaN(dst[0]) {
		t.Errorf("HardSigmoid(NaN) = %v, expected NaN", dst[0])
	}
}

func TestSigmoid(t *testing.T) {
	src := []float64{0, 1, -1, 800, -800}
	dst := make([]float64, len(src))

	Sigmoid(dst, src, len(src))

	if dst[0] != 0.5 {
		t.Errorf("Sigmoid(0) = %v, expected 0.5", dst[0])
	}
	// sigmoid(x) + sigmoid(-x) = 1
	if math.Abs(dst[1]+dst[2]-1) > 1e-12 {
		t.Errorf("Sigmoid not symmetric: %v + %v != 1", dst[1], dst[2])
	}
	if dst[3] != 1 || dst[4] != 0 {
		t.Errorf("Sigmoid saturation: got %v, %v", dst[3], dst[4])
	}
	for i, v := range dst {
		if math.IsNaN(v) {
			t.Errorf("Sigmoid(%v) is NaN", src[i])
		}
	}
}

func TestTanhAndSoftsign(t *testing.T) {
	src := []float64{0, 0.5, -0.5, 1e6, -1e6, math.Inf(1)}
	tanh := make([]float64, len(src))
	soft := make([]float64, len(src))

	Tanh(tanh, src, len(src))
	Softsign(soft, src, len(src))

	for i, x := range src {
		for name, got := range map[string]float64{"Tanh": tanh[i], "Softsign": soft[i]} {
			if got < -1 || got > 1 || math.IsNaN(got) {
				t.Errorf("%s(%v) = %v out of [-1, 1]", name, x, got)
			}
		}
	}
	// Odd functions
	if tanh[1] != -tanh[2] || soft[1] != -soft[2] {
		t.Errorf("expected odd symmetry, got tanh %v/%v softsign %v/%v", tanh[1], tanh[2], soft[1], soft[2])
	}
	if soft[1] != 0.5/1.5 {
		t.Errorf("Softsign(0.5) = %v, expected %v", soft[1], 0.5/1.5)
	}
	if soft[5] != 1 {
		t.Errorf("Softsign(+Inf) = %v, expected 1", soft[5])
	}
}

func TestVecMulAdd(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{6, 7, 8, 9, 10}
	mul := make([]float64, 5)
	add := make([]float64, 5)

	VecMul(mul, a, b, 5)
	VecAdd(add, a, b, 5)

	for i := range a {
		if mul[i] != a[i]*b[i] {
			t.Errorf("VecMul: dst[%d] = %v, expected %v", i, mul[i], a[i]*b[i])
		}
		if add[i] != a[i]+b[i] {
			t.Errorf("VecAdd: dst[%d] = %v, expected %v", i, add[i], a[i]+b[i])
		}
	}
}

func TestVecGatedSum(t *testing.T) {
	f := []float64{1, 0, 0.5, 1, 0.25}
	prev := []float64{3, 3, 2, -1, 4}
	g := []float64{0, 1, 0.5, 0, 1}
	cand := []float64{0.9, -0.9, 0.2, 0.7, -1}
	dst := make([]float64, 5)

	VecGatedSum(dst, f, prev, g, cand, 5)

	expected := []float64{3, -0.9, 1.1, -1, 0}
	for i, v := range expected {
		if math.Abs(dst[i]-v) > 1e-12 {
			t.Errorf("VecGatedSum: dst[%d] = %v, expected %v", i, dst[i], v)
		}
	}
	// f=1, g=0 retains prev exactly
	if dst[0] != prev[0] || dst[3] != prev[3] {
		t.Errorf("VecGatedSum did not retain memory exactly: %v", dst)
	}
}

func TestVecMulPanicsOnShortSlice(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for short slice")
		}
	}()
	VecMul(make([]float64, 2), []float64{1, 2, 3}, []float64{1, 2, 3}, 3)
}

func TestFeatures(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range Features() {
		if f == "" {
			t.Error("empty feature name")
		}
		if seen[f] {
			t.Errorf("duplicate feature %q", f)
		}
		seen[f] = true
	}
}

func BenchmarkVecGatedSum(b *testing.B) {
	const n = 512
	f := make([]float64, n)
	prev := make([]float64, n)
	g := make([]float64, n)
	cand := make([]float64, n)
	dst := make([]float64, n)
	for i := 0; i < n; i++ {
		f[i], prev[i], g[i], cand[i] = 0.5, float64(i), 0.25, -1
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VecGatedSum(dst, f, prev, g, cand, n)
	}
}
