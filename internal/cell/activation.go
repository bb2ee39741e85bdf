package cell

import (
	"fmt"

	"github.com/lth/pure-go-lstm/internal/kernels"
)

// Activation is a named elementwise function applied as dst = fn(src).
type Activation struct {
	Name  string
	Apply func(dst, src []float64)
}

// Gate activations (range [0, 1]).
var (
	HardSigmoid = Activation{Name: "hard_sigmoid", Apply: func(dst, src []float64) { kernels.HardSigmoid(dst, src, len(src)) }}
	Sigmoid     = Activation{Name: "sigmoid", Apply: func(dst, src []float64) { kernels.Sigmoid(dst, src, len(src)) }}
)

// Candidate activations (bounded odd functions, range (-1, 1)).
var (
	Tanh     = Activation{Name: "tanh", Apply: func(dst, src []float64) { kernels.Tanh(dst, src, len(src)) }}
	Softsign = Activation{Name: "softsign", Apply: func(dst, src []float64) { kernels.Softsign(dst, src, len(src)) }}
)

// GateActivation resolves a gate activation by name.
func GateActivation(name string) (Activation, error) {
	switch name {
	case HardSigmoid.Name, "":
		return HardSigmoid, nil
	case Sigmoid.Name:
		return Sigmoid, nil
	default:
		return Activation{}, fmt.Errorf("%w: gate activation %q", ErrUnknownActivation, name)
	}
}

// CandidateActivation resolves a candidate activation by name.
func CandidateActivation(name string) (Activation, error) {
	switch name {
	case Tanh.Name, "":
		return Tanh, nil
	case Softsign.Name:
		return Softsign, nil
	default:
		return Activation{}, fmt.Errorf("%w: candidate activation %q", ErrUnknownActivation, name)
	}
}
