// Package cell implements a gated memory cell (LSTM-style) forward step
// over gonum dense storage.
package cell

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ParameterStore owns the gate-partitioned parameters of one cell.
//
// Layout (row-major, columns split into four blocks of width units):
//
//	kernel    [inputSize, 4*units]
//	recurrent [units,     4*units]
//	bias      [4*units]            (nil when bias is disabled)
//
// Shape and partitioning are fixed at construction. Numeric contents may be
// rewritten in place by an external trainer, but not while a step reads them.
type ParameterStore struct {
	inputSize int
	units     int

	kernel    *mat.Dense
	recurrent *mat.Dense
	bias      *mat.VecDense
}

// NewParameterStore allocates zero-valued parameters for a cell.
// Values are left for the caller (or an initializer) to fill in.
func NewParameterStore(inputSize, units int, useBias bool) (*ParameterStore, error) {
	if err := checkDims(inputSize, units); err != nil {
		return nil, err
	}

	s := &ParameterStore{
		inputSize: inputSize,
		units:     units,
		kernel:    mat.NewDense(inputSize, NumGates*units, nil),
		recurrent: mat.NewDense(units, NumGates*units, nil),
	}
	if useBias {
		s.bias = mat.NewVecDense(NumGates*units, nil)
	}
	return s, nil
}

// NewParameterStoreFromBuffers wraps caller-owned row-major buffers without
// copying them. A nil bias disables bias.
func NewParameterStoreFromBuffers(inputSize, units int, kernel, recurrent, bias []float64) (*ParameterStore, error) {
	if err := checkDims(inputSize, units); err != nil {
		return nil, err
	}

	width := NumGates * units
	if len(kernel) != inputSize*width {
		return nil, fmt.Errorf("%w: kernel has %d values, expected %d", ErrShapeMismatch, len(kernel), inputSize*width)
	}
	if len(recurrent) != units*width {
		return nil, fmt.Errorf("%w: recurrent kernel has %d values, expected %d", ErrShapeMismatch, len(recurrent), units*width)
	}

	s := &ParameterStore{
		inputSize: inputSize,
		units:     units,
		kernel:    mat.NewDense(inputSize, width, kernel),
		recurrent: mat.NewDense(units, width, recurrent),
	}
	if bias != nil {
		if len(bias) != width {
			return nil, fmt.Errorf("%w: bias has %d values, expected %d", ErrShapeMismatch, len(bias), width)
		}
		s.bias = mat.NewVecDense(width, bias)
	}
	return s, nil
}

// NewParameterStoreForShape builds a store whose input size is the last
// dimension of inputShape, e.g. (batch, features) or (batch, time, features).
func NewParameterStoreForShape(inputShape []int, units int, useBias bool) (*ParameterStore, error) {
	if len(inputShape) == 0 {
		return nil, fmt.Errorf("%w: empty input shape", ErrInvalidDimension)
	}
	return NewParameterStore(inputShape[len(inputShape)-1], units, useBias)
}

func checkDims(inputSize, units int) error {
	if inputSize <= 0 {
		return fmt.Errorf("%w: inputSize=%d", ErrInvalidDimension, inputSize)
	}
	if units <= 0 {
		return fmt.Errorf("%w: units=%d", ErrInvalidDimension, units)
	}
	return nil
}

// InputSize returns the width of each input vector.
func (s *ParameterStore) InputSize() int { return s.inputSize }

// Units returns the hidden-state width.
func (s *ParameterStore) Units() int { return s.units }

// HasBias reports whether the store carries a bias vector.
func (s *ParameterStore) HasBias() bool { return s.bias != nil }

// StateSize returns the widths of the carried (h, c) pair.
func (s *ParameterStore) StateSize() [2]int { return [2]int{s.units, s.units} }

// OutputSize returns the width of the step output.
func (s *ParameterStore) OutputSize() int { return s.units }

// NumParams returns the number of scalar parameters held by the store.
func (s *ParameterStore) NumParams() int {
	width := NumGates * s.units
	n := s.inputSize*width + s.units*width
	if s.bias != nil {
		n += width
	}
	return n
}

// InputKernel returns the full [inputSize, 4*units] kernel.
func (s *ParameterStore) InputKernel() *mat.Dense { return s.kernel }

// RecurrentKernel returns the full [units, 4*units] recurrent kernel.
func (s *ParameterStore) RecurrentKernel() *mat.Dense { return s.recurrent }

// Bias returns the full bias vector, or false when bias is disabled.
func (s *ParameterStore) Bias() (*mat.VecDense, bool) {
	return s.bias, s.bias != nil
}

// GateRange returns the column span [lo, hi) of a gate block.
func (s *ParameterStore) GateRange(gate Gate) (lo, hi int, err error) {
	if !gate.Valid() {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidGateIndex, int(gate))
	}
	lo = int(gate) * s.units
	return lo, lo + s.units, nil
}

// GateSlice returns a view of one gate block of a parameter group. Kernel
// groups yield a matrix view; the bias group yields a column vector view.
// Views share storage with the store and must be treated as read-only.
func (s *ParameterStore) GateSlice(group Group, gate Gate) (mat.Matrix, error) {
	var (
		view mat.Matrix
		err  error
	)
	switch group {
	case GroupInputKernel:
		var m *mat.Dense
		if m, err = s.KernelGate(gate); err == nil {
			view = m
		}
	case GroupRecurrentKernel:
		var m *mat.Dense
		if m, err = s.RecurrentGate(gate); err == nil {
			view = m
		}
	case GroupBias:
		var v *mat.VecDense
		if v, err = s.BiasGate(gate); err == nil {
			view = v
		}
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownGroup, int(group))
	}
	return view, err
}

// KernelGate returns the [inputSize, units] view of a gate's input kernel.
// The view aliases the store; treat it as read-only outside Runner.Update.
func (s *ParameterStore) KernelGate(gate Gate) (*mat.Dense, error) {
	lo, hi, err := s.GateRange(gate)
	if err != nil {
		return nil, err
	}
	return s.kernel.Slice(0, s.inputSize, lo, hi).(*mat.Dense), nil
}

// RecurrentGate returns the [units, units] view of a gate's recurrent kernel.
// The view aliases the store; treat it as read-only outside Runner.Update.
func (s *ParameterStore) RecurrentGate(gate Gate) (*mat.Dense, error) {
	lo, hi, err := s.GateRange(gate)
	if err != nil {
		return nil, err
	}
	return s.recurrent.Slice(0, s.units, lo, hi).(*mat.Dense), nil
}

// BiasGate returns the length-units view of a gate's bias. The view aliases
// the store; treat it as read-only outside Runner.Update.
func (s *ParameterStore) BiasGate(gate Gate) (*mat.VecDense, error) {
	lo, hi, err := s.GateRange(gate)
	if err != nil {
		return nil, err
	}
	if s.bias == nil {
		return nil, fmt.Errorf("%w: gate %s", ErrBiasUnavailable, gate)
	}
	return s.bias.SliceVec(lo, hi).(*mat.VecDense), nil
}
