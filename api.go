package purelstm

import (
	"context"
	"fmt"

	"github.com/lth/pure-go-lstm/internal/encode"
	"github.com/lth/pure-go-lstm/pkg/lstm"
)

// State is the (h, c) pair carried between steps.
type State = lstm.State

// Result holds the per-step outputs and final state of a sequence.
type Result = lstm.Result

// ParameterStore holds the gate-partitioned kernels and bias.
type ParameterStore = lstm.ParameterStore

// Option configures the runtime.
type Option = lstm.Option

// Options helpers for configuring the runtime.
var (
	WithBias                = lstm.WithBias
	WithGateActivation      = lstm.WithGateActivation
	WithCandidateActivation = lstm.WithCandidateActivation
	WithThreads             = lstm.WithThreads
	WithFloat64Weights      = lstm.WithFloat64Weights
	WithVerbose             = lstm.WithVerbose
	WithLogger              = lstm.WithLogger
)

// Errors re-exported for errors.Is checks.
var (
	ErrInvalidDimension  = lstm.ErrInvalidDimension
	ErrInvalidGateIndex  = lstm.ErrInvalidGateIndex
	ErrBiasUnavailable   = lstm.ErrBiasUnavailable
	ErrShapeMismatch     = lstm.ErrShapeMismatch
	ErrUnknownActivation = lstm.ErrUnknownActivation
	ErrNilStore          = lstm.ErrNilStore
)

// ZeroState returns an all-zero state of width units.
func ZeroState(units int) State { return lstm.ZeroState(units) }

// Runtime wraps the underlying cell runtime and exposes a simplified API.
type Runtime struct {
	inner   lstm.Runtime
	encoder *encode.OneHot
}

// New creates a runtime with zero-valued parameters.
func New(inputSize, units int, opts ...Option) (*Runtime, error) {
	rt, err := lstm.New(inputSize, units, opts...)
	if err != nil {
		return nil, err
	}
	return wrap(rt)
}

// Open loads raw parameters from disk and returns a Runtime.
func Open(path string, inputSize, units int, opts ...Option) (*Runtime, error) {
	rt, err := lstm.Open(path, inputSize, units, opts...)
	if err != nil {
		return nil, err
	}
	return wrap(rt)
}

func wrap(rt lstm.Runtime) (*Runtime, error) {
	enc, err := encode.NewOneHot(rt.InputSize())
	if err != nil {
		rt.Close()
		return nil, err
	}
	return &Runtime{inner: rt, encoder: enc}, nil
}

// Close releases resources associated with the runtime.
func (r *Runtime) Close() error {
	return r.inner.Close()
}

// InputSize reports the input vector width.
func (r *Runtime) InputSize() int {
	return r.inner.InputSize()
}

// Units reports the hidden-state width.
func (r *Runtime) Units() int {
	return r.inner.Units()
}

// Store returns the parameter store.
func (r *Runtime) Store() *ParameterStore {
	return r.inner.Store()
}

// Step runs one timestep.
func (r *Runtime) Step(input []float64, prev State) ([]float64, State, error) {
	return r.inner.Step(input, prev)
}

// Run feeds a sequence through the cell from the zero state.
func (r *Runtime) Run(ctx context.Context, inputs [][]float64) (Result, error) {
	return r.inner.Run(ctx, inputs, ZeroState(r.Units()))
}

// RunBatch runs independent sequences from the zero state.
func (r *Runtime) RunBatch(ctx context.Context, sequences [][][]float64) ([]Result, error) {
	return r.inner.RunBatch(ctx, sequences, nil)
}

// RunText one-hot encodes text, one rune per step, and returns the final
// hidden state.
func (r *Runtime) RunText(ctx context.Context, text string) ([]float64, error) {
	inputs := r.encoder.Encode(text)
	if len(inputs) == 0 {
		return nil, fmt.Errorf("run text: empty input")
	}
	res, err := r.Run(ctx, inputs)
	if err != nil {
		return nil, err
	}
	return res.Final.H, nil
}

// Update mutates parameters with no step in flight.
func (r *Runtime) Update(fn func(*ParameterStore) error) error {
	return r.inner.Update(fn)
}

// Inner exposes the underlying runtime for advanced integrations.
func (r *Runtime) Inner() lstm.Runtime {
	return r.inner
}
