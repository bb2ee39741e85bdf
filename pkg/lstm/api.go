// Package lstm provides a high-level API for running a gated memory cell
package lstm

import (
	"context"
	"fmt"
	goruntime "runtime"

	"github.com/sirupsen/logrus"

	"github.com/lth/pure-go-lstm/internal/cell"
	rt "github.com/lth/pure-go-lstm/internal/runtime"
	"github.com/lth/pure-go-lstm/internal/weights"
)

// State is the (h, c) pair carried between steps.
type State = cell.State

// Result holds the per-step outputs and final state of one sequence.
type Result = rt.Result

// ParameterStore holds the gate-partitioned kernels and bias.
type ParameterStore = cell.ParameterStore

// Errors reported by the runtime; match with errors.Is.
var (
	ErrInvalidDimension  = cell.ErrInvalidDimension
	ErrInvalidGateIndex  = cell.ErrInvalidGateIndex
	ErrBiasUnavailable   = cell.ErrBiasUnavailable
	ErrShapeMismatch     = cell.ErrShapeMismatch
	ErrUnknownActivation = cell.ErrUnknownActivation
	ErrNilStore          = cell.ErrNilStore
)

// ZeroState returns an all-zero initial state of width units.
func ZeroState(units int) State { return cell.ZeroState(units) }

// Runtime is the main interface for driving a cell
type Runtime interface {
	// Step runs one timestep
	Step(input []float64, prev State) ([]float64, State, error)

	// Run feeds a whole sequence through the cell
	Run(ctx context.Context, inputs [][]float64, init State) (Result, error)

	// RunBatch runs independent sequences in parallel; inits may be nil
	RunBatch(ctx context.Context, sequences [][][]float64, inits []State) ([]Result, error)

	// Update mutates parameters with no step in flight
	Update(fn func(*ParameterStore) error) error

	// Store returns the parameter store
	Store() *ParameterStore

	// InputSize returns the input vector width
	InputSize() int

	// Units returns the hidden-state width
	Units() int

	// Close releases resources
	Close() error
}

// Options configures the runtime
type Options struct {
	// UseBias adds a bias vector to every gate. Default: true
	UseBias bool

	// GateActivation names the gate activation: "hard_sigmoid" (default) or "sigmoid"
	GateActivation string

	// CandidateActivation names the candidate activation: "tanh" (default) or "softsign"
	CandidateActivation string

	// NumThreads is the worker count for RunBatch. 0 uses GOMAXPROCS.
	NumThreads int

	// Float64Weights reads parameter files as float64 instead of float32
	Float64Weights bool

	// Verbose enables debug logging
	Verbose bool

	// Logger overrides the default logger
	Logger *logrus.Logger
}

// Option is a functional option for configuring the runtime
type Option func(*Options)

// WithBias enables or disables the bias vector
func WithBias(use bool) Option {
	return func(o *Options) {
		o.UseBias = use
	}
}

// WithGateActivation selects the gate activation by name
func WithGateActivation(name string) Option {
	return func(o *Options) {
		o.GateActivation = name
	}
}

// WithCandidateActivation selects the candidate activation by name
func WithCandidateActivation(name string) Option {
	return func(o *Options) {
		o.CandidateActivation = name
	}
}

// WithThreads sets the number of threads
func WithThreads(n int) Option {
	return func(o *Options) {
		o.NumThreads = n
	}
}

// WithFloat64Weights reads parameter files as float64
func WithFloat64Weights(v bool) Option {
	return func(o *Options) {
		o.Float64Weights = v
	}
}

// WithVerbose enables verbose logging
func WithVerbose(v bool) Option {
	return func(o *Options) {
		o.Verbose = v
	}
}

// WithLogger sets the logger
func WithLogger(l *logrus.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func applyOptions(opts []Option) Options {
	options := Options{
		UseBias:    true,
		NumThreads: 0,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = logrus.New()
		options.Logger.SetLevel(logrus.WarnLevel)
		if options.Verbose {
			options.Logger.SetLevel(logrus.DebugLevel)
		}
	}
	return options
}

// cellRuntime implements Runtime
type cellRuntime struct {
	runner  *rt.Runner
	options Options
}

// New creates a runtime with zero-valued parameters for the caller to fill.
func New(inputSize, units int, opts ...Option) (Runtime, error) {
	options := applyOptions(opts)

	store, err := cell.NewParameterStore(inputSize, units, options.UseBias)
	if err != nil {
		return nil, err
	}
	return newRuntime(store, options)
}

// NewFromStore creates a runtime over an existing parameter store.
// The UseBias option is ignored; the store decides.
func NewFromStore(store *ParameterStore, opts ...Option) (Runtime, error) {
	if store == nil {
		return nil, fmt.Errorf("new runtime: %w", cell.ErrNilStore)
	}
	return newRuntime(store, applyOptions(opts))
}

// Open loads raw parameters from path (kernel, recurrent kernel, then bias,
// little-endian, row-major) and returns a Runtime.
func Open(path string, inputSize, units int, opts ...Option) (Runtime, error) {
	options := applyOptions(opts)

	layout := weights.Layout{
		InputSize: inputSize,
		Units:     units,
		UseBias:   options.UseBias,
		DType:     weights.Float32,
	}
	if options.Float64Weights {
		layout.DType = weights.Float64
	}

	store, err := weights.Load(path, layout)
	if err != nil {
		return nil, fmt.Errorf("load parameters: %w", err)
	}

	options.Logger.WithFields(logrus.Fields{
		"path":   path,
		"input":  inputSize,
		"units":  units,
		"bias":   options.UseBias,
		"dtype":  layout.DType,
		"params": store.NumParams(),
	}).Debug("parameters loaded")

	return newRuntime(store, options)
}

func newRuntime(store *ParameterStore, options Options) (Runtime, error) {
	gate, err := cell.GateActivation(options.GateActivation)
	if err != nil {
		return nil, err
	}
	cand, err := cell.CandidateActivation(options.CandidateActivation)
	if err != nil {
		return nil, err
	}

	c, err := cell.New(store, cell.WithGateActivation(gate), cell.WithCandidateActivation(cand))
	if err != nil {
		return nil, fmt.Errorf("bind cell: %w", err)
	}

	threads := options.NumThreads
	if threads <= 0 {
		threads = goruntime.GOMAXPROCS(0)
	}

	options.Logger.WithFields(logrus.Fields{
		"gate":      gate.Name,
		"candidate": cand.Name,
		"threads":   threads,
	}).Debug("cell ready")

	return &cellRuntime{
		runner:  rt.NewRunner(c, rt.Config{Workers: threads, Logger: options.Logger}),
		options: options,
	}, nil
}

// Step runs one timestep
func (r *cellRuntime) Step(input []float64, prev State) ([]float64, State, error) {
	return r.runner.Step(input, prev)
}

// Run feeds a whole sequence through the cell
func (r *cellRuntime) Run(ctx context.Context, inputs [][]float64, init State) (Result, error) {
	return r.runner.Run(ctx, inputs, init)
}

// RunBatch runs independent sequences in parallel
func (r *cellRuntime) RunBatch(ctx context.Context, sequences [][][]float64, inits []State) ([]Result, error) {
	if len(sequences) == 0 {
		return nil, nil
	}
	return r.runner.RunBatch(ctx, sequences, inits)
}

// Update mutates parameters with no step in flight
func (r *cellRuntime) Update(fn func(*ParameterStore) error) error {
	return r.runner.Update(fn)
}

// Store returns the parameter store
func (r *cellRuntime) Store() *ParameterStore {
	return r.runner.Cell().Store()
}

// InputSize returns the input vector width
func (r *cellRuntime) InputSize() int {
	return r.Store().InputSize()
}

// Units returns the hidden-state width
func (r *cellRuntime) Units() int {
	return r.Store().Units()
}

// Close releases resources
func (r *cellRuntime) Close() error {
	r.runner.Close()
	return nil
}
