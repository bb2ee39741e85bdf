// Package runtime drives a memory cell across time sequences and batches
package runtime

import (
	"context"
	"fmt"
	goruntime "runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lth/pure-go-lstm/internal/cell"
)

// Config controls runner parallelism and logging.
type Config struct {
	// Workers is the number of goroutines used by RunBatch.
	// 0 means GOMAXPROCS; 1 runs sequences serially.
	Workers int

	// MinSequencesForParallel is the batch size below which RunBatch stays
	// serial even when a pool is available. Default 2.
	MinSequencesForParallel int

	// Logger receives structured debug output. Default: logrus.New() at Warn.
	Logger *logrus.Logger
}

// Result is the output of one sequence: the hidden state for every timestep
// and the state after the last step.
type Result struct {
	Outputs [][]float64
	Final   cell.State
}

// Runner threads state through a Cell over whole sequences.
type Runner struct {
	cell    *cell.Cell
	guard   *Guard
	workers *workerPool
	cfg     Config
	logger  *logrus.Logger
}

// NewRunner creates a runner for c.
func NewRunner(c *cell.Cell, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = goruntime.GOMAXPROCS(0)
	}
	if cfg.MinSequencesForParallel <= 0 {
		cfg.MinSequencesForParallel = 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &Runner{
		cell:    c,
		guard:   &Guard{},
		workers: newWorkerPool(cfg.Workers, cfg.MinSequencesForParallel),
		cfg:     cfg,
		logger:  logger,
	}
}

// Close stops the worker pool after in-flight batches finish. Batches
// started afterwards run serially.
func (r *Runner) Close() {
	r.workers.Close()
}

// Cell returns the driven cell.
func (r *Runner) Cell() *cell.Cell { return r.cell }

// Workers returns the configured worker count.
func (r *Runner) Workers() int { return r.cfg.Workers }

// Step runs a single step under the read barrier.
func (r *Runner) Step(input []float64, prev cell.State) ([]float64, cell.State, error) {
	var (
		out  []float64
		next cell.State
	)
	err := r.guard.Read(func() error {
		var err error
		out, next, err = r.cell.Step(input, prev)
		return err
	})
	return out, next, err
}

// Update applies fn to the parameter store with exclusive access. Steps in
// flight finish first; steps started afterwards observe the new values.
func (r *Runner) Update(fn func(*cell.ParameterStore) error) error {
	return r.guard.Write(func() error {
		return fn(r.cell.Store())
	})
}

// Run feeds inputs through the cell one timestep at a time starting from
// init. Cancellation is checked between steps.
func (r *Runner) Run(ctx context.Context, inputs [][]float64, init cell.State) (Result, error) {
	res := Result{
		Outputs: make([][]float64, 0, len(inputs)),
		Final:   init,
	}

	state := init
	for t, x := range inputs {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("step %d: %w", t, err)
		}
		out, next, err := r.Step(x, state)
		if err != nil {
			return Result{}, fmt.Errorf("step %d: %w", t, err)
		}
		res.Outputs = append(res.Outputs, out)
		state = next
	}
	res.Final = state
	return res, nil
}

// RunBatch runs independent sequences in parallel. inits may be nil, in
// which case every sequence starts from the zero state. The first failing
// sequence (by index) determines the returned error.
func (r *Runner) RunBatch(ctx context.Context, sequences [][][]float64, inits []cell.State) ([]Result, error) {
	if inits != nil && len(inits) != len(sequences) {
		return nil, fmt.Errorf("%w: %d initial states for %d sequences", cell.ErrShapeMismatch, len(inits), len(sequences))
	}

	start := time.Now()
	units := r.cell.Store().Units()
	results := make([]Result, len(sequences))
	errs := make([]error, len(sequences))

	tasks := make([]func(), len(sequences))
	for i := range sequences {
		tasks[i] = func() {
			init := cell.ZeroState(units)
			if inits != nil {
				init = inits[i]
			}
			results[i], errs[i] = r.Run(ctx, sequences[i], init)
		}
	}
	r.workers.Run(tasks)

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
	}

	r.logger.WithFields(logrus.Fields{
		"sequences": len(sequences),
		"workers":   r.cfg.Workers,
		"elapsed":   time.Since(start),
	}).Debug("batch complete")

	return results, nil
}
