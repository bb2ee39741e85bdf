package cell

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/lth/pure-go-lstm/internal/kernels"
)

// State is the (h, c) pair carried between steps. H is the hidden output,
// C the internal memory. Both have length units.
type State struct {
	H []float64
	C []float64
}

// ZeroState returns an all-zero initial state.
func ZeroState(units int) State {
	return State{
		H: make([]float64, units),
		C: make([]float64, units),
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{
		H: append([]float64(nil), s.H...),
		C: append([]float64(nil), s.C...),
	}
}

// Trace holds the intermediate gate vectors of one step.
type Trace struct {
	I         []float64 // input gate
	F         []float64 // forget gate
	Candidate []float64 // candidate memory
	O         []float64 // output gate

	Output []float64
	Next   State
}

// Cell runs forward steps against a ParameterStore. It holds no recurrent
// state and is safe for concurrent use while parameters are not being written.
type Cell struct {
	store   *ParameterStore
	gateAct Activation
	candAct Activation

	workspacePool *sync.Pool
}

// stepWorkspace holds per-gate pre-activations for one step
type stepWorkspace struct {
	pre [NumGates][]float64
	tmp []float64
}

// New binds a store and activation functions into a Cell.
func New(store *ParameterStore, opts ...Option) (*Cell, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.GateActivation.Apply == nil {
		return nil, fmt.Errorf("%w: gate activation %q has no function", ErrUnknownActivation, options.GateActivation.Name)
	}
	if options.CandidateActivation.Apply == nil {
		return nil, fmt.Errorf("%w: candidate activation %q has no function", ErrUnknownActivation, options.CandidateActivation.Name)
	}

	units := store.units
	return &Cell{
		store:   store,
		gateAct: options.GateActivation,
		candAct: options.CandidateActivation,
		workspacePool: &sync.Pool{
			New: func() interface{} {
				ws := &stepWorkspace{tmp: make([]float64, units)}
				for g := range ws.pre {
					ws.pre[g] = make([]float64, units)
				}
				return ws
			},
		},
	}, nil
}

// Store returns the bound parameter store.
func (c *Cell) Store() *ParameterStore { return c.store }

// GateActivation returns the bound gate activation.
func (c *Cell) GateActivation() Activation { return c.gateAct }

// CandidateActivation returns the bound candidate activation.
func (c *Cell) CandidateActivation() Activation { return c.candAct }

// Step computes one forward transition:
//
//	z_k   = x·K_k + h·R_k (+ b_k)
//	i,f,o = gate(z_i), gate(z_f), gate(z_o)
//	c~    = candidate(z_c)
//	c'    = f*c + i*c~
//	h'    = o * gate(c')
//
// The returned output and next.H share one freshly allocated slice; prev is
// never modified. Length mismatches fail with ErrShapeMismatch before any
// arithmetic runs.
func (c *Cell) Step(input []float64, prev State) ([]float64, State, error) {
	h, cNew, err := c.forward(input, prev, nil)
	if err != nil {
		return nil, State{}, err
	}
	return h, State{H: h, C: cNew}, nil
}

// StepTrace is Step that also returns the gate vectors.
func (c *Cell) StepTrace(input []float64, prev State) (Trace, error) {
	var tr Trace
	h, cNew, err := c.forward(input, prev, &tr)
	if err != nil {
		return Trace{}, err
	}
	tr.Output = h
	tr.Next = State{H: h, C: cNew}
	return tr, nil
}

func (c *Cell) checkShapes(input []float64, prev State) error {
	s := c.store
	if len(input) != s.inputSize {
		return fmt.Errorf("%w: input has length %d, expected %d", ErrShapeMismatch, len(input), s.inputSize)
	}
	if len(prev.H) != s.units {
		return fmt.Errorf("%w: hidden state has length %d, expected %d", ErrShapeMismatch, len(prev.H), s.units)
	}
	if len(prev.C) != s.units {
		return fmt.Errorf("%w: cell state has length %d, expected %d", ErrShapeMismatch, len(prev.C), s.units)
	}
	return nil
}

func (c *Cell) forward(input []float64, prev State, tr *Trace) ([]float64, []float64, error) {
	if err := c.checkShapes(input, prev); err != nil {
		return nil, nil, err
	}

	s := c.store
	units := s.units

	ws := c.workspacePool.Get().(*stepWorkspace)
	defer c.workspacePool.Put(ws)

	x := mat.NewVecDense(s.inputSize, input)
	hPrev := mat.NewVecDense(units, prev.H)
	tmp := mat.NewVecDense(units, ws.tmp)

	// Pre-activations: input and recurrent products are summed before bias
	for _, g := range Gates {
		clear(ws.pre[g])
		clear(ws.tmp)
		z := mat.NewVecDense(units, ws.pre[g])

		lo, hi, _ := s.GateRange(g)
		z.MulVec(s.kernel.Slice(0, s.inputSize, lo, hi).T(), x)
		tmp.MulVec(s.recurrent.Slice(0, units, lo, hi).T(), hPrev)
		z.AddVec(z, tmp)
		if s.bias != nil {
			z.AddVec(z, s.bias.SliceVec(lo, hi))
		}
	}

	i := ws.pre[GateInput]
	f := ws.pre[GateForget]
	cand := ws.pre[GateCandidate]
	o := ws.pre[GateOutput]

	c.gateAct.Apply(i, i)
	c.gateAct.Apply(f, f)
	c.gateAct.Apply(o, o)
	c.candAct.Apply(cand, cand)

	cNew := make([]float64, units)
	kernels.VecGatedSum(cNew, f, prev.C, i, cand, units)

	h := make([]float64, units)
	c.gateAct.Apply(h, cNew)
	kernels.VecMul(h, o, h, units)

	if tr != nil {
		tr.I = append([]float64(nil), i...)
		tr.F = append([]float64(nil), f...)
		tr.Candidate = append([]float64(nil), cand...)
		tr.O = append([]float64(nil), o...)
	}

	return h, cNew, nil
}
