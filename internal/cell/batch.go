package cell

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/lth/pure-go-lstm/internal/kernels"
)

// BatchState is the (h, c) pair for a batch of independent sequences.
// Row r of H and C belongs to batch element r; both are [batch, units].
type BatchState struct {
	H *mat.Dense
	C *mat.Dense
}

// ZeroBatchState returns an all-zero batch state.
func ZeroBatchState(batch, units int) BatchState {
	return BatchState{
		H: mat.NewDense(batch, units, nil),
		C: mat.NewDense(batch, units, nil),
	}
}

// StepBatch runs one step for every row of inputs ([batch, inputSize])
// using whole-kernel matrix products. Rows are independent; results agree
// with Step on each row up to rounding of the summation order.
func (c *Cell) StepBatch(inputs *mat.Dense, prev BatchState) (*mat.Dense, BatchState, error) {
	batch, err := c.checkBatchShapes(inputs, prev)
	if err != nil {
		return nil, BatchState{}, err
	}

	s := c.store
	units := s.units
	width := NumGates * units

	// z = X·K + H·R, then broadcast bias over rows
	z := mat.NewDense(batch, width, nil)
	z.Mul(inputs, s.kernel)
	rec := mat.NewDense(batch, width, nil)
	rec.Mul(prev.H, s.recurrent)
	z.Add(z, rec)

	var bias []float64
	if s.bias != nil {
		bias = make([]float64, width)
		for j := range bias {
			bias[j] = s.bias.AtVec(j)
		}
	}

	hOut := mat.NewDense(batch, units, nil)
	cOut := mat.NewDense(batch, units, nil)

	for r := 0; r < batch; r++ {
		row := z.RawRowView(r)
		if bias != nil {
			kernels.VecAdd(row, row, bias, width)
		}

		i := row[int(GateInput)*units : int(GateInput+1)*units]
		f := row[int(GateForget)*units : int(GateForget+1)*units]
		cand := row[int(GateCandidate)*units : int(GateCandidate+1)*units]
		o := row[int(GateOutput)*units : int(GateOutput+1)*units]

		c.gateAct.Apply(i, i)
		c.gateAct.Apply(f, f)
		c.gateAct.Apply(o, o)
		c.candAct.Apply(cand, cand)

		cRow := cOut.RawRowView(r)
		kernels.VecGatedSum(cRow, f, prev.C.RawRowView(r), i, cand, units)

		hRow := hOut.RawRowView(r)
		c.gateAct.Apply(hRow, cRow)
		kernels.VecMul(hRow, o, hRow, units)
	}

	return hOut, BatchState{H: hOut, C: cOut}, nil
}

func (c *Cell) checkBatchShapes(inputs *mat.Dense, prev BatchState) (int, error) {
	s := c.store
	if inputs == nil || prev.H == nil || prev.C == nil {
		return 0, fmt.Errorf("%w: nil batch operand", ErrShapeMismatch)
	}

	batch, cols := inputs.Dims()
	if cols != s.inputSize {
		return 0, fmt.Errorf("%w: inputs have %d columns, expected %d", ErrShapeMismatch, cols, s.inputSize)
	}
	for _, st := range []struct {
		name string
		m    *mat.Dense
	}{{"hidden", prev.H}, {"cell", prev.C}} {
		rows, width := st.m.Dims()
		if rows != batch || width != s.units {
			return 0, fmt.Errorf("%w: %s state is %dx%d, expected %dx%d", ErrShapeMismatch, st.name, rows, width, batch, s.units)
		}
	}
	return batch, nil
}
