package weights

import (
	"fmt"
	"math"

	"github.com/lth/pure-go-lstm/internal/cell"
)

// Layout describes a headerless parameter file: the input kernel, the
// recurrent kernel and (optionally) the bias, each row-major, back to back.
type Layout struct {
	InputSize int
	Units     int
	UseBias   bool
	DType     DType
}

// Validate rejects non-positive dimensions and layouts whose element or
// byte counts do not fit in an int.
func (l Layout) Validate() error {
	if l.InputSize <= 0 || l.Units <= 0 {
		return fmt.Errorf("%w: inputSize=%d units=%d", cell.ErrInvalidDimension, l.InputSize, l.Units)
	}

	width, ok := mulInt(cell.NumGates, l.Units)
	var kernel, recurrent, total int
	if ok {
		kernel, ok = mulInt(l.InputSize, width)
	}
	if ok {
		recurrent, ok = mulInt(l.Units, width)
	}
	if ok {
		total, ok = addInt(kernel, recurrent)
	}
	if ok && l.UseBias {
		total, ok = addInt(total, width)
	}
	if ok {
		_, ok = mulInt(total, l.DType.Size())
	}
	if !ok {
		return fmt.Errorf("%w: inputSize=%d units=%d overflows the parameter count", cell.ErrInvalidDimension, l.InputSize, l.Units)
	}
	return nil
}

func mulInt(a, b int) (int, bool) {
	if a != 0 && b > math.MaxInt/a {
		return 0, false
	}
	return a * b, true
}

func addInt(a, b int) (int, bool) {
	if a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// Counts returns the element count of each section. Call Validate first;
// the counts of an invalid layout are meaningless.
func (l Layout) Counts() (kernel, recurrent, bias int) {
	width := cell.NumGates * l.Units
	kernel = l.InputSize * width
	recurrent = l.Units * width
	if l.UseBias {
		bias = width
	}
	return kernel, recurrent, bias
}

// Size returns the expected file size in bytes of a valid layout
func (l Layout) Size() int64 {
	k, r, b := l.Counts()
	return int64(k+r+b) * int64(l.DType.Size())
}

// Load maps path and builds a ParameterStore from its contents.
// The mapping is released before returning; the store owns decoded copies.
func Load(path string, l Layout) (*cell.ParameterStore, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s, err := Decode(r, l)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

// Decode builds a ParameterStore from an open Reader
func Decode(r *Reader, l Layout) (*cell.ParameterStore, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if got, want := r.Len(), l.Size(); got != want {
		return nil, fmt.Errorf("%w: file has %d bytes, layout expects %d", cell.ErrShapeMismatch, got, want)
	}

	nk, nr, nb := l.Counts()
	width := int64(l.DType.Size())

	kernel, err := r.ReadFloats(0, nk, l.DType)
	if err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	recurrent, err := r.ReadFloats(int64(nk)*width, nr, l.DType)
	if err != nil {
		return nil, fmt.Errorf("recurrent kernel: %w", err)
	}
	var bias []float64
	if l.UseBias {
		bias, err = r.ReadFloats(int64(nk+nr)*width, nb, l.DType)
		if err != nil {
			return nil, fmt.Errorf("bias: %w", err)
		}
	}

	return cell.NewParameterStoreFromBuffers(l.InputSize, l.Units, kernel, recurrent, bias)
}
