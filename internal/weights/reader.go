// Package weights maps raw little-endian parameter buffers from disk
package weights

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/mmap"
)

var byteOrder = binary.LittleEndian

// DType is the on-disk element type of a raw buffer
type DType int

const (
	Float32 DType = iota
	Float64
)

// Size returns the element width in bytes
func (d DType) Size() int {
	if d == Float64 {
		return 8
	}
	return 4
}

func (d DType) String() string {
	switch d {
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// Reader provides read access to a raw buffer file via memory mapping
type Reader struct {
	path string
	mmap *mmap.ReaderAt
}

// Open memory-maps path for reading
func Open(path string) (*Reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap file: %w", err)
	}
	return &Reader{path: path, mmap: m}, nil
}

// Close unmaps the file
func (r *Reader) Close() error {
	if r.mmap == nil {
		return nil
	}
	err := r.mmap.Close()
	r.mmap = nil
	return err
}

// Len returns the mapped size in bytes
func (r *Reader) Len() int64 {
	return int64(r.mmap.Len())
}

// ReadFloats decodes count elements of dtype starting at byte offset into
// a new float64 slice
func (r *Reader) ReadFloats(offset int64, count int, dtype DType) ([]float64, error) {
	width := int64(dtype.Size())
	if offset < 0 || count < 0 || offset > r.Len() || int64(count) > (r.Len()-offset)/width {
		return nil, fmt.Errorf("read %d x %s at offset %d out of bounds (size %d)", count, dtype, offset, r.Len())
	}

	raw := make([]byte, int64(count)*width)
	if _, err := r.mmap.ReadAt(raw, offset); err != nil {
		return nil, fmt.Errorf("read mmap: %w", err)
	}

	out := make([]float64, count)
	switch dtype {
	case Float32:
		for i := range out {
			out[i] = float64(math.Float32frombits(byteOrder.Uint32(raw[i*4:])))
		}
	case Float64:
		for i := range out {
			out[i] = math.Float64frombits(byteOrder.Uint64(raw[i*8:]))
		}
	default:
		return nil, fmt.Errorf("unsupported dtype %s", dtype)
	}
	return out, nil
}
