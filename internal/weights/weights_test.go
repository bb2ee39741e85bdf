package weights

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/lth/pure-go-lstm/internal/cell"
)

// writeBuffer writes values sequentially as dtype and returns the file path.
func writeBuffer(t *testing.T, dtype DType, values []float64) string {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range values {
		var err error
		if dtype == Float32 {
			err = binary.Write(&buf, binary.LittleEndian, float32(v))
		} else {
			err = binary.Write(&buf, binary.LittleEndian, v)
		}
		if err != nil {
			t.Fatalf("binary.Write failed: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "params.bin")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func sequentialValues(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = float64(i) * 0.5
	}
	return v
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
	}{
		{"f32 with bias", Layout{InputSize: 3, Units: 2, UseBias: true, DType: Float32}},
		{"f32 without bias", Layout{InputSize: 1, Units: 3, UseBias: false, DType: Float32}},
		{"f64 with bias", Layout{InputSize: 2, Units: 2, UseBias: true, DType: Float64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nk, nr, nb := tt.layout.Counts()
			values := sequentialValues(nk + nr + nb)
			path := writeBuffer(t, tt.layout.DType, values)

			s, err := Load(path, tt.layout)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if s.InputSize() != tt.layout.InputSize || s.Units() != tt.layout.Units || s.HasBias() != tt.layout.UseBias {
				t.Fatalf("store dims (%d, %d, bias=%v) do not match layout", s.InputSize(), s.Units(), s.HasBias())
			}

			width := cell.NumGates * tt.layout.Units
			for r := 0; r < tt.layout.InputSize; r++ {
				for c := 0; c < width; c++ {
					if got, want := s.InputKernel().At(r, c), values[r*width+c]; got != want {
						t.Fatalf("kernel[%d,%d] = %v, expected %v", r, c, got, want)
					}
				}
			}
			for r := 0; r < tt.layout.Units; r++ {
				for c := 0; c < width; c++ {
					if got, want := s.RecurrentKernel().At(r, c), values[nk+r*width+c]; got != want {
						t.Fatalf("recurrent[%d,%d] = %v, expected %v", r, c, got, want)
					}
				}
			}
			if bias, ok := s.Bias(); ok {
				for j := 0; j < width; j++ {
					if got, want := bias.AtVec(j), values[nk+nr+j]; got != want {
						t.Fatalf("bias[%d] = %v, expected %v", j, got, want)
					}
				}
			}
		})
	}
}

func TestLoadSizeMismatch(t *testing.T) {
	layout := Layout{InputSize: 2, Units: 2, UseBias: true, DType: Float32}
	nk, nr, _ := layout.Counts()

	// Bias section missing
	path := writeBuffer(t, Float32, sequentialValues(nk+nr))
	if _, err := Load(path, layout); !errors.Is(err, cell.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}

	if _, err := Load(path, Layout{InputSize: 0, Units: 2}); !errors.Is(err, cell.ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestLayoutValidateOverflow(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
	}{
		{"zero units", Layout{InputSize: 4, Units: 0}},
		{"negative input", Layout{InputSize: -1, Units: 4}},
		{"gate width", Layout{InputSize: 1, Units: math.MaxInt/2 + 1}},
		{"kernel product", Layout{InputSize: math.MaxInt / 8, Units: 1 << 20}},
		{"byte size", Layout{InputSize: math.MaxInt/32 + 1, Units: 1, DType: Float64}},
	}

	// Any small file will do; validation runs before the size comparison.
	path := writeBuffer(t, Float32, []float64{1, 2, 3, 4})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.layout.Validate(); !errors.Is(err, cell.ErrInvalidDimension) {
				t.Fatalf("Validate: expected ErrInvalidDimension, got %v", err)
			}
			if _, err := Load(path, tt.layout); !errors.Is(err, cell.ErrInvalidDimension) {
				t.Fatalf("Load: expected ErrInvalidDimension, got %v", err)
			}
		})
	}

	if err := (Layout{InputSize: 20, Units: 32, UseBias: true}).Validate(); err != nil {
		t.Fatalf("Validate rejected a valid layout: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.bin"), Layout{InputSize: 1, Units: 1})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReaderBounds(t *testing.T) {
	path := writeBuffer(t, Float32, []float64{1, 2, 3})
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	if r.Len() != 12 {
		t.Fatalf("Len = %d, expected 12", r.Len())
	}
	got, err := r.ReadFloats(4, 2, Float32)
	if err != nil {
		t.Fatalf("ReadFloats failed: %v", err)
	}
	if got[0] != 2 || got[1] != 3 {
		t.Fatalf("ReadFloats = %v, expected [2 3]", got)
	}
	if _, err := r.ReadFloats(8, 2, Float32); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
	if _, err := r.ReadFloats(-4, 1, Float32); err == nil {
		t.Fatal("expected error for negative offset")
	}
	if _, err := r.ReadFloats(0, math.MaxInt/2, Float64); err == nil {
		t.Fatal("expected error for a count whose byte size overflows")
	}
	if _, err := r.ReadFloats(0, -1, Float32); err == nil {
		t.Fatal("expected error for negative count")
	}
	if _, err := r.ReadFloats(16, 0, Float32); err == nil {
		t.Fatal("expected error for offset past the end")
	}
}

func TestLayoutSize(t *testing.T) {
	l := Layout{InputSize: 20, Units: 32, UseBias: true, DType: Float32}
	if got, want := l.Size(), int64((20*128+32*128+128)*4); got != want {
		t.Fatalf("Size = %d, expected %d", got, want)
	}
	l.DType = Float64
	l.UseBias = false
	if got, want := l.Size(), int64((20*128+32*128)*8); got != want {
		t.Fatalf("Size = %d, expected %d", got, want)
	}
}
