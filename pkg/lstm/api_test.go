package lstm

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewDefaults(t *testing.T) {
	rt, err := New(3, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer rt.Close()

	if rt.InputSize() != 3 || rt.Units() != 2 {
		t.Fatalf("dims = (%d, %d), expected (3, 2)", rt.InputSize(), rt.Units())
	}
	if !rt.Store().HasBias() {
		t.Fatal("bias should be enabled by default")
	}

	// Zero parameters: every gate is hard_sigmoid(0) = 0.5.
	out, next, err := rt.Step([]float64{1, -1, 2}, ZeroState(2))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	for j := range out {
		if out[j] != 0.25 || next.C[j] != 0 {
			t.Fatalf("unit %d: h=%v c=%v, expected h=0.25 c=0", j, out[j], next.C[j])
		}
	}
}

func TestNewOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{"no bias", []Option{WithBias(false)}, nil},
		{"sigmoid", []Option{WithGateActivation("sigmoid")}, nil},
		{"softsign", []Option{WithCandidateActivation("softsign")}, nil},
		{"threads", []Option{WithThreads(3)}, nil},
		{"bad gate", []Option{WithGateActivation("relu")}, ErrUnknownActivation},
		{"bad candidate", []Option{WithCandidateActivation("elu")}, ErrUnknownActivation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := New(2, 2, tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			rt.Close()
		})
	}
}

func TestNewInvalidDimension(t *testing.T) {
	if _, err := New(0, 4); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
	if _, err := NewFromStore(nil); !errors.Is(err, ErrNilStore) {
		t.Fatalf("expected ErrNilStore, got %v", err)
	}
}

func TestUpdateAffectsLaterSteps(t *testing.T) {
	rt, err := New(1, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer rt.Close()

	err = rt.Update(func(s *ParameterStore) error {
		bias, _ := s.Bias()
		// Forget gate fully open, input gate closed.
		bias.SetVec(0, -10)
		bias.SetVec(1, 10)
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	prev := State{H: []float64{0}, C: []float64{0.7}}
	_, next, err := rt.Step([]float64{5}, prev)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if next.C[0] != 0.7 {
		t.Fatalf("c = %v, expected the cell state to be retained", next.C[0])
	}
}

func TestRunAndRunBatch(t *testing.T) {
	rt, err := New(2, 3, WithThreads(2))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer rt.Close()

	seq := [][]float64{{1, 0}, {0, 1}, {0.5, 0.5}}
	res, err := rt.Run(context.Background(), seq, ZeroState(3))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Outputs) != 3 {
		t.Fatalf("got %d outputs, expected 3", len(res.Outputs))
	}

	batch, err := rt.RunBatch(context.Background(), [][][]float64{seq, seq}, nil)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	for i, r := range batch {
		for j := range r.Final.H {
			if r.Final.H[j] != res.Final.H[j] {
				t.Fatalf("sequence %d unit %d differs from Run", i, j)
			}
		}
	}

	if got, err := rt.RunBatch(context.Background(), nil, nil); err != nil || got != nil {
		t.Fatalf("empty batch = (%v, %v)", got, err)
	}
}

func writeParams(t *testing.T, values []float32) string {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, values); err != nil {
		t.Fatalf("binary.Write failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "cell.bin")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestOpen(t *testing.T) {
	const inputSize, units = 1, 1
	// kernel (1x4), recurrent (1x4), bias (4): i, f, c, o
	values := []float32{
		0, 0, 1, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}
	path := writeParams(t, values)

	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)
	logger.SetLevel(logrus.DebugLevel)

	rt, err := Open(path, inputSize, units, WithLogger(logger))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rt.Close()

	if got := rt.Store().InputKernel().At(0, 2); got != 1 {
		t.Fatalf("kernel[0,2] = %v, expected 1", got)
	}
	if !strings.Contains(logs.String(), "parameters loaded") {
		t.Errorf("expected load log, got %q", logs.String())
	}

	// i = f = o = 0.5, candidate = tanh(x)
	_, next, err := rt.Step([]float64{0.5}, ZeroState(1))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if want := 0.5 * math.Tanh(0.5); math.Abs(next.C[0]-want) > 1e-12 {
		t.Fatalf("c = %v, expected %v", next.C[0], want)
	}
}

func TestOpenSizeMismatch(t *testing.T) {
	path := writeParams(t, []float32{1, 2, 3})
	if _, err := Open(path, 1, 1); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := Open(path, 1, 1, WithBias(false), WithFloat64Weights(true)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}
