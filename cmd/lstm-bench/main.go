// Command lstm-bench benchmarks memory cell throughput
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/lth/pure-go-lstm/internal/cell"
	"github.com/lth/pure-go-lstm/internal/kernels"
	rt "github.com/lth/pure-go-lstm/internal/runtime"
)

var (
	inputSize  = flag.Int("input-size", 128, "Input vector width")
	units      = flag.Int("units", 256, "Hidden-state width")
	steps      = flag.Int("steps", 64, "Timesteps per sequence")
	sequences  = flag.Int("sequences", runtime.NumCPU()*4, "Sequences per batch")
	iterations = flag.Int("iterations", 5, "Repetitions per scenario")
	workers    = flag.Int("workers", runtime.NumCPU(), "Worker goroutines for the parallel scenario")
	gateAct    = flag.String("gate", "hard_sigmoid", "Gate activation: hard_sigmoid, sigmoid")
	seed       = flag.Int64("seed", 1, "Random seed")
	cpuProfile = flag.String("cpuprofile", "", "Write CPU profile to file")
	verbose    = flag.Bool("verbose", false, "Verbose logging")
)

// scenario is one timed benchmark case
type scenario struct {
	name string
	run  func(ctx context.Context) (int, error)
}

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.WithError(err).Fatal("could not create CPU profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.WithError(err).Fatal("could not start CPU profile")
		}
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			log.WithField("path", *cpuProfile).Info("CPU profile written")
		}()
	}

	rng := rand.New(rand.NewSource(*seed))
	c, err := randomCell(rng)
	if err != nil {
		log.WithError(err).Fatal("failed to build cell")
	}

	data := make([][][]float64, *sequences)
	for i := range data {
		data[i] = randomSequence(rng, *steps, *inputSize)
	}

	serial := rt.NewRunner(c, rt.Config{Workers: 1, Logger: log})
	defer serial.Close()
	parallel := rt.NewRunner(c, rt.Config{Workers: *workers, Logger: log})
	defer parallel.Close()

	scenarios := []scenario{
		{"serial", func(ctx context.Context) (int, error) {
			return countSteps(serial.RunBatch(ctx, data, nil))
		}},
		{fmt.Sprintf("parallel-%d", *workers), func(ctx context.Context) (int, error) {
			return countSteps(parallel.RunBatch(ctx, data, nil))
		}},
		{"matrix-batch", func(ctx context.Context) (int, error) {
			return runMatrixBatch(c, data)
		}},
	}

	fmt.Fprintf(os.Stderr, "=== Configuration ===\n")
	fmt.Fprintf(os.Stderr, "Input size: %d, Units: %d, Params: %d\n", *inputSize, *units, c.Store().NumParams())
	fmt.Fprintf(os.Stderr, "Sequences: %d x %d steps, Iterations: %d\n", *sequences, *steps, *iterations)
	fmt.Fprintf(os.Stderr, "GOMAXPROCS: %d, CPU features: %v\n\n", runtime.GOMAXPROCS(0), kernels.Features())

	fmt.Fprintf(os.Stderr, "=== Results ===\n")
	fmt.Fprintf(os.Stderr, "%-14s %12s %12s %14s %8s\n", "Scenario", "Wall", "CPU", "Steps/sec", "CPU/Wall")
	ctx := context.Background()
	for _, sc := range scenarios {
		total := 0
		cpuStart := cpuTimeNow()
		start := time.Now()
		for i := 0; i < *iterations; i++ {
			n, err := sc.run(ctx)
			if err != nil {
				log.WithError(err).WithField("scenario", sc.name).Fatal("scenario failed")
			}
			total += n
		}
		wall := time.Since(start)
		cpu := cpuTimeNow() - cpuStart

		ratio := 0.0
		if wall > 0 {
			ratio = cpu.Seconds() / wall.Seconds()
		}
		fmt.Fprintf(os.Stderr, "%-14s %12v %12v %14.0f %8.2f\n",
			sc.name, wall.Round(time.Microsecond), cpu.Round(time.Microsecond),
			float64(total)/wall.Seconds(), ratio)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Fprintf(os.Stderr, "\n=== Memory Statistics ===\n")
	fmt.Fprintf(os.Stderr, "HeapAlloc: %.2f MB\n", float64(m.HeapAlloc)/1024/1024)
	fmt.Fprintf(os.Stderr, "TotalAlloc: %.2f MB\n", float64(m.TotalAlloc)/1024/1024)
	fmt.Fprintf(os.Stderr, "NumGC: %d\n", m.NumGC)
}

func randomCell(rng *rand.Rand) (*cell.Cell, error) {
	store, err := cell.NewParameterStore(*inputSize, *units, true)
	if err != nil {
		return nil, err
	}
	for _, data := range [][]float64{store.InputKernel().RawMatrix().Data, store.RecurrentKernel().RawMatrix().Data} {
		for i := range data {
			data[i] = (rng.Float64() - 0.5) * 0.2
		}
	}
	gate, err := cell.GateActivation(*gateAct)
	if err != nil {
		return nil, err
	}
	return cell.New(store, cell.WithGateActivation(gate))
}

func randomSequence(rng *rand.Rand, n, width int) [][]float64 {
	seq := make([][]float64, n)
	for t := range seq {
		seq[t] = make([]float64, width)
		for j := range seq[t] {
			seq[t][j] = rng.Float64()*2 - 1
		}
	}
	return seq
}

func countSteps(results []rt.Result, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range results {
		n += len(r.Outputs)
	}
	return n, nil
}

// runMatrixBatch steps every sequence in lockstep as one matrix product per
// timestep. Sequences must share a length.
func runMatrixBatch(c *cell.Cell, data [][][]float64) (int, error) {
	batch := len(data)
	if batch == 0 {
		return 0, nil
	}
	width := c.Store().InputSize()
	state := cell.ZeroBatchState(batch, c.Store().Units())
	x := mat.NewDense(batch, width, nil)

	for t := range data[0] {
		for b := range data {
			x.SetRow(b, data[b][t])
		}
		_, next, err := c.StepBatch(x, state)
		if err != nil {
			return 0, fmt.Errorf("step %d: %w", t, err)
		}
		state = next
	}
	return batch * len(data[0]), nil
}
