// Command lstm-run feeds text or numeric rows through a memory cell
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lth/pure-go-lstm/internal/encode"
	"github.com/lth/pure-go-lstm/pkg/lstm"
)

var (
	weightsPath = flag.String("weights", "", "Raw parameter file (default: random parameters)")
	inputSize   = flag.Int("input-size", 64, "Input vector width")
	units       = flag.Int("units", 32, "Hidden-state width")
	useBias     = flag.Bool("bias", true, "Use a bias vector")
	float64W    = flag.Bool("f64", false, "Parameter file holds float64 values")
	gateAct     = flag.String("gate", "hard_sigmoid", "Gate activation: hard_sigmoid, sigmoid")
	candAct     = flag.String("candidate", "tanh", "Candidate activation: tanh, softsign")
	seed        = flag.Int64("seed", 1, "Seed for random parameters")
	mode        = flag.String("mode", "text", "Input mode: text (one sequence per line) or rows (one CSV row per step)")
	inputPath   = flag.String("input", "", "Input file (default: stdin)")
	outputPath  = flag.String("output", "", "Output file (default: stdout)")
	format      = flag.String("format", "json", "Output format: json, csv, tsv")
	threads     = flag.Int("threads", runtime.NumCPU(), "Number of threads")
	verbose     = flag.Bool("verbose", false, "Verbose logging")
	showStats   = flag.Bool("stats", false, "Show performance statistics")
)

// record is one labelled hidden state in the output
type record struct {
	Label  string    `json:"label"`
	Hidden []float64 `json:"hidden"`
}

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *mode != "text" && *mode != "rows" {
		fmt.Fprintf(os.Stderr, "Error: -mode must be 'text' or 'rows'\n")
		flag.Usage()
		os.Exit(1)
	}

	opts := []lstm.Option{
		lstm.WithBias(*useBias),
		lstm.WithGateActivation(*gateAct),
		lstm.WithCandidateActivation(*candAct),
		lstm.WithThreads(*threads),
		lstm.WithFloat64Weights(*float64W),
		lstm.WithLogger(log),
	}

	startLoad := time.Now()
	rt, err := openRuntime(opts)
	if err != nil {
		log.WithError(err).Fatal("failed to create runtime")
	}
	defer rt.Close()

	log.WithFields(logrus.Fields{
		"input":   rt.InputSize(),
		"units":   rt.Units(),
		"params":  rt.Store().NumParams(),
		"elapsed": time.Since(startLoad),
	}).Debug("runtime ready")

	var input io.Reader = os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.WithError(err).Fatal("failed to open input file")
		}
		defer f.Close()
		input = f
	}

	var output io.Writer = os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			log.WithError(err).Fatal("failed to create output file")
		}
		defer f.Close()
		output = f
	}

	ctx := context.Background()
	start := time.Now()

	var records []record
	var steps int
	switch *mode {
	case "text":
		records, steps, err = runText(ctx, rt, input)
	case "rows":
		records, steps, err = runRows(ctx, rt, input)
	}
	if err != nil {
		log.WithError(err).Fatal("run failed")
	}
	elapsed := time.Since(start)

	if err := writeOutput(output, *format, records); err != nil {
		log.WithError(err).Fatal("failed to write output")
	}

	if *showStats && steps > 0 {
		fmt.Fprintf(os.Stderr, "\nStatistics:\n")
		fmt.Fprintf(os.Stderr, "  Steps: %d\n", steps)
		fmt.Fprintf(os.Stderr, "  Total time: %v\n", elapsed)
		fmt.Fprintf(os.Stderr, "  Average time: %v per step\n", elapsed/time.Duration(steps))
		fmt.Fprintf(os.Stderr, "  Throughput: %.2f steps/sec\n", float64(steps)/elapsed.Seconds())
	}
}

func openRuntime(opts []lstm.Option) (lstm.Runtime, error) {
	if *weightsPath != "" {
		return lstm.Open(*weightsPath, *inputSize, *units, opts...)
	}

	rt, err := lstm.New(*inputSize, *units, opts...)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(*seed))
	err = rt.Update(func(s *lstm.ParameterStore) error {
		fill(rng, s.InputKernel().RawMatrix().Data)
		fill(rng, s.RecurrentKernel().RawMatrix().Data)
		if bias, ok := s.Bias(); ok {
			for i := 0; i < bias.Len(); i++ {
				bias.SetVec(i, rng.Float64()-0.5)
			}
		}
		return nil
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func fill(rng *rand.Rand, data []float64) {
	for i := range data {
		data[i] = rng.Float64() - 0.5
	}
}

// runText treats every non-empty line as a sequence of one-hot runes and
// reports its final hidden state.
func runText(ctx context.Context, rt lstm.Runtime, r io.Reader) ([]record, int, error) {
	enc, err := encode.NewOneHot(rt.InputSize())
	if err != nil {
		return nil, 0, err
	}

	var texts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read input: %w", err)
	}
	if len(texts) == 0 {
		return nil, 0, fmt.Errorf("no input texts")
	}

	sequences := make([][][]float64, len(texts))
	steps := 0
	for i, text := range texts {
		sequences[i] = enc.Encode(text)
		steps += len(sequences[i])
	}

	results, err := rt.RunBatch(ctx, sequences, nil)
	if err != nil {
		return nil, 0, err
	}

	records := make([]record, len(texts))
	for i := range texts {
		records[i] = record{Label: texts[i], Hidden: results[i].Final.H}
	}
	return records, steps, nil
}

// runRows reads one comma-separated input vector per line and reports the
// hidden state after every step.
func runRows(ctx context.Context, rt lstm.Runtime, r io.Reader) ([]record, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = rt.InputSize()
	reader.TrimLeadingSpace = true

	var inputs [][]float64
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row %d: %w", len(inputs), err)
		}
		x := make([]float64, len(row))
		for j, field := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, 0, fmt.Errorf("row %d column %d: %w", len(inputs), j, err)
			}
			x[j] = v
		}
		inputs = append(inputs, x)
	}

	res, err := rt.Run(ctx, inputs, lstm.ZeroState(rt.Units()))
	if err != nil {
		return nil, 0, err
	}

	records := make([]record, len(res.Outputs))
	for t, h := range res.Outputs {
		records[t] = record{Label: strconv.Itoa(t), Hidden: h}
	}
	return records, len(inputs), nil
}

func writeOutput(w io.Writer, format string, records []record) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "csv":
		return writeCSV(w, records, ',')
	case "tsv":
		return writeCSV(w, records, '\t')
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeCSV(w io.Writer, records []record, delimiter rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if len(records) > 0 {
		header := []string{"label"}
		for i := range records[0].Hidden {
			header = append(header, fmt.Sprintf("h_%d", i))
		}
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	for _, rec := range records {
		row := []string{rec.Label}
		for _, val := range rec.Hidden {
			row = append(row, strconv.FormatFloat(val, 'f', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
