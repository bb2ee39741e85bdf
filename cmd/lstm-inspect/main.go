// Command lstm-inspect prints the layout of a memory cell parameter file
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/lth/pure-go-lstm/internal/cell"
	"github.com/lth/pure-go-lstm/internal/kernels"
	"github.com/lth/pure-go-lstm/internal/weights"
)

var (
	inputSize = flag.Int("input-size", 0, "Input vector width (required)")
	units     = flag.Int("units", 0, "Hidden-state width (required)")
	useBias   = flag.Bool("bias", true, "File contains a bias vector")
	float64W  = flag.Bool("f64", false, "File holds float64 values")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -input-size N -units N [options] [params.bin]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Without a file, the layout of a zero-valued store is printed.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)

	if *inputSize <= 0 || *units <= 0 {
		fmt.Fprintf(os.Stderr, "Error: -input-size and -units are required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	layout := weights.Layout{InputSize: *inputSize, Units: *units, UseBias: *useBias, DType: weights.Float32}
	if *float64W {
		layout.DType = weights.Float64
	}

	if err := layout.Validate(); err != nil {
		log.WithError(err).Fatal("invalid layout")
	}

	var (
		store *cell.ParameterStore
		err   error
	)
	if path := flag.Arg(0); path != "" {
		store, err = weights.Load(path, layout)
		fmt.Printf("File: %s\n", path)
	} else {
		store, err = cell.NewParameterStore(*inputSize, *units, *useBias)
	}
	if err != nil {
		log.WithError(err).Fatal("failed to load parameters")
	}

	fmt.Printf("Input size: %d\n", store.InputSize())
	fmt.Printf("Units: %d\n", store.Units())
	fmt.Printf("Bias: %v\n", store.HasBias())
	fmt.Printf("State size: %v\n", store.StateSize())
	fmt.Printf("Output size: %d\n", store.OutputSize())
	fmt.Printf("Parameters: %d (%d bytes as %s)\n", store.NumParams(), layout.Size(), layout.DType)
	fmt.Printf("CPU features: %v\n\n", kernels.Features())

	fmt.Println("=== Gates ===")
	groups := []cell.Group{cell.GroupInputKernel, cell.GroupRecurrentKernel, cell.GroupBias}
	for _, g := range cell.Gates {
		lo, hi, _ := store.GateRange(g)
		fmt.Printf("gate %s  columns [%d, %d)\n", g, lo, hi)
		for _, group := range groups {
			view, err := store.GateSlice(group, g)
			if errors.Is(err, cell.ErrBiasUnavailable) {
				fmt.Printf("  %-18s  absent\n", group)
				continue
			}
			if err != nil {
				log.WithError(err).Fatal("gate slice failed")
			}
			r, c := view.Dims()
			fmt.Printf("  %-18s  shape=(%d, %d)  l2=%.6g  max=%.6g\n",
				group, r, c, mat.Norm(view, 2), mat.Max(view))
		}
	}
}
