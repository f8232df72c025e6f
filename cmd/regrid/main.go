package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/chrissnell/regrid/internal/app"
	"github.com/chrissnell/regrid/internal/log"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	var (
		input        = flag.String("input", "", "Input path (CSV file or SQLite archive)")
		output       = flag.String("output", "", "Output path (CSV file or SQLite archive)")
		inputFormat  = flag.String("input-format", "", "Input format: 'csv' or 'sqlite' (default: infer from extension)")
		outputFormat = flag.String("output-format", "", "Output format: 'csv' or 'sqlite' (default: infer from extension)")
		valueColumn  = flag.String("value-column", "", "CSV value column name (default: temperature)")
		method       = flag.String("method", "polynomial", "Fit method: 'constant', 'polynomial' or 'smoothing'")
		order        = flag.Int("order", 1, "Fit order: 0 holds values, 1 is linear, 2 and 3 bend")
		step         = flag.Duration("step", time.Minute, "Output grid spacing")
		maxGap       = flag.Duration("max-gap", 0, "Split the series where samples lie further apart than this (0 = never split)")
		fitBudget    = flag.Duration("fit-budget", 0, "Per-interval fit time budget (0 = unlimited)")
		keepOriginal = flag.Bool("keep-original", false, "Union original timestamps into the output grid")
		perProperty  = flag.Bool("per-property", false, "Also write one CSV per property group")
		debug        = flag.Bool("debug", false, "Turn on debugging output")
		showVersion  = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("regrid %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	application, err := app.New(app.Config{
		InputPath:    *input,
		OutputPath:   *output,
		InputFormat:  *inputFormat,
		OutputFormat: *outputFormat,
		ValueColumn:  *valueColumn,
		Method:       *method,
		Order:        *order,
		Step:         *step,
		MaxGap:       *maxGap,
		FitBudget:    *fitBudget,
		KeepOriginal: *keepOriginal,
		PerProperty:  *perProperty,
	}, log.GetSugaredLogger())
	if err != nil {
		log.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}
