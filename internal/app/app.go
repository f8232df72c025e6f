// Package app wires the resampling pipeline end to end: read records, split
// them into property groups, resample every group concurrently, and write the
// merged result.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/regrid/internal/dataset"
	"github.com/chrissnell/regrid/internal/resample"
	"github.com/chrissnell/regrid/internal/store"
	"github.com/chrissnell/regrid/internal/timeseries"
)

// Record container formats the pipeline reads and writes.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// Config carries the pipeline settings assembled from command-line flags.
type Config struct {
	InputPath    string
	OutputPath   string
	InputFormat  string // csv or sqlite; empty infers from the extension
	OutputFormat string
	ValueColumn  string

	Method       string
	Order        int
	Step         time.Duration
	MaxGap       time.Duration
	FitBudget    time.Duration
	KeepOriginal bool

	// PerProperty additionally writes one CSV per property group next to
	// the merged output.
	PerProperty bool
}

// App is the one-shot resampling pipeline.
type App struct {
	cfg       Config
	resampler *resample.Resampler
	logger    *zap.SugaredLogger
}

// New validates cfg and assembles the pipeline.
func New(cfg Config, logger *zap.SugaredLogger) (*App, error) {
	if cfg.InputPath == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if _, err := formatFor(cfg.InputFormat, cfg.InputPath); err != nil {
		return nil, err
	}
	outFormat, err := formatFor(cfg.OutputFormat, cfg.OutputPath)
	if err != nil {
		return nil, err
	}
	if cfg.PerProperty && outFormat != FormatCSV {
		return nil, fmt.Errorf("per-property output requires CSV output")
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	resampler, err := resample.New(resample.Options{
		Method:       resample.Method(cfg.Method),
		Order:        cfg.Order,
		Step:         cfg.Step,
		MaxGap:       cfg.MaxGap,
		FitBudget:    cfg.FitBudget,
		KeepOriginal: cfg.KeepOriginal,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, resampler: resampler, logger: logger}, nil
}

// Run executes the pipeline once. A failing property group leaves its peers
// untouched: their output is still written, and Run reports the failures.
func (a *App) Run(ctx context.Context) error {
	records, err := a.readRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("input %s holds no records", a.cfg.InputPath)
	}

	groups, err := dataset.SplitByProperty(records)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	a.logger.Infof("resampling %d records across %d property groups", len(records), len(names))

	results := make([][]dataset.Record, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i], errs[i] = a.resampleGroup(name, groups[name])
		}(i, name)
	}
	wg.Wait()

	output := make(map[string][]dataset.Record, len(names))
	failed := 0
	for i, name := range names {
		if errs[i] != nil {
			failed++
			a.logger.Errorf("property %s: %v", name, errs[i])
			continue
		}
		output[name] = results[i]
		a.logger.Infof("property %s: %d samples resampled to %d points",
			name, len(groups[name]), len(results[i]))
	}
	if len(output) == 0 {
		return fmt.Errorf("all %d property groups failed", failed)
	}

	if a.cfg.PerProperty {
		for name, recs := range output {
			if err := a.writeCSVFile(perPropertyPath(a.cfg.OutputPath, name), recs); err != nil {
				return err
			}
		}
	}
	if err := a.writeRecords(ctx, dataset.Merge(output)); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d property groups failed", failed, len(names))
	}
	return nil
}

// resampleGroup runs one property group through the resampler and rebuilds
// its output rows.
func (a *App) resampleGroup(name string, group []dataset.Record) ([]dataset.Record, error) {
	times := make([]time.Time, len(group))
	values := make([]float64, len(group))
	for i, rec := range group {
		times[i] = rec.Time
		values[i] = rec.Value
	}
	series, err := timeseries.New(name, times, values)
	if err != nil {
		return nil, err
	}
	points, err := a.resampler.Resample(series)
	if err != nil {
		return nil, err
	}
	return dataset.FromPoints(group, points)
}

func (a *App) readRecords(ctx context.Context) ([]dataset.Record, error) {
	format, err := formatFor(a.cfg.InputFormat, a.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatSQLite:
		st, err := store.Open(a.cfg.InputPath)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.LoadRecords(ctx)
	default:
		f, err := os.Open(a.cfg.InputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		return dataset.ReadCSV(f, dataset.CSVOptions{ValueColumn: a.cfg.ValueColumn})
	}
}

func (a *App) writeRecords(ctx context.Context, records []dataset.Record) error {
	format, err := formatFor(a.cfg.OutputFormat, a.cfg.OutputPath)
	if err != nil {
		return err
	}
	switch format {
	case FormatSQLite:
		st, err := store.Open(a.cfg.OutputPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Init(ctx); err != nil {
			return err
		}
		return st.SaveRecords(ctx, records)
	default:
		return a.writeCSVFile(a.cfg.OutputPath, records)
	}
}

func (a *App) writeCSVFile(path string, records []dataset.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := dataset.WriteCSV(f, records, dataset.CSVOptions{ValueColumn: a.cfg.ValueColumn}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatFor resolves an explicit format name, or infers one from the path's
// extension when the name is empty.
func formatFor(explicit, path string) (string, error) {
	switch explicit {
	case FormatCSV, FormatSQLite:
		return explicit, nil
	case "":
	default:
		return "", fmt.Errorf("unknown format %q (want csv or sqlite)", explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("cannot infer a format for %q; set one explicitly", path)
}

// perPropertyPath derives a per-group output path, out.csv -> out_<property>.csv,
// flattening characters that do not belong in file names.
func perPropertyPath(path, property string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, property)
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + safe + ext
}
