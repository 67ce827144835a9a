package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/binpacker/binpack"
	"github.com/eugenenazirov/binpacker/internal/workload"
)

const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

var errNoItems = errors.New("no items given: use --sizes or --file")

type packOptions struct {
	strategy string
	capacity uint64
	sizes    string
	file     string
	format   string
	verbose  bool
}

type compareOptions struct {
	count    int
	minSize  uint64
	maxSize  uint64
	capacity uint64
	seed     int64
	format   string
	verbose  bool
}

type binReport struct {
	Items     []workload.Item `json:"items" yaml:"items"`
	Used      uint64          `json:"used" yaml:"used"`
	Remaining uint64          `json:"remaining" yaml:"remaining"`
}

type packReport struct {
	Strategy binpack.Strategy `json:"strategy" yaml:"strategy"`
	Capacity uint64           `json:"capacity" yaml:"capacity"`
	Bins     []binReport      `json:"bins" yaml:"bins"`
	Summary  binpack.Summary  `json:"summary" yaml:"summary"`
}

type compareRow struct {
	Strategy binpack.Strategy `json:"strategy" yaml:"strategy"`
	Summary  binpack.Summary  `json:"summary" yaml:"summary"`
	Duration time.Duration    `json:"durationNs" yaml:"duration"`
}

type compareReport struct {
	Items    int          `json:"items" yaml:"items"`
	MinSize  uint64       `json:"minSize" yaml:"min_size"`
	MaxSize  uint64       `json:"maxSize" yaml:"max_size"`
	Capacity uint64       `json:"capacity" yaml:"capacity"`
	Seed     int64        `json:"seed" yaml:"seed"`
	Results  []compareRow `json:"results" yaml:"results"`
}

func runPack(opts packOptions, stdin io.Reader, out io.Writer, logger *zap.Logger) error {
	strategy, err := binpack.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}

	var items []workload.Item
	if opts.file != "" {
		loaded, err := workload.Load(opts.file, stdin)
		if err != nil {
			return err
		}
		items = append(items, loaded...)
	}
	if opts.sizes != "" {
		sizes, err := workload.ParseSizes(opts.sizes)
		if err != nil {
			return err
		}
		items = append(items, workload.FromSizes(sizes, len(items))...)
	}
	if len(items) == 0 {
		return errNoItems
	}

	logger.Debug("packing items",
		zap.String("strategy", strategy.String()),
		zap.Uint64("capacity", opts.capacity),
		zap.Int("items", len(items)),
	)

	bins, err := binpack.Pack(strategy, items, opts.capacity)
	if err != nil {
		return fmt.Errorf("pack: %w", err)
	}

	report := packReport{
		Strategy: strategy,
		Capacity: opts.capacity,
		Bins:     make([]binReport, len(bins)),
		Summary:  binpack.Summarize(bins),
	}
	for i, bin := range bins {
		report.Bins[i] = binReport{Items: bin.Items(), Used: bin.Used(), Remaining: bin.Remaining()}
	}

	switch opts.format {
	case formatYAML:
		return writeYAML(out, report)
	case formatJSON:
		return writeJSON(out, report)
	default:
		return writePackText(out, report, bins)
	}
}

func runCompare(opts compareOptions, out io.Writer, logger *zap.Logger) error {
	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	items, err := workload.NewGenerator(seed).Generate(opts.count, opts.minSize, opts.maxSize)
	if err != nil {
		return err
	}
	logger.Debug("generated workload", zap.Int("items", len(items)), zap.Int64("seed", seed))

	report := compareReport{
		Items:    len(items),
		MinSize:  opts.minSize,
		MaxSize:  opts.maxSize,
		Capacity: opts.capacity,
		Seed:     seed,
	}
	for _, strategy := range binpack.Strategies() {
		start := time.Now()
		bins, err := binpack.Pack(strategy, items, opts.capacity)
		elapsed := time.Since(start)
		if err != nil {
			return fmt.Errorf("%s: %w", strategy, err)
		}
		logger.Debug("strategy finished", zap.String("strategy", strategy.String()), zap.Duration("duration", elapsed))
		report.Results = append(report.Results, compareRow{
			Strategy: strategy,
			Summary:  binpack.Summarize(bins),
			Duration: elapsed,
		})
	}

	switch opts.format {
	case formatYAML:
		return writeYAML(out, report)
	case formatJSON:
		return writeJSON(out, report)
	default:
		return writeCompareText(out, report)
	}
}

func writePackText(out io.Writer, report packReport, bins []*binpack.Bin[workload.Item]) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "BIN\tUSED\tFREE\tSIZES\n")
	for i, bin := range bins {
		fmt.Fprintf(tw, "%d\t%d/%d\t%d\t%s\n", i+1, bin.Used(), bin.Capacity(), bin.Remaining(), bin.WeightsSummary())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%s: %d items in %d bins of %d (fill %.1f%%)\n",
		report.Strategy, report.Summary.Items, report.Summary.Bins, report.Capacity, report.Summary.FillRatio*100)
	return err
}

func writeCompareText(out io.Writer, report compareReport) error {
	if _, err := fmt.Fprintf(out, "%d items in [%d,%d], capacity %d, seed %d\n\n",
		report.Items, report.MinSize, report.MaxSize, report.Capacity, report.Seed); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "STRATEGY\tBINS\tWASTED\tFILL\tDURATION\n")
	for _, row := range report.Results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\t%s\n",
			row.Strategy, row.Summary.Bins, row.Summary.WastedSpace, row.Summary.FillRatio*100, row.Duration)
	}
	return tw.Flush()
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
