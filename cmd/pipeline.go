package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statweave/assoctab-cli/internal/assoc"
	"github.com/statweave/assoctab-cli/internal/config"
	"github.com/statweave/assoctab-cli/internal/histogram"
	"github.com/statweave/assoctab-cli/internal/ingest"
)

// Shared flags for the commands that run the count/search pipeline.
var (
	flagFields      []string
	flagMaxCombo    int
	flagNotable     float64
	flagSignificant int
	flagWorkers     int
)

// registerPipelineFlags attaches the pipeline flags to a command. Zero (or
// -1 for --significant) means "use the configured value".
func registerPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&flagFields, "fields", nil, "fields to track, in axis order (overrides config)")
	f.IntVar(&flagMaxCombo, "max-combo", 0, "max field combination size (overrides config)")
	f.Float64Var(&flagNotable, "notable", 0, "notability threshold, ratio >= 1.0 (overrides config)")
	f.IntVar(&flagSignificant, "significant", -1, "significance threshold, minimum count (overrides config)")
	f.IntVar(&flagWorkers, "workers", 0, "worker pool size (overrides config)")
}

func effectiveConfig() *config.Global {
	if cfg != nil {
		return cfg
	}
	// Config load failed earlier (warning already printed); fall back to
	// validated defaults so flag-driven runs still work.
	return &config.Global{
		NotableThreshold:      1.5,
		SignificanceThreshold: 3,
	}
}

// effectiveFields resolves the tracked field list: --fields wins over config.
func effectiveFields() ([]string, error) {
	if len(flagFields) > 0 {
		return flagFields, nil
	}
	c := effectiveConfig()
	if len(c.Fields) > 0 {
		return c.Fields, nil
	}
	return nil, fmt.Errorf("no fields configured; pass --fields or set fields in the config file")
}

// buildTable ingests one CSV file and counts the tracked fields. Returns the
// table and the number of data rows read from the file.
func buildTable(path string, fields []string) (*histogram.Table, int, error) {
	c := effectiveConfig()
	src, err := ingest.Open(path, ingest.Options{
		Delimiter: c.DelimiterRune(),
		Missing:   c.MissingValues,
	})
	if err != nil {
		return nil, 0, err
	}
	defer src.Close()
	table, err := histogram.Build(src, fields)
	if err != nil {
		return nil, 0, err
	}
	return table, src.Rows(), nil
}

// searchOptions folds flag overrides over the loaded config.
func searchOptions() assoc.Options {
	c := effectiveConfig()
	opts := assoc.Options{
		MaxComboSize: c.MaxComboSize,
		Notable:      c.NotableThreshold,
		Significant:  int64(c.SignificanceThreshold),
		Workers:      c.Workers,
	}
	if flagMaxCombo > 0 {
		opts.MaxComboSize = flagMaxCombo
	}
	if flagNotable > 0 {
		opts.Notable = flagNotable
	}
	if flagSignificant >= 0 {
		opts.Significant = int64(flagSignificant)
	}
	if flagWorkers > 0 {
		opts.Workers = flagWorkers
	}
	if opts.Notable < 1 {
		opts.Notable = 1
	}
	return opts
}

// runSearch builds the association index over a built table.
func runSearch(table *histogram.Table) (*assoc.Index, error) {
	index := assoc.NewIndex(table)
	if err := index.FindAll(searchOptions()); err != nil {
		return nil, err
	}
	return index, nil
}

func debugf(format string, args ...any) {
	if debug {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
