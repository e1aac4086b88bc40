// Package ingest adapts on-disk CSV/TSV tables to the histogram package's
// row contract. Values are opaque strings; configured missing markers are
// normalized to the empty value so those rows are excluded from counts.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/statweave/assoctab-cli/internal/histogram"
)

// Options controls CSV reading behavior.
type Options struct {
	// Delimiter for CSV. If 0, auto-detects from the file extension
	// (.tsv means tab, everything else comma).
	Delimiter rune
	// Missing lists value strings treated as missing in addition to the
	// empty string, e.g. "NA" or "Unknown".
	Missing []string
}

// Source reads one CSV file as a stream of rows. It implements
// histogram.Source; Next returns io.EOF at end of file.
type Source struct {
	f       *os.File
	r       *csv.Reader
	header  []string
	cols    map[string]int
	missing map[string]bool
	rows    int
}

// Open opens a CSV file and reads its header row. The header defines the
// keys available on every row.
func Open(path string, opt Options) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	clean := make([]string, len(header))
	for i, name := range header {
		clean[i] = strings.TrimSpace(name)
		cols[clean[i]] = i
	}
	missing := make(map[string]bool, len(opt.Missing))
	for _, m := range opt.Missing {
		missing[m] = true
	}
	return &Source{f: f, r: r, header: clean, cols: cols, missing: missing}, nil
}

// Header returns the cleaned column names in file order.
func (s *Source) Header() []string { return s.header }

// Rows returns the number of data rows read so far.
func (s *Source) Rows() int { return s.rows }

// Next implements histogram.Source.
func (s *Source) Next() (histogram.Row, error) {
	rec, err := s.r.Read()
	if err != nil {
		return nil, err
	}
	s.rows++
	vals := make([]string, len(rec))
	copy(vals, rec)
	return &row{src: s, vals: vals}, nil
}

// Close releases the underlying file.
func (s *Source) Close() error { return s.f.Close() }

type row struct {
	src  *Source
	vals []string
}

// Lookup reports ok=false for a column the file does not carry or a record
// too short to reach it; the histogram build treats that as a schema
// mismatch. A present value matching a missing marker comes back empty.
func (r *row) Lookup(field string) (string, bool) {
	idx, ok := r.src.cols[field]
	if !ok || idx >= len(r.vals) {
		return "", false
	}
	v := strings.TrimSpace(r.vals[idx])
	if r.src.missing[v] {
		return "", true
	}
	return v, true
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
