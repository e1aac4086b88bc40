// Package report renders counts and association results for human
// consumption. It only reads the histogram table and the association index;
// all numbers are computed before a Report is constructed.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/statweave/assoctab-cli/internal/assoc"
	"github.com/statweave/assoctab-cli/internal/histogram"
)

// CategoryCount is one value of one field with its occurrence count.
type CategoryCount struct {
	Value string
	Count int64
}

// Report is a markdown-friendly view over one finished analysis run.
type Report struct {
	RunID    string
	Source   string
	RowsRead int

	table *histogram.Table
	index *assoc.Index
}

// New assembles a report over a built table and a finalized index. Each run
// gets a fresh id so saved reports can be told apart.
func New(table *histogram.Table, index *assoc.Index, source string, rowsRead int) *Report {
	return &Report{
		RunID:    uuid.New().String(),
		Source:   source,
		RowsRead: rowsRead,
		table:    table,
		index:    index,
	}
}

// MostCommon returns the n most frequent values of one field, most frequent
// first, ties broken by value.
func (r *Report) MostCommon(field string, n int) ([]CategoryCount, error) {
	marginal, err := r.table.Reduce(field)
	if err != nil {
		return nil, err
	}
	var out []CategoryCount
	next := marginal.Nonzeros()
	for {
		coord, count, ok := next()
		if !ok {
			break
		}
		out = append(out, CategoryCount{Value: marginal.Values(coord)[0], Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Extremes returns the n strongest positive (ratio > 1) and n strongest
// inverse (ratio < 1) associations across all fields and subgroups.
func (r *Report) Extremes(n int) (positive, inverse []assoc.Entry) {
	for _, e := range r.index.Entries() { // already strongest-first
		switch {
		case e.Ratio > 1 && len(positive) < n:
			positive = append(positive, e)
		case e.Ratio < 1 && len(inverse) < n:
			inverse = append(inverse, e)
		}
		if len(positive) >= n && len(inverse) >= n {
			break
		}
	}
	return positive, inverse
}

// Markdown renders a compact report suitable for terminals or standalone
// docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[ASSOCIATION RUN]\n")
	b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	}
	if r.RowsRead > 0 {
		b.WriteString(fmt.Sprintf("Rows: %d (counted %d)\n", r.RowsRead, r.table.Total()))
	} else {
		b.WriteString(fmt.Sprintf("Rows counted: %d\n", r.table.Total()))
	}
	b.WriteString(fmt.Sprintf("Fields: %s\n", strings.Join(r.table.Fields(), ", ")))
	if u := r.index.Undefined(); u > 0 {
		b.WriteString(fmt.Sprintf("Undefined ratios skipped: %d\n", u))
	}

	b.WriteString("\n[FIELDS]\n")
	for _, field := range r.table.Fields() {
		f, _ := r.table.Field(field)
		tops, err := r.MostCommon(field, 8)
		if err != nil {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s (%d values): ", field, f.Len()))
		for i, t := range tops {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%s(%d)", t.Value, t.Count))
		}
		b.WriteString("\n")
	}

	positive, inverse := r.Extremes(10)
	if len(positive) > 0 {
		b.WriteString("\n[STRONGEST ASSOCIATIONS]\n")
		for _, e := range positive {
			b.WriteString("- " + FormatEntry(e) + "\n")
		}
	}
	if len(inverse) > 0 {
		b.WriteString("\n[STRONGEST INVERSE ASSOCIATIONS]\n")
		for _, e := range inverse {
			b.WriteString("- " + FormatEntry(e) + "\n")
		}
	}

	if ratios := r.ratios(); len(ratios) >= 2 {
		sort.Float64s(ratios)
		b.WriteString("\n[RATIO DISTRIBUTION]\n")
		b.WriteString(fmt.Sprintf("retained %d ratios; mean %.3g, std %.3g, median %.3g, p10 %.3g, p90 %.3g\n",
			len(ratios),
			stat.Mean(ratios, nil),
			stat.StdDev(ratios, nil),
			stat.Quantile(0.5, stat.Empirical, ratios, nil),
			stat.Quantile(0.1, stat.Empirical, ratios, nil),
			stat.Quantile(0.9, stat.Empirical, ratios, nil)))
	}
	return b.String()
}

func (r *Report) ratios() []float64 {
	entries := r.index.Entries()
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Ratio
	}
	return out
}

// FormatEntry renders one association record on one line.
func FormatEntry(e assoc.Entry) string {
	s := fmt.Sprintf("%s=%s × %s=%s: %.3g",
		e.Pair[0].Field, e.Pair[0].Value, e.Pair[1].Field, e.Pair[1].Value, e.Ratio)
	if len(e.Subgroup) == 0 {
		return s + " (overall)"
	}
	parts := make([]string, len(e.Subgroup))
	for i, fv := range e.Subgroup {
		parts[i] = fv.Field + "=" + fv.Value
	}
	return s + " (within " + strings.Join(parts, ", ") + ")"
}

// FormatEntries renders a list of records, one per line.
func FormatEntries(entries []assoc.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("- " + FormatEntry(e) + "\n")
	}
	return b.String()
}
