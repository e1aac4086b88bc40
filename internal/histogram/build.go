package histogram

import (
	"errors"
	"fmt"
	"io"
)

// Row exposes one record's values by field name. Lookup reports ok=false
// when the key itself is absent (schema mismatch); a present key with an
// empty value marks the value as missing for that row.
type Row interface {
	Lookup(field string) (value string, ok bool)
}

// Source yields rows until io.EOF.
type Source interface {
	Next() (Row, error)
}

// MapRow is the simplest Row, backed by a map. Used by tests and by callers
// that assemble rows in memory.
type MapRow map[string]string

// Lookup implements Row.
func (r MapRow) Lookup(field string) (string, bool) {
	v, ok := r[field]
	return v, ok
}

type sliceSource struct {
	rows []MapRow
	i    int
}

func (s *sliceSource) Next() (Row, error) {
	if s.i >= len(s.rows) {
		return nil, io.EOF
	}
	r := s.rows[s.i]
	s.i++
	return r, nil
}

// Rows wraps in-memory rows as a Source.
func Rows(rows ...MapRow) Source {
	return &sliceSource{rows: rows}
}

// Build scans the source once and counts every combination of the tracked
// field values. Codes are allocated in first-seen order. A row with an empty
// value for any tracked field is excluded entirely (no partial counts); a
// row missing a tracked key aborts the build with a MalformedRowError.
func Build(src Source, fields []string) (*Table, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("build: no fields")
	}
	seen := make(map[string]bool, len(fields))
	owned := make([]*Field, len(fields))
	for i, name := range fields {
		if seen[name] {
			return nil, fmt.Errorf("build: duplicate field %q", name)
		}
		seen[name] = true
		owned[i] = newField(name)
	}

	// First pass over the source: assign codes and keep coded tuples, so
	// the dense array can be shaped before counting. The source is only
	// scanned once.
	var kept [][]int
	rowNum := 0
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("build: row %d: %w", rowNum+1, err)
		}
		rowNum++
		coded := make([]int, len(fields))
		missing := false
		for i, name := range fields {
			v, ok := row.Lookup(name)
			if !ok {
				return nil, &MalformedRowError{Row: rowNum, Field: name}
			}
			if v == "" {
				missing = true
				break
			}
			coded[i] = owned[i].code(v)
		}
		if missing {
			continue
		}
		kept = append(kept, coded)
	}

	t := newTable(owned)
	for _, coord := range kept {
		t.cells[t.offset(coord)]++
	}
	t.total = int64(len(kept))
	return t, nil
}
