// Package histogram builds dense N-dimensional occurrence counts over
// categorical fields and derives reduced or sliced views of them without
// rescanning the source rows.
package histogram

import "fmt"

// FieldValue names one value of one field, e.g. {Field: "sex", Value: "M"}.
type FieldValue struct {
	Field string
	Value string
}

// Field is one categorical dimension: an ordered list of distinct observed
// values (first-seen order) and the inverse value→code map. Codes index the
// table axis for this field and are stable for the lifetime of one build.
type Field struct {
	name   string
	values []string
	codes  map[string]int
}

func newField(name string) *Field {
	return &Field{name: name, codes: make(map[string]int)}
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Len returns the number of distinct observed values.
func (f *Field) Len() int { return len(f.values) }

// Values returns the observed values in code order. The returned slice is a
// copy; the field's coding never changes after the build.
func (f *Field) Values() []string {
	out := make([]string, len(f.values))
	copy(out, f.values)
	return out
}

// Code returns the integer code for a value, if observed.
func (f *Field) Code(value string) (int, bool) {
	c, ok := f.codes[value]
	return c, ok
}

// Value returns the value string for a code.
func (f *Field) Value(code int) string { return f.values[code] }

func (f *Field) code(value string) int {
	if c, ok := f.codes[value]; ok {
		return c
	}
	c := len(f.values)
	f.values = append(f.values, value)
	f.codes[value] = c
	return c
}

func (f *Field) clone() *Field {
	c := &Field{name: f.name, values: make([]string, len(f.values)), codes: make(map[string]int, len(f.codes))}
	copy(c.values, f.values)
	for v, i := range f.codes {
		c.codes[v] = i
	}
	return c
}

// Table is a dense N-dimensional occurrence count, one axis per field, stored
// row-major in a flat slice. Sum of all cells equals the number of source
// rows that carried a non-missing value in every tracked field. A Table owns
// its Fields; derived tables receive independent copies and the parent is
// never mutated by Reduce or Slice.
type Table struct {
	fields []*Field
	axes   map[string]int // field name -> axis position
	shape  []int
	stride []int
	cells  []int64
	total  int64
}

func newTable(fields []*Field) *Table {
	t := &Table{
		fields: fields,
		axes:   make(map[string]int, len(fields)),
		shape:  make([]int, len(fields)),
		stride: make([]int, len(fields)),
	}
	size := 1
	for i, f := range fields {
		t.axes[f.name] = i
		t.shape[i] = f.Len()
	}
	for i := len(fields) - 1; i >= 0; i-- {
		t.stride[i] = size
		size *= t.shape[i]
	}
	t.cells = make([]int64, size)
	return t
}

func (t *Table) offset(coord []int) int {
	off := 0
	for i, c := range coord {
		off += c * t.stride[i]
	}
	return off
}

func (t *Table) decode(idx int, coord []int) {
	for i, s := range t.stride {
		coord[i] = idx / s
		idx %= s
	}
}

// Fields returns the axis field names in order.
func (t *Table) Fields() []string {
	out := make([]string, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.name
	}
	return out
}

// Field returns the Field for a name.
func (t *Table) Field(name string) (*Field, bool) {
	i, ok := t.axes[name]
	if !ok {
		return nil, false
	}
	return t.fields[i], true
}

// Total returns the sum of all cells.
func (t *Table) Total() int64 { return t.total }

// Values decodes a coordinate tuple into its value strings, one per axis.
func (t *Table) Values(coord []int) []string {
	out := make([]string, len(coord))
	for i, c := range coord {
		out[i] = t.fields[i].Value(c)
	}
	return out
}

// Reduce sums out every axis not named in keep and returns a new independent
// Table whose axis order follows keep. keep must be a non-empty subset of the
// table's fields.
func (t *Table) Reduce(keep ...string) (*Table, error) {
	if len(keep) == 0 {
		return nil, fmt.Errorf("reduce: no fields to keep")
	}
	src := make([]int, len(keep))
	fields := make([]*Field, len(keep))
	seen := make(map[string]bool, len(keep))
	for i, name := range keep {
		axis, ok := t.axes[name]
		if !ok {
			return nil, fmt.Errorf("reduce: %w: %q", ErrUnknownField, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("reduce: duplicate field %q", name)
		}
		seen[name] = true
		src[i] = axis
		fields[i] = t.fields[axis].clone()
	}
	out := newTable(fields)
	coord := make([]int, len(t.fields))
	dst := make([]int, len(keep))
	for idx, n := range t.cells {
		if n == 0 {
			continue
		}
		t.decode(idx, coord)
		for i, axis := range src {
			dst[i] = coord[axis]
		}
		out.cells[out.offset(dst)] += n
	}
	out.total = t.total
	return out, nil
}

// Slice fixes one axis at one value and drops it, keeping only that
// cross-section. The fixed field becomes implicit context of the result
// (e.g. "males only"), so the result's total is the count within it.
func (t *Table) Slice(field, value string) (*Table, error) {
	axis, ok := t.axes[field]
	if !ok {
		return nil, fmt.Errorf("slice: %w: %q", ErrUnknownField, field)
	}
	code, ok := t.fields[axis].Code(value)
	if !ok {
		return nil, fmt.Errorf("slice: %w: %q=%q", ErrUnknownValue, field, value)
	}
	fields := make([]*Field, 0, len(t.fields)-1)
	for i, f := range t.fields {
		if i != axis {
			fields = append(fields, f.clone())
		}
	}
	out := newTable(fields)
	coord := make([]int, len(t.fields))
	dst := make([]int, len(fields))
	for idx, n := range t.cells {
		if n == 0 {
			continue
		}
		t.decode(idx, coord)
		if coord[axis] != code {
			continue
		}
		k := 0
		for i, c := range coord {
			if i != axis {
				dst[k] = c
				k++
			}
		}
		off := out.offset(dst)
		out.cells[off] += n
		out.total += n
	}
	return out, nil
}

// Get returns the count for a fully or partially specified value
// combination. Unspecified fields are summed out. A combination that never
// occurred returns 0; a value never observed for its field is a lookup
// failure (ErrUnknownValue).
func (t *Table) Get(pairs ...FieldValue) (int64, error) {
	if len(pairs) == 0 {
		return t.total, nil
	}
	fixed := make(map[int]int, len(pairs))
	for _, p := range pairs {
		axis, ok := t.axes[p.Field]
		if !ok {
			return 0, fmt.Errorf("get: %w: %q", ErrUnknownField, p.Field)
		}
		code, ok := t.fields[axis].Code(p.Value)
		if !ok {
			return 0, fmt.Errorf("get: %w: %q=%q", ErrUnknownValue, p.Field, p.Value)
		}
		if _, dup := fixed[axis]; dup {
			return 0, fmt.Errorf("get: duplicate field %q", p.Field)
		}
		fixed[axis] = code
	}
	if len(fixed) == len(t.fields) {
		coord := make([]int, len(t.fields))
		for axis, code := range fixed {
			coord[axis] = code
		}
		return t.cells[t.offset(coord)], nil
	}
	// Partial combination: accumulate the marginal directly instead of
	// materializing a reduced table.
	var sum int64
	coord := make([]int, len(t.fields))
	for idx, n := range t.cells {
		if n == 0 {
			continue
		}
		t.decode(idx, coord)
		match := true
		for axis, code := range fixed {
			if coord[axis] != code {
				match = false
				break
			}
		}
		if match {
			sum += n
		}
	}
	return sum, nil
}

// Nonzeros returns a one-shot iterator over cells with count > 0. Each call
// yields a freshly allocated coordinate tuple and its count; ok is false
// once the table is exhausted. The dense array is never copied.
func (t *Table) Nonzeros() func() (coord []int, count int64, ok bool) {
	idx := 0
	return func() ([]int, int64, bool) {
		for ; idx < len(t.cells); idx++ {
			if t.cells[idx] == 0 {
				continue
			}
			coord := make([]int, len(t.fields))
			t.decode(idx, coord)
			n := t.cells[idx]
			idx++
			return coord, n, true
		}
		return nil, 0, false
	}
}
