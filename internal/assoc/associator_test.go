package assoc

import (
	"math"
	"testing"

	"github.com/statweave/assoctab-cli/internal/histogram"
)

func fv(field, value string) histogram.FieldValue {
	return histogram.FieldValue{Field: field, Value: value}
}

func buildRows(t *testing.T, fields []string, rows ...histogram.MapRow) *histogram.Table {
	t.Helper()
	table, err := histogram.Build(histogram.Rows(rows...), fields)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return table
}

func findAll(t *testing.T, table *histogram.Table, fields []string, notable float64, significant int64) *Result {
	t.Helper()
	a, err := NewAssociator(table, fields, notable, significant)
	if err != nil {
		t.Fatalf("associator: %v", err)
	}
	res, err := a.Find()
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	return res
}

func ratioOf(res *Result, pair, subgroup []histogram.FieldValue) (float64, bool) {
	fpKey := fieldKey(pair[0].Field, pair[1].Field)
	r, ok := res.Pairs[fpKey][setKey(pair)][setKey(subgroup)]
	return r, ok
}

func TestDegenerateDenominatorEqualsJoint(t *testing.T) {
	// All diagnoses are amp here, so (amp, fatal) shows no association:
	// ratio = (1*3)/(1*3) = 1.0.
	table := buildRows(t, []string{"sex", "day", "diag", "disp"},
		histogram.MapRow{"sex": "M", "day": "Tue", "diag": "amp", "disp": "fatal"},
		histogram.MapRow{"sex": "M", "day": "Tue", "diag": "amp", "disp": "ok"},
		histogram.MapRow{"sex": "F", "day": "Tue", "diag": "amp", "disp": "ok"},
	)
	res := findAll(t, table, []string{"diag", "disp"}, 1, 0)
	r, ok := ratioOf(res, []histogram.FieldValue{fv("diag", "amp"), fv("disp", "fatal")}, nil)
	if !ok {
		t.Fatal("amp×fatal ratio missing")
	}
	if math.Abs(r-1.0) > 1e-12 {
		t.Fatalf("ratio = %v, want 1.0", r)
	}
	if res.Undefined != 0 {
		t.Fatalf("undefined = %d, want 0", res.Undefined)
	}
}

// skewedTable has a real positive association between x–u and y–v.
func skewedTable(t *testing.T) *histogram.Table {
	var rows []histogram.MapRow
	add := func(a, b string, n int) {
		for i := 0; i < n; i++ {
			rows = append(rows, histogram.MapRow{"A": a, "B": b})
		}
	}
	add("x", "u", 8)
	add("x", "v", 2)
	add("y", "u", 2)
	add("y", "v", 8)
	return buildRows(t, []string{"A", "B"}, rows...)
}

func TestRatioMatchesDirectFormula(t *testing.T) {
	table := skewedTable(t)
	res := findAll(t, table, []string{"A", "B"}, 1, 0)
	total := float64(table.Total())
	for _, c := range []struct {
		a, b string
	}{{"x", "u"}, {"x", "v"}, {"y", "u"}, {"y", "v"}} {
		joint, _ := table.Get(fv("A", c.a), fv("B", c.b))
		ma, _ := table.Get(fv("A", c.a))
		mb, _ := table.Get(fv("B", c.b))
		want := float64(joint) * total / (float64(ma) * float64(mb))
		got, ok := ratioOf(res, []histogram.FieldValue{fv("A", c.a), fv("B", c.b)}, nil)
		if !ok {
			t.Fatalf("%s×%s missing", c.a, c.b)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("%s×%s = %v, want %v", c.a, c.b, got, want)
		}
	}
}

func TestPairKeyIsUnordered(t *testing.T) {
	table := skewedTable(t)
	res := findAll(t, table, []string{"A", "B"}, 1, 0)
	forward, ok1 := ratioOf(res, []histogram.FieldValue{fv("A", "x"), fv("B", "u")}, nil)
	reverse, ok2 := ratioOf(res, []histogram.FieldValue{fv("B", "u"), fv("A", "x")}, nil)
	if !ok1 || !ok2 {
		t.Fatal("pair lookup should not depend on member order")
	}
	if forward != reverse {
		t.Fatalf("forward %v != reverse %v", forward, reverse)
	}
}

func TestNotabilityBoundary(t *testing.T) {
	// Counts x,u=2 and y,v=2 only: ratio(x,u) = 2*4/(2*2) = 2.0 exactly.
	table := buildRows(t, []string{"A", "B"},
		histogram.MapRow{"A": "x", "B": "u"},
		histogram.MapRow{"A": "x", "B": "u"},
		histogram.MapRow{"A": "y", "B": "v"},
		histogram.MapRow{"A": "y", "B": "v"},
	)
	pair := []histogram.FieldValue{fv("A", "x"), fv("B", "u")}

	res := findAll(t, table, []string{"A", "B"}, 2.0, 0)
	if _, ok := ratioOf(res, pair, nil); !ok {
		t.Fatal("ratio exactly at the notability threshold must be retained")
	}
	res = findAll(t, table, []string{"A", "B"}, 2.0001, 0)
	if _, ok := ratioOf(res, pair, nil); ok {
		t.Fatal("ratio below the notability threshold must be excluded")
	}
}

func TestInverseNotabilityBoundary(t *testing.T) {
	// ratio(x,v) = 1*16/(8*8) = 0.25 = 1/4 exactly.
	var rows []histogram.MapRow
	add := func(a, b string, n int) {
		for i := 0; i < n; i++ {
			rows = append(rows, histogram.MapRow{"A": a, "B": b})
		}
	}
	add("x", "u", 7)
	add("x", "v", 1)
	add("y", "u", 1)
	add("y", "v", 7)
	table := buildRows(t, []string{"A", "B"}, rows...)
	pair := []histogram.FieldValue{fv("A", "x"), fv("B", "v")}

	res := findAll(t, table, []string{"A", "B"}, 4.0, 0)
	if _, ok := ratioOf(res, pair, nil); !ok {
		t.Fatal("ratio exactly at 1/notable must be retained")
	}
	res = findAll(t, table, []string{"A", "B"}, 4.5, 0)
	if _, ok := ratioOf(res, pair, nil); ok {
		t.Fatal("ratio above 1/notable must be excluded")
	}
}

func TestSignificanceBoundary(t *testing.T) {
	table := buildRows(t, []string{"A", "B"},
		histogram.MapRow{"A": "x", "B": "u"},
		histogram.MapRow{"A": "x", "B": "u"},
		histogram.MapRow{"A": "y", "B": "v"},
		histogram.MapRow{"A": "y", "B": "v"},
	)
	pair := []histogram.FieldValue{fv("A", "x"), fv("B", "u")}

	// Joint count is exactly 2.
	res := findAll(t, table, []string{"A", "B"}, 1, 2)
	if _, ok := ratioOf(res, pair, nil); !ok {
		t.Fatal("joint count equal to the significance threshold must be retained")
	}
	res = findAll(t, table, []string{"A", "B"}, 1, 3)
	if _, ok := ratioOf(res, pair, nil); ok {
		t.Fatal("joint count below the significance threshold must be excluded")
	}
}

func TestStratifiedSubgroups(t *testing.T) {
	// Third field g splits the population; the (A, B, g) combination must
	// stratify by every concrete value of g, never the unconditional case.
	var rows []histogram.MapRow
	add := func(a, b, g string, n int) {
		for i := 0; i < n; i++ {
			rows = append(rows, histogram.MapRow{"A": a, "B": b, "g": g})
		}
	}
	add("x", "u", "p", 6)
	add("x", "v", "p", 2)
	add("y", "u", "p", 2)
	add("y", "v", "p", 6)
	add("x", "u", "q", 1)
	add("y", "v", "q", 1)
	table := buildRows(t, []string{"A", "B", "g"}, rows...)
	res := findAll(t, table, []string{"A", "B", "g"}, 1, 0)

	subgroup := []histogram.FieldValue{fv("g", "p")}
	got, ok := ratioOf(res, []histogram.FieldValue{fv("A", "x"), fv("B", "u")}, subgroup)
	if !ok {
		t.Fatal("stratified ratio missing for g=p")
	}
	// Within g=p: joint 6, subtotal 16, marginals 8 and 8.
	want := 6.0 * 16.0 / 64.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("ratio = %v, want %v", got, want)
	}
	if _, ok := ratioOf(res, []histogram.FieldValue{fv("A", "x"), fv("B", "u")}, nil); ok {
		t.Fatal("a 3-field combination must not emit the unconditional subgroup")
	}
}

func TestEmptyPopulationIsUndefined(t *testing.T) {
	// Every row is missing a value, so the table is empty; the
	// unconditional subgroup has zero rows and must come back as
	// undefined, not a divide-by-zero fault.
	table := buildRows(t, []string{"A", "B"},
		histogram.MapRow{"A": "", "B": "u"},
	)
	res := findAll(t, table, []string{"A", "B"}, 1, 0)
	if res.Undefined != 1 {
		t.Fatalf("undefined = %d, want 1", res.Undefined)
	}
	if len(res.Pairs) != 0 {
		t.Fatalf("pairs = %v, want empty", res.Pairs)
	}
}

func TestResultViewsMirror(t *testing.T) {
	table := skewedTable(t)
	res := findAll(t, table, []string{"A", "B"}, 1, 0)
	count := 0
	for _, byPair := range res.Pairs {
		for pKey, groups := range byPair {
			for gKey, ratio := range groups {
				sfKey := fieldKey(memberFields(decodeSet(gKey))...)
				mirror, ok := res.Subgroups[sfKey][gKey][pKey]
				if !ok || mirror != ratio {
					t.Fatalf("entry %s/%s missing from subgroup view", pKey, gKey)
				}
				count++
			}
		}
	}
	if count == 0 {
		t.Fatal("no entries produced")
	}
}
