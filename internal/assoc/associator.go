// Package assoc computes normalized association ratios between categorical
// field values over a histogram.Table: how much more or less often two values
// co-occur than their marginal frequencies predict, optionally stratified by
// every concrete value combination of the remaining fields.
package assoc

import (
	"fmt"

	"github.com/statweave/assoctab-cli/internal/histogram"
)

// Result holds one associator's accepted ratios in both orientations. Both
// views are filled through a single add path and always agree. The maps are
// handed back whole; partial results are never emitted.
type Result struct {
	// Pairs: field-pair key -> association-pair key -> subgroup key -> ratio.
	Pairs map[string]map[string]map[string]float64
	// Subgroups: subgroup-field-set key -> subgroup key -> pair key -> ratio.
	Subgroups map[string]map[string]map[string]float64
	// Undefined counts (pair, subgroup) ratios skipped for a zero
	// denominator population. Never fatal.
	Undefined int
	// Combo is the field combination this result was computed over.
	Combo []string
}

func newResult(combo []string) *Result {
	return &Result{
		Pairs:     make(map[string]map[string]map[string]float64),
		Subgroups: make(map[string]map[string]map[string]float64),
		Combo:     combo,
	}
}

// Associator computes ratios within one field-name combination. Feed it a
// broader base table; it reduces to the desired combination up front.
type Associator struct {
	table       *histogram.Table
	notable     float64
	significant int64
	res         *Result
}

// NewAssociator reduces base to the given field combination. notable is the
// symmetric notability floor around 1.0 (>= 1); significant is the minimum
// supporting count for both the joint cell and the subgroup population.
func NewAssociator(base *histogram.Table, fields []string, notable float64, significant int64) (*Associator, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf("associator: need at least two fields, got %d", len(fields))
	}
	if notable < 1 {
		return nil, fmt.Errorf("associator: notable threshold %v below 1", notable)
	}
	if significant < 0 {
		return nil, fmt.Errorf("associator: negative significance threshold %d", significant)
	}
	t, err := base.Reduce(fields...)
	if err != nil {
		return nil, fmt.Errorf("associator: %w", err)
	}
	return &Associator{table: t, notable: notable, significant: significant, res: newResult(fields)}, nil
}

// Find computes the association ratio
//
//	ratio = joint * subtotal / (marginal1 * marginal2)
//
// for every pair of values drawn from two distinct fields of the table, and
// for every nonzero value combination of the remaining fields (the subgroup).
// When no fields remain the single unconditional subgroup is used. Marginal
// counts are computed once per subgroup and shared across all pairs in it.
func (a *Associator) Find() (*Result, error) {
	fields := a.table.Fields()
	for i := 0; i < len(fields); i++ {
		for j := i + 1; j < len(fields); j++ {
			if err := a.findPairType(fields, i, j); err != nil {
				return nil, err
			}
		}
	}
	return a.res, nil
}

func (a *Associator) findPairType(fields []string, i, j int) error {
	f1, f2 := fields[i], fields[j]
	rest := make([]string, 0, len(fields)-2)
	for k, f := range fields {
		if k != i && k != j {
			rest = append(rest, f)
		}
	}
	if len(rest) == 0 {
		// Unconditional case: the whole population is the one subgroup.
		return a.scanSubgroup(a.table, f1, f2, nil, a.table.Total())
	}
	groups, err := a.table.Reduce(rest...)
	if err != nil {
		return err
	}
	next := groups.Nonzeros()
	for {
		coord, subtotal, ok := next()
		if !ok {
			return nil
		}
		values := groups.Values(coord)
		subgroup := make([]histogram.FieldValue, len(rest))
		for k, f := range rest {
			subgroup[k] = histogram.FieldValue{Field: f, Value: values[k]}
		}
		sub := a.table
		for _, fv := range subgroup {
			if sub, err = sub.Slice(fv.Field, fv.Value); err != nil {
				return err
			}
		}
		pairTab, err := sub.Reduce(f1, f2)
		if err != nil {
			return err
		}
		if err := a.scanSubgroup(pairTab, f1, f2, subgroup, subtotal); err != nil {
			return err
		}
	}
}

// scanSubgroup walks the nonzero joint cells of a 2-D pair table restricted
// to one subgroup. The two 1-D marginals are reduced once here and reused
// for every pair in the subgroup.
func (a *Associator) scanSubgroup(pairs *histogram.Table, f1, f2 string, subgroup []histogram.FieldValue, subtotal int64) error {
	if subtotal == 0 {
		a.res.Undefined++
		return nil
	}
	if subtotal < a.significant {
		return nil
	}
	m1, err := pairs.Reduce(f1)
	if err != nil {
		return err
	}
	m2, err := pairs.Reduce(f2)
	if err != nil {
		return err
	}
	next := pairs.Nonzeros()
	for {
		coord, joint, ok := next()
		if !ok {
			return nil
		}
		if joint < a.significant {
			continue
		}
		values := pairs.Values(coord)
		v1 := histogram.FieldValue{Field: f1, Value: values[0]}
		v2 := histogram.FieldValue{Field: f2, Value: values[1]}
		c1, err := m1.Get(v1)
		if err != nil {
			return err
		}
		c2, err := m2.Get(v2)
		if err != nil {
			return err
		}
		if c1 == 0 || c2 == 0 {
			a.res.Undefined++
			continue
		}
		ratio := float64(joint) * float64(subtotal) / (float64(c1) * float64(c2))
		a.add(v1, v2, subgroup, ratio)
	}
}

// add records one ratio into both local views if it clears the notability
// floor: at least notable, or at most 1/notable. Boundary-equal ratios are
// retained.
func (a *Associator) add(v1, v2 histogram.FieldValue, subgroup []histogram.FieldValue, ratio float64) {
	if ratio < a.notable && ratio*a.notable > 1 {
		return
	}
	pair := []histogram.FieldValue{v1, v2}
	fpKey := fieldKey(v1.Field, v2.Field)
	pKey := setKey(pair)
	gKey := setKey(subgroup)
	sfKey := fieldKey(memberFields(subgroup)...)

	byPair := a.res.Pairs[fpKey]
	if byPair == nil {
		byPair = make(map[string]map[string]float64)
		a.res.Pairs[fpKey] = byPair
	}
	if byPair[pKey] == nil {
		byPair[pKey] = make(map[string]float64)
	}
	byPair[pKey][gKey] = ratio

	byGroup := a.res.Subgroups[sfKey]
	if byGroup == nil {
		byGroup = make(map[string]map[string]float64)
		a.res.Subgroups[sfKey] = byGroup
	}
	if byGroup[gKey] == nil {
		byGroup[gKey] = make(map[string]float64)
	}
	byGroup[gKey][pKey] = ratio
}
