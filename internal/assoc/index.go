package assoc

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/statweave/assoctab-cli/internal/histogram"
)

// Options is the configuration surface for a full search.
type Options struct {
	// MaxComboSize caps the field-name combination size; clamped to
	// [2, number of fields]. Zero means every size up to all fields.
	MaxComboSize int
	// Notable is the symmetric notability floor around 1.0 (> 1.0 to
	// filter, exactly 1.0 to keep everything).
	Notable float64
	// Significant is the minimum supporting occurrence count.
	Significant int64
	// Workers sizes the pool; zero means GOMAXPROCS.
	Workers int
}

// Entry is one decoded association record for presentation layers.
type Entry struct {
	Pair     [2]histogram.FieldValue
	Subgroup []histogram.FieldValue
	Ratio    float64
}

// Index accumulates the results of every field-name combination into two
// cross-indexed views over the same records. It is mutated only by the
// orchestrating goroutine while FindAll collects worker results, and is
// read-only thereafter.
type Index struct {
	base      *histogram.Table
	pairs     map[string]map[string]map[string]float64
	subgroups map[string]map[string]map[string]float64
	undefined int
}

// NewIndex wraps a built table. The table is shared read-only with all
// workers; nothing writes through it.
func NewIndex(base *histogram.Table) *Index {
	return &Index{
		base:      base,
		pairs:     make(map[string]map[string]map[string]float64),
		subgroups: make(map[string]map[string]map[string]float64),
	}
}

// FindAll enumerates every field-name combination of size 2..MaxComboSize,
// runs one Associator per combination on a fixed-size worker pool, and
// merges each complete local result sequentially. Combinations share no
// mutable state, so the pool needs no locking; merge order does not matter
// because no two combinations emit the same (pair, subgroup) key.
func (x *Index) FindAll(opts Options) error {
	fields := x.base.Fields()
	if len(fields) < 2 {
		return fmt.Errorf("findall: need at least two fields, got %d", len(fields))
	}
	maxSize := opts.MaxComboSize
	if maxSize <= 0 || maxSize > len(fields) {
		maxSize = len(fields)
	}
	if maxSize < 2 {
		maxSize = 2
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan []string)
	type outcome struct {
		res *Result
		err error
	}
	results := make(chan outcome, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for combo := range jobs {
				a, err := NewAssociator(x.base, combo, opts.Notable, opts.Significant)
				if err != nil {
					results <- outcome{err: err}
					continue
				}
				res, err := a.Find()
				results <- outcome{res: res, err: err}
			}
		}()
	}
	go func() {
		for size := 2; size <= maxSize; size++ {
			for _, idx := range combin.Combinations(len(fields), size) {
				combo := make([]string, size)
				for i, k := range idx {
					combo[i] = fields[k]
				}
				jobs <- combo
			}
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for out := range results {
		if out.err != nil {
			if firstErr == nil {
				firstErr = out.err
			}
			continue
		}
		if firstErr != nil {
			continue // a fatal class never returns partial-looking results
		}
		if err := x.merge(out.res); err != nil {
			firstErr = err
		}
	}
	return firstErr
}

// merge deep-merges one complete local result into both global views. A
// (pair, subgroup) key already present signals a combinatorial-enumeration
// bug and aborts rather than overwriting.
func (x *Index) merge(res *Result) error {
	for fpKey, byPair := range res.Pairs {
		dst := x.pairs[fpKey]
		if dst == nil {
			dst = make(map[string]map[string]float64, len(byPair))
			x.pairs[fpKey] = dst
		}
		for pKey, groups := range byPair {
			inner := dst[pKey]
			if inner == nil {
				inner = make(map[string]float64, len(groups))
				dst[pKey] = inner
			}
			for gKey, ratio := range groups {
				if _, exists := inner[gKey]; exists {
					return fmt.Errorf("merge: duplicate association for pair %v subgroup %v (combination %v)",
						decodeSet(pKey), decodeSet(gKey), res.Combo)
				}
				inner[gKey] = ratio
			}
		}
	}
	for sfKey, byGroup := range res.Subgroups {
		dst := x.subgroups[sfKey]
		if dst == nil {
			dst = make(map[string]map[string]float64, len(byGroup))
			x.subgroups[sfKey] = dst
		}
		for gKey, pairs := range byGroup {
			inner := dst[gKey]
			if inner == nil {
				inner = make(map[string]float64, len(pairs))
				dst[gKey] = inner
			}
			for pKey, ratio := range pairs {
				inner[pKey] = ratio
			}
		}
	}
	x.undefined += res.Undefined
	return nil
}

// Pairs exposes the raw by-pair view for bulk consumers. Read-only.
func (x *Index) Pairs() map[string]map[string]map[string]float64 { return x.pairs }

// Subgroups exposes the raw by-subgroup view for bulk consumers. Read-only.
func (x *Index) Subgroups() map[string]map[string]map[string]float64 { return x.subgroups }

// Undefined reports how many (pair, subgroup) ratios were skipped for zero
// denominator populations across all combinations.
func (x *Index) Undefined() int { return x.undefined }

// Report returns every retained association between two fields, strongest
// deviation from 1.0 first. Pure lookup; no computation.
func (x *Index) Report(fieldA, fieldB string) []Entry {
	var out []Entry
	for pKey, groups := range x.pairs[fieldKey(fieldA, fieldB)] {
		pair := decodePair(pKey)
		for gKey, ratio := range groups {
			out = append(out, Entry{Pair: pair, Subgroup: decodeSet(gKey), Ratio: ratio})
		}
	}
	sortEntries(out)
	return out
}

// SubgroupReport returns every retained association within one concrete
// subgroup (e.g. all pairs among white males), strongest first.
func (x *Index) SubgroupReport(subgroup ...histogram.FieldValue) []Entry {
	sfKey := fieldKey(memberFields(subgroup)...)
	gKey := setKey(subgroup)
	var out []Entry
	for pKey, ratio := range x.subgroups[sfKey][gKey] {
		out = append(out, Entry{Pair: decodePair(pKey), Subgroup: decodeSet(gKey), Ratio: ratio})
	}
	sortEntries(out)
	return out
}

// Entries returns every retained association record, strongest first.
func (x *Index) Entries() []Entry {
	var out []Entry
	for _, byPair := range x.pairs {
		for pKey, groups := range byPair {
			pair := decodePair(pKey)
			for gKey, ratio := range groups {
				out = append(out, Entry{Pair: pair, Subgroup: decodeSet(gKey), Ratio: ratio})
			}
		}
	}
	sortEntries(out)
	return out
}

// sortEntries orders by deviation from independence (|log ratio|, largest
// first) with deterministic key tie-breaks.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		di := math.Abs(math.Log(entries[i].Ratio))
		dj := math.Abs(math.Log(entries[j].Ratio))
		if di != dj {
			return di > dj
		}
		pi, pj := setKey(entries[i].Pair[:]), setKey(entries[j].Pair[:])
		if pi != pj {
			return pi < pj
		}
		return setKey(entries[i].Subgroup) < setKey(entries[j].Subgroup)
	})
}
