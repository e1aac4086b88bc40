package assoc

import (
	"sort"
	"strings"

	"github.com/statweave/assoctab-cli/internal/histogram"
)

// Nested map keys are canonical strings for unordered sets: members sorted
// and joined with control separators that cannot clash with real field or
// value text in CSV data. The empty set (the unconditional subgroup) encodes
// as "".
const (
	kvSep   = "\x1f" // between field and value within one member
	itemSep = "\x1e" // between members
)

// fieldKey canonicalizes an unordered set of field names.
func fieldKey(names ...string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return strings.Join(sorted, itemSep)
}

// setKey canonicalizes an unordered set of (field, value) members.
func setKey(members []histogram.FieldValue) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = m.Field + kvSep + m.Value
	}
	sort.Strings(parts)
	return strings.Join(parts, itemSep)
}

// decodeSet is the inverse of setKey.
func decodeSet(key string) []histogram.FieldValue {
	if key == "" {
		return nil
	}
	parts := strings.Split(key, itemSep)
	out := make([]histogram.FieldValue, len(parts))
	for i, p := range parts {
		f, v, _ := strings.Cut(p, kvSep)
		out[i] = histogram.FieldValue{Field: f, Value: v}
	}
	return out
}

func decodePair(key string) [2]histogram.FieldValue {
	set := decodeSet(key)
	var pair [2]histogram.FieldValue
	copy(pair[:], set)
	return pair
}

func memberFields(members []histogram.FieldValue) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Field
	}
	return out
}
