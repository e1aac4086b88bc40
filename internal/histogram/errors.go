package histogram

import (
	"errors"
	"fmt"
)

// ErrUnknownField reports a field name that is not an axis of the table.
var ErrUnknownField = errors.New("unknown field")

// ErrUnknownValue reports a value never observed for a field. This is a
// lookup failure, distinct from a combination whose count is zero.
var ErrUnknownValue = errors.New("unknown value")

// MalformedRowError indicates a row whose key set does not match the tracked
// fields (schema mismatch). It aborts a build; a present-but-empty value does
// not (that row is simply excluded from the count).
type MalformedRowError struct {
	Row   int
	Field string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("row %d: required field %q absent", e.Row, e.Field)
}
