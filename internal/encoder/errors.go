package encoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/luaseri/internal/value"
)

// Encoding errors.
var (
	// ErrTypeViolation indicates a value or key outside the encodable set:
	// a non-composite top level, a key that is neither numeric nor text, or
	// a value that is not a number, text or composite.
	ErrTypeViolation = errors.New("type violation")

	// ErrDepthExceeded indicates nesting deeper than the configured maximum.
	ErrDepthExceeded = errors.New("maximum nesting depth exceeded")
)

// TypeError reports where a type violation occurred.
type TypeError struct {
	Path   string // Dotted path to the offending entry, empty at top level
	Got    string // Shape that was found
	Reason string // What was expected
	Err    error  // Underlying cause, if any
}

func newTypeError(path []value.Key, got, reason string, cause error) *TypeError {
	return &TypeError{
		Path:   FormatPath(path),
		Got:    got,
		Reason: reason,
		Err:    cause,
	}
}

func (e *TypeError) Error() string {
	if e == nil {
		return ""
	}

	where := e.Path
	if where == "" {
		where = "top level"
	}

	msg := fmt.Sprintf("%v at %s: %s (got %s)", ErrTypeViolation, where, e.Reason, e.Got)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TypeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrTypeViolation as well as the wrapped cause.
func (e *TypeError) Is(target error) bool {
	if e == nil {
		return false
	}
	if target == ErrTypeViolation {
		return true
	}
	if t, ok := target.(*TypeError); ok {
		return e == t
	}
	return errors.Is(e.Err, target)
}

// FormatPath renders a key path the way errors display it, for example
// `servers[2].name`.
func FormatPath(path []value.Key) string {
	var sb strings.Builder
	for i, k := range path {
		if k.Kind() == value.KeyText && i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(k.String())
	}
	return sb.String()
}
