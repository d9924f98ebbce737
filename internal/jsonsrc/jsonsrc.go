// Package jsonsrc exposes JSON documents as encoder values.
//
// Objects keep their document order, which encoding/json maps would lose.
// Arrays get positional keys starting at 1. A repeated object key keeps its
// last value, so every key reaches the encoder once. JSON true, false and null have
// no counterpart in the value model and are surfaced as Unsupported so the
// encoder rejects them with their path.
package jsonsrc

import (
	"errors"
	"iter"

	"github.com/tidwall/gjson"

	"github.com/dshills/luaseri/internal/value"
)

// ErrInvalidJSON is returned for malformed input.
var ErrInvalidJSON = errors.New("invalid JSON")

// Parse validates data and returns it as a Value.
// The document is not copied; the Value reads from data lazily, so data
// must not be modified while the Value is in use.
func Parse(data []byte) (value.Value, error) {
	if !gjson.ValidBytes(data) {
		return value.Value{}, ErrInvalidJSON
	}
	return FromResult(gjson.ParseBytes(data)), nil
}

// ParseString is Parse for string input.
func ParseString(s string) (value.Value, error) {
	if !gjson.Valid(s) {
		return value.Value{}, ErrInvalidJSON
	}
	return FromResult(gjson.Parse(s)), nil
}

// FromResult converts an already parsed gjson result.
func FromResult(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Number:
		return value.Number(r.Num)
	case gjson.String:
		return value.Text(r.Str)
	case gjson.JSON:
		if r.IsArray() || r.IsObject() {
			return value.Of(container{r: r})
		}
		return value.Unsupported("json")
	case gjson.True, gjson.False:
		return value.Unsupported("boolean")
	default:
		return value.Unsupported("null")
	}
}

// container adapts a JSON object or array to value.Composite.
type container struct {
	r gjson.Result
}

// All yields array elements under keys 1..n and object members in
// document order. A key repeated within one object is yielded once, with
// its last value, at the position of its last occurrence.
func (c container) All() iter.Seq2[value.Key, value.Value] {
	if c.r.IsArray() {
		return c.elements()
	}
	return c.members()
}

func (c container) elements() iter.Seq2[value.Key, value.Value] {
	return func(yield func(value.Key, value.Value) bool) {
		i := 0
		c.r.ForEach(func(_, v gjson.Result) bool {
			i++
			return yield(value.NumericKey(float64(i)), FromResult(v))
		})
	}
}

func (c container) members() iter.Seq2[value.Key, value.Value] {
	return func(yield func(value.Key, value.Value) bool) {
		remaining := c.duplicates()
		c.r.ForEach(func(k, v gjson.Result) bool {
			if remaining != nil {
				remaining[k.Str]--
				if remaining[k.Str] > 0 {
					return true
				}
			}
			return yield(value.TextKey(k.Str), FromResult(v))
		})
	}
}

// duplicates counts the occurrences of each member name. It returns nil
// when every name is distinct.
func (c container) duplicates() map[string]int {
	counts := make(map[string]int)
	repeated := false
	c.r.ForEach(func(k, _ gjson.Result) bool {
		counts[k.Str]++
		if counts[k.Str] > 1 {
			repeated = true
		}
		return true
	})
	if !repeated {
		return nil
	}
	return counts
}
