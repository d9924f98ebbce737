// Package value defines the dynamically-typed tree consumed by the encoder.
//
// A Value is a number, a text string, or a Composite of key/value entries.
// Host structures (Lua tables, JSON documents, Go maps and slices) are
// converted into this shape by adapters; the encoder never looks at host
// types directly.
//
// Shapes that cannot be encoded (booleans, nil, functions, cycles) are kept
// as Unsupported values or invalid keys so the encoder can report them with
// their position instead of silently dropping them.
package value

import (
	"fmt"
	"iter"
	"reflect"
	"strconv"
)

// Kind identifies the shape of a Value.
type Kind uint8

// Value kinds.
const (
	KindUnsupported Kind = iota
	KindNumber
	KindText
	KindComposite
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindComposite:
		return "composite"
	default:
		return "unsupported"
	}
}

// Composite is an iterable container of entries.
// All yields entries in the container's native order.
type Composite interface {
	All() iter.Seq2[Key, Value]
}

// Value is a tagged union over number, text and composite.
// The zero Value is Unsupported.
type Value struct {
	kind Kind
	num  float64
	text string // text payload, or the host type name when unsupported
	comp Composite
}

// Number returns a numeric Value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Text returns a text Value. s is treated as raw bytes.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Of returns a composite Value. A nil Composite, including a typed nil
// such as (*Table)(nil), yields Unsupported.
func Of(c Composite) Value {
	if isNil(c) {
		return Unsupported("nil composite")
	}
	return Value{kind: KindComposite, comp: c}
}

func isNil(c Composite) bool {
	if c == nil {
		return true
	}
	rv := reflect.ValueOf(c)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Unsupported returns a Value that records a host shape the encoder rejects.
func Unsupported(typeName string) Value {
	return Value{kind: KindUnsupported, text: typeName}
}

// Kind returns the shape of v.
func (v Value) Kind() Kind { return v.kind }

// Number returns the numeric payload and whether v is a number.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Text returns the text payload and whether v is text.
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Composite returns the container and whether v is composite.
func (v Value) Composite() (Composite, bool) {
	return v.comp, v.kind == KindComposite
}

// TypeName describes v for error messages.
func (v Value) TypeName() string {
	if v.kind == KindUnsupported {
		if v.text == "" {
			return "invalid"
		}
		return v.text
	}
	return v.kind.String()
}

// String implements fmt.Stringer for debugging output.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.text)
	case KindComposite:
		return "composite"
	default:
		return fmt.Sprintf("<%s>", v.TypeName())
	}
}

// KeyKind identifies the shape of a Key.
type KeyKind uint8

// Key kinds. KeyInvalid is the zero value.
const (
	KeyInvalid KeyKind = iota
	KeyNumeric
	KeyText
)

// Key names an entry inside a Composite.
type Key struct {
	kind KeyKind
	num  float64
	text string // key text, or the host type name when invalid
}

// NumericKey returns a positional key.
func NumericKey(n float64) Key {
	return Key{kind: KeyNumeric, num: n}
}

// TextKey returns a named key.
func TextKey(s string) Key {
	return Key{kind: KeyText, text: s}
}

// InvalidKey returns a key recording a host key shape the encoder rejects.
func InvalidKey(typeName string) Key {
	return Key{kind: KeyInvalid, text: typeName}
}

// Kind returns the shape of k.
func (k Key) Kind() KeyKind { return k.kind }

// Number returns the numeric payload and whether k is numeric.
func (k Key) Number() (float64, bool) {
	return k.num, k.kind == KeyNumeric
}

// Text returns the text payload and whether k is textual.
func (k Key) Text() (string, bool) {
	if k.kind != KeyText {
		return "", false
	}
	return k.text, true
}

// TypeName describes k for error messages.
func (k Key) TypeName() string {
	switch k.kind {
	case KeyNumeric:
		return "number"
	case KeyText:
		return "text"
	default:
		if k.text == "" {
			return "invalid"
		}
		return k.text
	}
}

// String renders k for error paths: text keys as-is, numbers in brackets.
func (k Key) String() string {
	switch k.kind {
	case KeyNumeric:
		return "[" + strconv.FormatFloat(k.num, 'g', -1, 64) + "]"
	case KeyText:
		return k.text
	default:
		return "<" + k.TypeName() + ">"
	}
}
