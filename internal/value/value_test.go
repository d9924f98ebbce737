package value

import (
	"iter"
	"testing"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, v Value) []string {
	t.Helper()
	c, ok := v.Composite()
	require.True(t, ok, "expected composite, got %s", v.TypeName())
	var out []string
	for k, val := range c.All() {
		out = append(out, k.String()+"="+val.String())
	}
	return out
}

func TestValueAccessors(t *testing.T) {
	n := Number(2.5)
	f, ok := n.Number()
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)
	_, ok = n.Text()
	assert.False(t, ok)
	assert.Equal(t, KindNumber, n.Kind())

	s := Text("hi")
	str, ok := s.Text()
	assert.True(t, ok)
	assert.Equal(t, "hi", str)
	assert.Equal(t, `"hi"`, s.String())

	var zero Value
	assert.Equal(t, KindUnsupported, zero.Kind())
	assert.Equal(t, "invalid", zero.TypeName())

	u := Unsupported("boolean")
	assert.Equal(t, "boolean", u.TypeName())
	assert.Equal(t, "<boolean>", u.String())

	assert.Equal(t, KindUnsupported, Of(nil).Kind())
}

func TestKeyAccessors(t *testing.T) {
	k := NumericKey(3)
	n, ok := k.Number()
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)
	assert.Equal(t, "[3]", k.String())

	tk := TextKey("name")
	s, ok := tk.Text()
	assert.True(t, ok)
	assert.Equal(t, "name", s)
	assert.Equal(t, "name", tk.String())

	var zero Key
	assert.Equal(t, KeyInvalid, zero.Kind())
	assert.Equal(t, "<boolean>", InvalidKey("boolean").String())
}

func TestTableOrder(t *testing.T) {
	tbl := NewTable().
		Append(Number(10)).
		Append(Number(20)).
		SetText("name", Text("x"))

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"[1]=10", "[2]=20", `name="x"`}, collect(t, tbl.Value()))
}

func TestTableReplaceKeepsPosition(t *testing.T) {
	tbl := NewTable().
		SetText("a", Number(1)).
		SetText("b", Number(2)).
		SetText("a", Number(3))

	assert.Equal(t, []string{"a=3", "b=2"}, collect(t, tbl.Value()))

	v, ok := tbl.Get(TextKey("a"))
	require.True(t, ok)
	assert.Equal(t, Number(3), v)

	_, ok = tbl.Get(TextKey("missing"))
	assert.False(t, ok)
}

func TestTableAppendAfterExplicitKey(t *testing.T) {
	tbl := NewTable().
		Set(NumericKey(5), Number(1)).
		Append(Number(2))

	assert.Equal(t, []string{"[5]=1", "[6]=2"}, collect(t, tbl.Value()))
}

func TestTableZeroValueUsable(t *testing.T) {
	var tbl Table
	tbl.Append(Text("a"))
	assert.Equal(t, []string{`[1]="a"`}, collect(t, tbl.Value()))
}

func TestTableAllStopsEarly(t *testing.T) {
	tbl := NewTable().Append(Number(1)).Append(Number(2)).Append(Number(3))
	seen := 0
	for range tbl.All() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestFromGoScalars(t *testing.T) {
	assert.Equal(t, Number(3), FromGo(3))
	assert.Equal(t, Number(3), FromGo(uint8(3)))
	assert.Equal(t, Number(1.5), FromGo(float32(1.5)))
	assert.Equal(t, Text("x"), FromGo("x"))
	assert.Equal(t, Text("raw"), FromGo([]byte("raw")))
	assert.Equal(t, KindUnsupported, FromGo(true).Kind())
	assert.Equal(t, KindUnsupported, FromGo(nil).Kind())
	assert.Equal(t, "func", FromGo(func() {}).TypeName())
}

func TestFromGoSlice(t *testing.T) {
	v := FromGo([]int{4, 5})
	assert.Equal(t, []string{"[1]=4", "[2]=5"}, collect(t, v))
}

func TestFromGoMapSorted(t *testing.T) {
	v := FromGo(map[string]any{"b": 2, "a": "one", "c": []any{1.5}})
	got := collect(t, v)
	assert.Equal(t, []string{`a="one"`, "b=2", "c=composite"}, got)

	mixed := FromGo(map[any]any{"z": 1, 2: "two", 1: "one"})
	assert.Equal(t, []string{`[1]="one"`, `[2]="two"`, "z=1"}, collect(t, mixed))
}

func TestFromGoMapInvalidKey(t *testing.T) {
	v := FromGo(map[bool]int{true: 1})
	c, _ := v.Composite()
	for k := range c.All() {
		assert.Equal(t, KeyInvalid, k.Kind())
		assert.Equal(t, "bool", k.TypeName())
	}
}

func TestFromGoOrderedMap(t *testing.T) {
	m := orderedmap.NewOrderedMap[string, any]()
	m.Set("zeta", 1)
	m.Set("alpha", 2)
	m.Set("mid", "m")

	assert.Equal(t, []string{"zeta=1", "alpha=2", `mid="m"`}, collect(t, FromGo(m)))
}

func TestFromGoStruct(t *testing.T) {
	type point struct {
		X      int    `json:"x"`
		Y      int    `json:"y,omitempty"`
		Label  string
		Hidden string `json:"-"`
		secret int
	}

	v := FromGo(point{X: 1, Y: 2, Label: "p", Hidden: "h", secret: 9})
	assert.Equal(t, []string{"x=1", "y=2", `Label="p"`}, collect(t, v))
}

func TestFromGoCycle(t *testing.T) {
	m := map[string]any{}
	m["self"] = m

	v := FromGo(m)
	c, ok := v.Composite()
	require.True(t, ok)
	for _, val := range c.All() {
		assert.Equal(t, "cycle", val.TypeName())
	}
}

func TestFromGoPassThrough(t *testing.T) {
	tbl := NewTable().Append(Number(1))
	assert.Equal(t, Of(tbl), FromGo(tbl))
	assert.Equal(t, Number(7), FromGo(Number(7)))
}

// entryList is a Composite backed by a slice.
type entryList []Value

func (l entryList) All() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		for i, v := range l {
			if !yield(NumericKey(float64(i+1)), v) {
				return
			}
		}
	}
}

func TestOfTypedNil(t *testing.T) {
	var tbl *Table
	var list entryList

	tests := []struct {
		name string
		got  Value
	}{
		{"untyped nil", Of(nil)},
		{"nil table", Of(tbl)},
		{"nil slice composite", Of(list)},
		{"FromGo nil table", FromGo(tbl)},
		{"FromGo nil composite", FromGo(Composite(list))},
		{"nil table method", tbl.Value()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, KindUnsupported, tt.got.Kind())
			_, ok := tt.got.Composite()
			assert.False(t, ok)
		})
	}

	// An empty but non-nil composite is still a composite.
	assert.Equal(t, KindComposite, Of(entryList{}).Kind())
}
