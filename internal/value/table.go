package value

import "iter"

type entry struct {
	key Key
	val Value
}

// Table is an ordered, in-memory Composite.
// Entries iterate in first-insertion order. Table is not safe for
// concurrent mutation.
type Table struct {
	entries []entry
	index   map[Key]int
	next    float64 // next positional key used by Append
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{
		index: make(map[Key]int),
		next:  1,
	}
}

// Append stores v under the next positional key (1, 2, ...) and returns t.
func (t *Table) Append(v Value) *Table {
	t.init()
	t.Set(NumericKey(t.next), v)
	return t
}

func (t *Table) init() {
	if t.index == nil {
		t.index = make(map[Key]int)
		t.next = 1
	}
}

// Set stores v under k. Replacing an existing key keeps its position.
func (t *Table) Set(k Key, v Value) *Table {
	t.init()
	if i, ok := t.index[k]; ok {
		t.entries[i].val = v
		return t
	}
	t.index[k] = len(t.entries)
	t.entries = append(t.entries, entry{key: k, val: v})
	if n, ok := k.Number(); ok && n >= t.next && n == float64(int64(n)) {
		t.next = n + 1
	}
	return t
}

// SetText is shorthand for Set(TextKey(name), v).
func (t *Table) SetText(name string, v Value) *Table {
	return t.Set(TextKey(name), v)
}

// Get returns the value stored under k.
func (t *Table) Get(k Key) (Value, bool) {
	i, ok := t.index[k]
	if !ok {
		return Value{}, false
	}
	return t.entries[i].val, true
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// All yields entries in insertion order.
func (t *Table) All() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		for _, e := range t.entries {
			if !yield(e.key, e.val) {
				return
			}
		}
	}
}

// Value wraps t as a composite Value.
func (t *Table) Value() Value {
	return Of(t)
}
