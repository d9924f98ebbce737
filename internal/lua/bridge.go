package lua

import (
	"iter"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/luaseri/internal/value"
)

// FromLua converts a Lua value into a value.Value.
//
// Tables are wrapped, not copied: entries are read with LTable.Next while
// the encoder walks them, in the table's native iteration order. A table
// that appears inside itself yields an Unsupported "cyclic table" value at
// the point of recursion.
func FromLua(lv lua.LValue) value.Value {
	return fromLua(lv, nil)
}

// ancestors is the chain of tables enclosing the one being converted.
type ancestors struct {
	t      *lua.LTable
	parent *ancestors
}

func (a *ancestors) contains(t *lua.LTable) bool {
	for ; a != nil; a = a.parent {
		if a.t == t {
			return true
		}
	}
	return false
}

func fromLua(lv lua.LValue, chain *ancestors) value.Value {
	if lv == nil {
		return value.Unsupported("nil")
	}

	switch v := lv.(type) {
	case lua.LNumber:
		return value.Number(float64(v))
	case lua.LString:
		return value.Text(string(v))
	case *lua.LTable:
		if chain.contains(v) {
			return value.Unsupported("cyclic table")
		}
		return value.Of(&table{t: v, chain: &ancestors{t: v, parent: chain}})
	default:
		// nil, boolean, function, userdata, thread, channel
		return value.Unsupported(lv.Type().String())
	}
}

func keyFromLua(lv lua.LValue) value.Key {
	switch k := lv.(type) {
	case lua.LNumber:
		return value.NumericKey(float64(k))
	case lua.LString:
		return value.TextKey(string(k))
	default:
		return value.InvalidKey(lv.Type().String())
	}
}

// table adapts a Lua table to value.Composite.
type table struct {
	t     *lua.LTable
	chain *ancestors
}

// All walks the table the way lua_next does: array part first, then the
// hash part.
func (tb *table) All() iter.Seq2[value.Key, value.Value] {
	return func(yield func(value.Key, value.Value) bool) {
		k, v := tb.t.Next(lua.LNil)
		for k != lua.LNil {
			if !yield(keyFromLua(k), fromLua(v, tb.chain)) {
				return
			}
			k, v = tb.t.Next(k)
		}
	}
}
