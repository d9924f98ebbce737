package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/luaseri/internal/encoder"
)

// ModuleName is the name scripts pass to require.
const ModuleName = "luaseri"

// Loader returns a module loader exposing serialize backed by enc.
// A nil enc uses the encoder defaults.
func Loader(enc *encoder.Encoder) lua.LGFunction {
	if enc == nil {
		enc = encoder.New()
	}
	return func(L *lua.LState) int {
		L.Push(NewModule(L, enc))
		return 1
	}
}

// NewModule builds the module table.
func NewModule(L *lua.LState, enc *encoder.Encoder) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"serialize": serializeFunc(enc),
	})
}

// Preload registers the module so require("luaseri") finds it.
func Preload(L *lua.LState, enc *encoder.Encoder) {
	L.PreloadModule(ModuleName, Loader(enc))
}

// serializeFunc implements luaseri.serialize(t).
// It takes exactly one table argument and returns the encoded string;
// encoding failures are raised as Lua errors.
func serializeFunc(enc *encoder.Encoder) lua.LGFunction {
	return func(L *lua.LState) int {
		t := L.CheckTable(1)
		if L.GetTop() > 1 {
			L.ArgError(2, "serialize takes exactly one argument")
			return 0
		}

		out, err := enc.Encode(FromLua(t))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}

		L.Push(lua.LString(out))
		return 1
	}
}
