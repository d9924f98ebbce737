// Package lua connects the encoder to the gopher-lua runtime.
//
// # Conversion
//
// FromLua wraps a Lua table as a value.Composite without copying it. Keys
// and values are read lazily with LTable.Next, so the encoder sees entries
// in the same order lua_next would produce them. Numbers and strings map to
// their value counterparts; booleans, functions, userdata and cyclic
// references become Unsupported values that the encoder rejects.
//
//	out, err := encoder.Encode(lua.FromLua(tbl))
//
// # Module
//
// Preload registers a module exposing serialize to scripts:
//
//	local seri = require("luaseri")
//	print(seri.serialize({1, 2, name = "x"}))
//
// serialize takes exactly one table; anything else raises a Lua error.
//
// # State
//
// State is a sandboxed LState used to evaluate data scripts. Only the base,
// package, table, string and math libraries are opened, file loaders are
// removed, and each evaluation runs under a timeout:
//
//	state := lua.NewState(lua.WithExecutionTimeout(2 * time.Second))
//	defer state.Close()
//
//	out, err := state.Serialize(ctx, "config.lua", f)
//
// A script either returns its table or assigns it to the global data.
package lua
