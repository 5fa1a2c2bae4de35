package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the Lua constructors and condition helpers as
// globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Graph "id" { character = "...", start = "..." } — curried:
	// Graph("id") returns a function that takes the table.
	L.SetGlobal("Graph", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.graphs = append(coll.graphs, rawGraph{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Node("graph_id", "node_id") { ... } — curried like Graph.
	L.SetGlobal("Node", L.NewFunction(func(L *lua.LState) int {
		graphID := L.CheckString(1)
		id := L.CheckString(2)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.nodes = append(coll.nodes, rawNode{graphID: graphID, id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	registerConditionHelpers(L)
}

func condTable(L *lua.LState, condType string, fields map[string]lua.LValue) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(condType))
	for k, v := range fields {
		tbl.RawSetString(k, v)
	}
	return tbl
}

func registerConditionHelpers(L *lua.LState) {
	// TrustAtLeast("maya", 3)
	L.SetGlobal("TrustAtLeast", L.NewFunction(func(L *lua.LState) int {
		character := L.CheckString(1)
		min := L.CheckInt(2)
		L.Push(condTable(L, "trust_range", map[string]lua.LValue{
			"character": lua.LString(character),
			"min":       lua.LNumber(min),
		}))
		return 1
	}))

	// TrustBelow("maya", 3) — trust strictly below the given value.
	L.SetGlobal("TrustBelow", L.NewFunction(func(L *lua.LState) int {
		character := L.CheckString(1)
		below := L.CheckInt(2)
		L.Push(condTable(L, "trust_range", map[string]lua.LValue{
			"character": lua.LString(character),
			"max":       lua.LNumber(below - 1),
		}))
		return 1
	}))

	// TrustBetween("maya", 2, 5) — inclusive range.
	L.SetGlobal("TrustBetween", L.NewFunction(func(L *lua.LState) int {
		character := L.CheckString(1)
		min := L.CheckInt(2)
		max := L.CheckInt(3)
		L.Push(condTable(L, "trust_range", map[string]lua.LValue{
			"character": lua.LString(character),
			"min":       lua.LNumber(min),
			"max":       lua.LNumber(max),
		}))
		return 1
	}))

	// PatternAtLeast("analytical", 4)
	L.SetGlobal("PatternAtLeast", L.NewFunction(func(L *lua.LState) int {
		pattern := L.CheckString(1)
		value := L.CheckInt(2)
		L.Push(condTable(L, "pattern_min", map[string]lua.LValue{
			"pattern": lua.LString(pattern),
			"value":   lua.LNumber(value),
		}))
		return 1
	}))

	// HasFlag("met_maya")
	L.SetGlobal("HasFlag", L.NewFunction(func(L *lua.LState) int {
		flag := L.CheckString(1)
		L.Push(condTable(L, "flag_set", map[string]lua.LValue{
			"flag": lua.LString(flag),
		}))
		return 1
	}))

	// NotFlag("met_maya")
	L.SetGlobal("NotFlag", L.NewFunction(func(L *lua.LState) int {
		flag := L.CheckString(1)
		L.Push(condTable(L, "flag_not", map[string]lua.LValue{
			"flag": lua.LString(flag),
		}))
		return 1
	}))

	// Knows("maya", "harbor_secret")
	L.SetGlobal("Knows", L.NewFunction(func(L *lua.LState) int {
		character := L.CheckString(1)
		flag := L.CheckString(2)
		L.Push(condTable(L, "knows", map[string]lua.LValue{
			"character": lua.LString(character),
			"flag":      lua.LString(flag),
		}))
		return 1
	}))

	// NotKnows("maya", "harbor_secret")
	L.SetGlobal("NotKnows", L.NewFunction(func(L *lua.LState) int {
		character := L.CheckString(1)
		flag := L.CheckString(2)
		L.Push(condTable(L, "knows_not", map[string]lua.LValue{
			"character": lua.LString(character),
			"flag":      lua.LString(flag),
		}))
		return 1
	}))

	// Not(cond) — wraps any condition table.
	L.SetGlobal("Not", L.NewFunction(func(L *lua.LState) int {
		inner := L.CheckTable(1)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("not"))
		tbl.RawSetString("inner", inner)
		L.Push(tbl)
		return 1
	}))
}
