// Package loader reads authored dialogue content from Lua files,
// compiles it into immutable dialogue graphs, and validates the result
// (including cross-graph choice targets) before play starts. The Lua
// VM is sandboxed and discarded after loading.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/AbdusM/lux-story/engine/graph"
	"github.com/AbdusM/lux-story/world"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	graphs []rawGraph
	nodes  []rawNode
}

type rawGraph struct {
	id    string
	table *lua.LTable
}

type rawNode struct {
	graphID string
	id      string
	table   *lua.LTable
}

// Load reads all .lua files from dir, compiles them into dialogue
// graphs, validates references against each other and the world
// registry, and returns the populated graph registry.
func Load(dir string, w *world.World) (*graph.Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	sort.Strings(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	reg, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling dialogue content: %w", err)
	}

	warnings, err := validate(reg, w)
	if err != nil {
		return nil, err
	}
	for _, msg := range warnings {
		fmt.Fprintf(os.Stderr, "content warning: %s\n", msg)
	}
	return reg, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals so authored content cannot touch
// the filesystem or inject nondeterminism.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
	// Remove math.random / math.randomseed entirely: all gameplay
	// randomness routes through the engine's seeded RNG.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("random", lua.LNil)
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
