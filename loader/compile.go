package loader

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/AbdusM/lux-story/engine/graph"
	"github.com/AbdusM/lux-story/types"
)

// compile turns the collected raw Lua tables into immutable graphs.
func compile(coll *collector) (*graph.Registry, error) {
	reg := graph.NewRegistry()
	graphs := map[string]*graph.Graph{}

	for _, rg := range coll.graphs {
		g := &graph.Graph{
			ID:        rg.id,
			Character: getString(rg.table, "character"),
			Start:     getString(rg.table, "start"),
			Nodes:     map[string]types.Node{},
		}
		if _, ok := graphs[rg.id]; ok {
			return nil, fmt.Errorf("duplicate graph %q", rg.id)
		}
		graphs[rg.id] = g
	}

	for _, rn := range coll.nodes {
		g, ok := graphs[rn.graphID]
		if !ok {
			return nil, fmt.Errorf("node %q references undefined graph %q", rn.id, rn.graphID)
		}
		if _, exists := g.Nodes[rn.id]; exists {
			return nil, fmt.Errorf("duplicate node %q in graph %q", rn.id, rn.graphID)
		}
		node, err := compileNode(rn, g.Character)
		if err != nil {
			return nil, err
		}
		g.Nodes[rn.id] = node
	}

	for _, g := range graphs {
		if err := reg.Add(g); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func compileNode(rn rawNode, graphCharacter string) (types.Node, error) {
	tbl := rn.table
	node := types.Node{
		ID:       rn.id,
		Speaker:  getString(tbl, "speaker"),
		Requires: compileConditions(tbl.RawGetString("requires")),
		Tags:     stringList(tbl.RawGetString("tags")),
		Trigger:  getString(tbl, "trigger"),
	}

	if v := tbl.RawGetString("on_enter"); v != lua.LNil {
		ce, err := compileConsequence(v, graphCharacter, rn.id)
		if err != nil {
			return types.Node{}, err
		}
		node.OnEnter = ce
	}

	variants, ok := tbl.RawGetString("variants").(*lua.LTable)
	if !ok {
		return types.Node{}, fmt.Errorf("node %q in graph %q has no variants", rn.id, rn.graphID)
	}
	for i := 1; i <= variants.Len(); i++ {
		vt, ok := variants.RawGetInt(i).(*lua.LTable)
		if !ok {
			return types.Node{}, fmt.Errorf("node %q variant %d is not a table", rn.id, i)
		}
		node.Variants = append(node.Variants, types.Variant{
			Text:    getString(vt, "text"),
			Emotion: getString(vt, "emotion"),
			When:    compileConditions(vt.RawGetString("when")),
		})
	}

	if choices, ok := tbl.RawGetString("choices").(*lua.LTable); ok {
		for i := 1; i <= choices.Len(); i++ {
			ct, ok := choices.RawGetInt(i).(*lua.LTable)
			if !ok {
				return types.Node{}, fmt.Errorf("node %q choice %d is not a table", rn.id, i)
			}
			choice, err := compileChoice(ct, graphCharacter, rn.id, i)
			if err != nil {
				return types.Node{}, err
			}
			node.Choices = append(node.Choices, choice)
		}
	}
	return node, nil
}

func compileChoice(tbl *lua.LTable, graphCharacter, nodeID string, index int) (types.Choice, error) {
	choice := types.Choice{
		ID:          getString(tbl, "id"),
		Text:        getString(tbl, "text"),
		Next:        getString(tbl, "next"),
		VisibleWhen: compileConditions(tbl.RawGetString("visible")),
		EnabledWhen: compileConditions(tbl.RawGetString("enabled")),
		Skills:      stringList(tbl.RawGetString("skills")),
	}
	if choice.ID == "" {
		choice.ID = fmt.Sprintf("%s.c%d", nodeID, index)
	}
	ce, err := compileConsequence(lua.LValue(tbl), graphCharacter, nodeID)
	if err != nil {
		return types.Choice{}, err
	}
	choice.Consequence = ce
	return choice, nil
}

// compileConsequence reads consequence fields (trust, patterns, flags,
// knowledge, pattern_reset) from a table. It returns nil when the
// table carries none of them.
func compileConsequence(lv lua.LValue, graphCharacter, nodeID string) (*types.Consequence, error) {
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return nil, nil
	}

	c := types.Consequence{Character: graphCharacter}
	present := false

	if trust, ok := tbl.RawGetString("trust").(*lua.LTable); ok {
		if ch := getString(trust, "character"); ch != "" {
			c.Character = ch
		}
		c.TrustDelta = getInt(trust, "delta")
		present = true
	}
	if patterns, ok := tbl.RawGetString("patterns").(*lua.LTable); ok {
		c.Patterns = intMap(patterns)
		present = present || len(c.Patterns) > 0
	}
	if flags := stringList(tbl.RawGetString("flags")); len(flags) > 0 {
		c.GlobalFlags = flags
		present = true
	}
	if knowledge := stringList(tbl.RawGetString("knowledge")); len(knowledge) > 0 {
		c.Knowledge = knowledge
		present = true
	}
	if resets := stringList(tbl.RawGetString("pattern_reset")); len(resets) > 0 {
		c.PatternReset = resets
		present = true
	}

	if !present {
		return nil, nil
	}
	if (c.TrustDelta != 0 || len(c.Knowledge) > 0) && c.Character == "" {
		return nil, fmt.Errorf("consequence on node %q needs a character", nodeID)
	}
	return &c, nil
}

// compileConditions converts a Lua list of condition tables. A missing
// or malformed list compiles to no conditions (always satisfied); the
// validator reports unknown condition types separately.
func compileConditions(lv lua.LValue) []types.Condition {
	list, ok := lv.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []types.Condition
	for i := 1; i <= list.Len(); i++ {
		ct, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		out = append(out, compileCondition(ct))
	}
	return out
}

func compileCondition(tbl *lua.LTable) types.Condition {
	cond := types.Condition{
		Type:   getString(tbl, "type"),
		Params: map[string]any{},
	}
	if inner, ok := tbl.RawGetString("inner").(*lua.LTable); ok {
		ic := compileCondition(inner)
		cond.Inner = &ic
	}
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok || string(key) == "type" || string(key) == "inner" {
			return
		}
		switch val := v.(type) {
		case lua.LString:
			cond.Params[string(key)] = string(val)
		case lua.LNumber:
			cond.Params[string(key)] = int(val)
		case lua.LBool:
			cond.Params[string(key)] = bool(val)
		}
	})
	return cond
}

func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func getInt(tbl *lua.LTable, key string) int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

func stringList(lv lua.LValue) []string {
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.Len(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

func intMap(tbl *lua.LTable) map[string]int {
	out := map[string]int{}
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		if n, ok := v.(lua.LNumber); ok {
			out[string(key)] = int(n)
		}
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
