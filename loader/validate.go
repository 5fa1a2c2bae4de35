package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AbdusM/lux-story/engine/graph"
	"github.com/AbdusM/lux-story/types"
	"github.com/AbdusM/lux-story/world"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("content validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Known condition types.
var validConditionTypes = map[string]bool{
	"trust_range": true,
	"pattern_min": true,
	"flag_set":    true,
	"flag_not":    true,
	"knows":       true,
	"knows_not":   true,
	"not":         true,
}

// validate checks the compiled graphs for referential integrity:
// start nodes, cross-graph choice targets, default content variants,
// condition vocabularies, and character references against the world
// registry. Authoring defects are reported together rather than one
// at a time. Warnings are non-fatal authoring smells, returned for the
// caller to surface.
func validate(reg *graph.Registry, w *world.World) ([]string, error) {
	ve := &ValidationError{}
	addErr := func(format string, args ...any) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(format, args...))
	}

	ids := reg.IDs()
	sort.Strings(ids)

	knownChar := func(id string) bool {
		if w == nil {
			return true
		}
		_, ok := w.Character(id)
		return ok
	}
	knownTopic := func(id string) bool {
		if w == nil {
			return true
		}
		for _, t := range w.Topics {
			if t.ID == id {
				return true
			}
		}
		return false
	}

	for _, gid := range ids {
		g, _ := reg.Graph(gid)

		if g.Character == "" {
			addErr("graph %q declares no character", gid)
		} else if !knownChar(g.Character) {
			addErr("graph %q belongs to unknown character %q", gid, g.Character)
		}
		if g.Start == "" {
			addErr("graph %q declares no start node", gid)
		} else if _, ok := g.Nodes[g.Start]; !ok {
			addErr("graph %q start node %q not defined", gid, g.Start)
		}

		nodeIDs := make([]string, 0, len(g.Nodes))
		for id := range g.Nodes {
			nodeIDs = append(nodeIDs, id)
		}
		sort.Strings(nodeIDs)

		for _, nid := range nodeIDs {
			node := g.Nodes[nid]
			validateNode(g, node, reg, ve, knownChar, knownTopic)
		}
	}

	if len(ve.Errors) > 0 {
		return ve.Warnings, ve
	}
	return ve.Warnings, nil
}

func validateNode(g *graph.Graph, node types.Node, reg *graph.Registry, ve *ValidationError,
	knownChar, knownTopic func(string) bool) {

	where := fmt.Sprintf("graph %q node %q", g.ID, node.ID)
	addErr := func(format string, args ...any) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(format, args...))
	}
	addWarn := func(format string, args ...any) {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(format, args...))
	}

	// Every node needs an unconditional default variant as its final
	// entry; anything else is a content defect we refuse to load.
	if len(node.Variants) == 0 {
		addErr("%s has no content variants", where)
	} else if len(node.Variants[len(node.Variants)-1].When) > 0 {
		addErr("%s: final variant carries a condition, no unconditional default", where)
	}

	validateConditions(node.Requires, where+" requires", ve)
	for i, v := range node.Variants {
		validateConditions(v.When, fmt.Sprintf("%s variant %d", where, i+1), ve)
	}
	validateConsequence(node.OnEnter, where+" on_enter", ve, knownChar)

	for _, tag := range node.Tags {
		if topic, ok := strings.CutPrefix(tag, "topic:"); ok && !knownTopic(topic) {
			addWarn("%s mentions unregistered topic %q", where, topic)
		}
	}

	for _, ch := range node.Choices {
		cwhere := fmt.Sprintf("%s choice %q", where, ch.ID)
		if ch.Next == "" {
			addErr("%s has no target node", cwhere)
		} else if _, _, err := reg.Resolve(g.ID, ch.Next); err != nil {
			addErr("%s targets unresolvable node %q", cwhere, ch.Next)
		}
		validateConditions(ch.VisibleWhen, cwhere+" visible", ve)
		validateConditions(ch.EnabledWhen, cwhere+" enabled", ve)
		validateConsequence(ch.Consequence, cwhere, ve, knownChar)
	}
}

func validateConditions(conds []types.Condition, where string, ve *ValidationError) {
	for _, c := range conds {
		if !validConditionTypes[c.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: unknown condition type %q", where, c.Type))
		}
		if c.Inner != nil {
			validateConditions([]types.Condition{*c.Inner}, where, ve)
		}
	}
}

func validateConsequence(c *types.Consequence, where string, ve *ValidationError, knownChar func(string) bool) {
	if c == nil {
		return
	}
	if (c.TrustDelta != 0 || len(c.Knowledge) > 0) && !knownChar(c.Character) {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: consequence references unknown character %q", where, c.Character))
	}
}
