// Package rules implements the state condition evaluator.
//
// Every function here is pure and total: malformed or missing condition
// fields evaluate to "not satisfied" rather than panicking, because
// conditions come from authored content and must never crash a session.
package rules

import (
	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/types"
)

// Eval evaluates a single condition against the current state.
// Unknown condition types evaluate to false.
func Eval(c types.Condition, s types.GameState) bool {
	switch c.Type {
	case "trust_range":
		character, ok := c.Params["character"].(string)
		if !ok || !state.HasCharacter(s, character) {
			return false
		}
		trust := state.Trust(s, character)
		min := types.TrustMin
		max := types.TrustMax
		if v, ok := c.Params["min"]; ok {
			min = toInt(v)
		}
		if v, ok := c.Params["max"]; ok {
			max = toInt(v)
		}
		return trust >= min && trust <= max

	case "pattern_min":
		pattern, ok := c.Params["pattern"].(string)
		if !ok {
			return false
		}
		return state.Pattern(s, pattern) >= toInt(c.Params["value"])

	case "flag_set":
		flag, _ := c.Params["flag"].(string)
		return s.Flags[flag]

	case "flag_not":
		flag, _ := c.Params["flag"].(string)
		return !s.Flags[flag]

	case "knows":
		character, _ := c.Params["character"].(string)
		flag, _ := c.Params["flag"].(string)
		return state.Knows(s, character, flag)

	case "knows_not":
		character, _ := c.Params["character"].(string)
		flag, _ := c.Params["flag"].(string)
		return !state.Knows(s, character, flag)

	case "not":
		if c.Inner == nil {
			return false
		}
		return !Eval(*c.Inner, s)

	default:
		return false
	}
}

// EvalAll returns true if all conditions pass (AND logic).
// An empty condition list is vacuously true: a node or choice that
// declares no condition is always visible and enabled.
func EvalAll(conditions []types.Condition, s types.GameState) bool {
	for _, c := range conditions {
		if !Eval(c, s) {
			return false
		}
	}
	return true
}

// Evaluate returns the visibility and enablement of a choice,
// independently. A choice can be shown but disabled to communicate
// narrative state without erasing it from view.
func Evaluate(ch types.Choice, s types.GameState) (visible, enabled bool) {
	visible = EvalAll(ch.VisibleWhen, s)
	if !visible {
		return false, false
	}
	return true, EvalAll(ch.EnabledWhen, s)
}

// toInt converts an any value to int, handling float64 from JSON/Lua.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case int64:
		return int(n)
	default:
		return 0
	}
}
