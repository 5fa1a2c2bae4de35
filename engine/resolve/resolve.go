// Package resolve implements the choice resolution core: applying a
// chosen option's direct consequences and moving the player to the
// target node.
package resolve

import (
	"errors"
	"log/slog"

	"github.com/AbdusM/lux-story/engine/graph"
	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/types"
)

// ErrCharacterUnknown marks a consequence referencing an unregistered
// character. Recoverable: the sub-effect is logged and skipped.
var ErrCharacterUnknown = errors.New("character not in state")

// Result is the output of applying a choice.
type Result struct {
	State      types.GameState
	Graph      *graph.Graph
	Node       types.Node
	TrustDelta int // trust delta actually applied this turn (post-skip)
}

// Apply resolves a choice against the current state. It applies, in
// order: the direct trust delta (clamped), pattern deltas, flag
// additions (global and character-scoped), then records the previous
// node into the target character's conversation history. A missing
// target node is fatal to the turn and surfaced to the caller; an
// unknown character in a consequence is logged and skipped.
func Apply(s types.GameState, choice types.Choice, reg *graph.Registry, log *slog.Logger) (Result, error) {
	g, node, err := reg.Enter(s.GraphID, choice.Next, s)
	if err != nil {
		log.Error("choice target unresolvable",
			"choice", choice.ID, "next", choice.Next, "graph", s.GraphID, "err", err)
		return Result{}, err
	}

	prevNode := s.NodeID
	next := s
	trustDelta := 0

	next, trustDelta = applyConsequence(next, choice.Consequence, log)
	if node.OnEnter != nil {
		var d int
		next, d = applyConsequence(next, node.OnEnter, log)
		trustDelta += d
	}

	next = state.WithHistory(next, g.Character, prevNode)
	next = state.WithPosition(next, g.ID, node.ID)
	next.Turn++

	return Result{State: next, Graph: g, Node: node, TrustDelta: trustDelta}, nil
}

// applyConsequence applies one consequence block, returning the new
// state and the trust delta that actually landed.
func applyConsequence(s types.GameState, c *types.Consequence, log *slog.Logger) (types.GameState, int) {
	if c == nil {
		return s, 0
	}
	applied := 0
	if c.TrustDelta != 0 || len(c.Knowledge) > 0 {
		if !state.HasCharacter(s, c.Character) {
			log.Warn("consequence references unknown character",
				"character", c.Character, "err", ErrCharacterUnknown)
		}
	}
	if c.TrustDelta != 0 && state.HasCharacter(s, c.Character) {
		before := state.Trust(s, c.Character)
		s = state.WithTrustDelta(s, c.Character, c.TrustDelta)
		applied = state.Trust(s, c.Character) - before
	}
	s = state.WithPatternDeltas(s, c.Patterns)
	s = state.WithPatternReset(s, c.PatternReset...)
	s = state.WithFlags(s, c.GlobalFlags...)
	if len(c.Knowledge) > 0 {
		s = state.WithKnowledge(s, c.Character, c.Knowledge...)
	}
	return s, applied
}
