package pipeline

import (
	"strings"

	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/types"
)

// synthesis auto-completes a puzzle once the player holds its entire
// required knowledge set. Holding at least half of the set triggers a
// one-time hint instead. Completed puzzles are permanently marked in
// the snapshot store and never re-evaluated.
type synthesis struct{}

func (synthesis) Name() string { return "synthesis" }

func (synthesis) Run(tc *Context) {
	completed := tc.StringSet(KeyPuzzles)
	hints := tc.StringSet(KeyHints)
	completedChanged := false
	hintsChanged := false

	for _, p := range tc.World.Puzzles {
		if completed[p.ID] {
			continue
		}
		held := 0
		for _, req := range p.Requires {
			if holdsKnowledge(tc.State, req) {
				held++
			}
		}
		switch {
		case held == len(p.Requires):
			// Completion is permanent whether or not the echo slot
			// is still free this turn.
			completed[p.ID] = true
			completedChanged = true
			if p.GrantsFlag != "" {
				tc.State = state.WithFlags(tc.State, p.GrantsFlag)
			}
			if p.EchoText != "" {
				tc.Slot.TrySet("synthesis", types.Echo{Text: p.EchoText, Emotion: "revelation"})
			}
			tc.Log.Info("synthesis puzzle completed", "puzzle", p.ID)

		case held*2 >= len(p.Requires) && !hints[p.ID] && p.Hint != "":
			// The hint is only marked shown if it actually surfaced,
			// so a turn whose echo was claimed elsewhere retries later.
			if tc.Slot.TrySet("synthesis", types.Echo{Text: p.Hint, Emotion: "thoughtful", Deferred: true}) {
				hints[p.ID] = true
				hintsChanged = true
			}
		}
	}

	if completedChanged {
		tc.WriteStringSet(KeyPuzzles, completed)
	}
	if hintsChanged {
		tc.WriteStringSet(KeyHints, hints)
	}
}

// holdsKnowledge resolves a puzzle requirement: "character:flag" is
// character-scoped knowledge, anything else a global flag.
func holdsKnowledge(s types.GameState, req string) bool {
	if character, flag, ok := strings.Cut(req, ":"); ok {
		return state.Knows(s, character, flag)
	}
	return s.Flags[req]
}
