package pipeline

import (
	"fmt"

	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/types"
)

// knowledge detects flags newly gained this turn (global and
// character-scoped), matches them against the knowledge catalog, and
// separately notices when updated trust has just made a character
// willing to trade information.
type knowledge struct{}

func (knowledge) Name() string { return "knowledge" }

func (knowledge) Run(tc *Context) {
	discovered := tc.StringSet(KeyDiscovered)
	changed := false

	for _, item := range tc.World.Knowledge {
		key := item.Flag
		if item.Character != "" {
			key = item.Character + ":" + item.Flag
		}
		if discovered[key] {
			continue
		}
		if newlyGained(tc.Prev, tc.State, item.Character, item.Flag) {
			discovered[key] = true
			changed = true
			tc.Log.Debug("knowledge discovered", "item", key)
		}
	}
	if changed {
		tc.WriteStringSet(KeyDiscovered, discovered)
	}

	// Trade willingness: a trust threshold crossed this turn earns a
	// one-time notification echo.
	notified := tc.StringSet(KeyTrades)
	for _, c := range tc.World.Characters {
		if c.TradeMinTrust <= 0 || notified[c.ID] {
			continue
		}
		before := state.Trust(tc.Prev, c.ID)
		after := state.Trust(tc.State, c.ID)
		if before < c.TradeMinTrust && after >= c.TradeMinTrust {
			text := fmt.Sprintf("%s seems ready to trade what they know.", tc.World.Name(c.ID))
			if tc.Slot.TrySet("knowledge", types.Echo{Text: text, Emotion: "intrigued", Deferred: true}) {
				notified[c.ID] = true
				tc.WriteStringSet(KeyTrades, notified)
			}
		}
	}
}

// newlyGained reports whether the flag is held now but was not held
// before this turn's choice.
func newlyGained(prev, cur types.GameState, character, flag string) bool {
	if character == "" {
		return cur.Flags[flag] && !prev.Flags[flag]
	}
	return state.Knows(cur, character, flag) && !state.Knows(prev, character, flag)
}
