package pipeline

import (
	"github.com/AbdusM/lux-story/engine/echoes"
	"github.com/AbdusM/lux-story/engine/state"
)

// crossEcho delivers the oldest qualifying entry from the persisted
// cross-character echo queue to the character just interacted with.
// Entries whose delay has not elapsed or whose trust gate is unmet
// stay queued; every interaction with the target counts one tick of
// delay whether or not anything was delivered.
type crossEcho struct{}

func (crossEcho) Name() string { return "cross_echo" }

func (crossEcho) Run(tc *Context) {
	q := echoes.DecodeQueue(tc.Snapshot(KeyEchoQueue))
	if len(q) == 0 {
		return
	}
	trust := state.Trust(tc.State, tc.Character)

	if !tc.Slot.Filled() {
		if entry, rest, ok := echoes.PopOldest(q, tc.Character, trust); ok {
			tc.Slot.TrySet("cross_echo", entry.Echo)
			tc.Log.Debug("cross-character echo delivered",
				"source", entry.Source, "target", entry.Target, "flag", entry.Flag)
			q = rest
		}
	}

	q = echoes.Tick(q, tc.Character)
	tc.Write(KeyEchoQueue, echoes.EncodeQueue(q))
}
