// Package echoes implements the consequence-echo slot and the
// persisted cross-character echo and gift queues.
package echoes

import (
	"encoding/json"

	"github.com/AbdusM/lux-story/types"
)

// Slot is the single shared echo holder threaded through the
// derivative pipeline. The first processor to set it wins; every
// write is test-and-set, never an overwrite.
type Slot struct {
	echo   *types.Echo
	source string
}

// TrySet claims the slot. It returns false if another processor
// already claimed it this turn.
func (s *Slot) TrySet(source string, e types.Echo) bool {
	if s.echo != nil {
		return false
	}
	copied := e
	s.echo = &copied
	s.source = source
	return true
}

// Filled reports whether the slot has been claimed.
func (s *Slot) Filled() bool {
	return s.echo != nil
}

// Echo returns the claimed echo and the processor that claimed it,
// or nil if the turn produced no echo.
func (s *Slot) Echo() (*types.Echo, string) {
	return s.echo, s.source
}

// Queue is the persisted cross-character echo mailbox, oldest first.
type Queue []types.QueuedEcho

// QueueForFlag appends an entry keyed by its triggering flag.
// Scheduling is idempotent per flag+target pair: re-observing the same
// flag never duplicates an entry.
func QueueForFlag(q Queue, entry types.QueuedEcho) Queue {
	for _, e := range q {
		if e.Flag == entry.Flag && e.Target == entry.Target {
			return q
		}
	}
	return append(q, entry)
}

// PopOldest removes and returns the oldest entry for the character
// whose delay has elapsed and whose trust gate is satisfied. Delays
// are counted separately via Tick.
func PopOldest(q Queue, character string, trust int) (types.QueuedEcho, Queue, bool) {
	for i, e := range q {
		if e.Target == character && e.Delay <= 0 && trust >= e.MinTrust {
			rest := make(Queue, 0, len(q)-1)
			rest = append(rest, q[:i]...)
			rest = append(rest, q[i+1:]...)
			return e, rest, true
		}
	}
	return types.QueuedEcho{}, q, false
}

// Tick counts one qualifying interaction with the character against
// the delay of every pending entry targeting them. Callers pop first
// and tick after, so a delay of 1 skips exactly one interaction.
func Tick(q Queue, character string) Queue {
	out := make(Queue, len(q))
	copy(out, q)
	for i := range out {
		if out[i].Target == character && out[i].Delay > 0 {
			out[i].Delay--
		}
	}
	return out
}

// Gifts is the persisted delayed-gift mailbox, oldest first.
type Gifts []types.DelayedGift

// AddGift appends a gift, idempotent per source+target+item.
func AddGift(g Gifts, gift types.DelayedGift) Gifts {
	for _, e := range g {
		if e.Source == gift.Source && e.Target == gift.Target && e.Item == gift.Item {
			return g
		}
	}
	return append(g, gift)
}

// PopGift removes and returns the oldest gift addressed to the
// character. Each gift is consumed exactly once.
func PopGift(g Gifts, character string) (types.DelayedGift, Gifts, bool) {
	for i, gift := range g {
		if gift.Target == character {
			rest := make(Gifts, 0, len(g)-1)
			rest = append(rest, g[:i]...)
			rest = append(rest, g[i+1:]...)
			return gift, rest, true
		}
	}
	return types.DelayedGift{}, g, false
}

// DecodeQueue deserializes a persisted queue. Nil or corrupt input
// degrades to an empty queue: storage trouble never blocks a turn.
func DecodeQueue(data []byte) Queue {
	if len(data) == 0 {
		return Queue{}
	}
	var q Queue
	if err := json.Unmarshal(data, &q); err != nil {
		return Queue{}
	}
	return q
}

// EncodeQueue serializes a queue for the snapshot store.
func EncodeQueue(q Queue) []byte {
	data, err := json.Marshal(q)
	if err != nil {
		return []byte("[]")
	}
	return data
}

// DecodeGifts deserializes a persisted gift list, degrading to empty.
func DecodeGifts(data []byte) Gifts {
	if len(data) == 0 {
		return Gifts{}
	}
	var g Gifts
	if err := json.Unmarshal(data, &g); err != nil {
		return Gifts{}
	}
	return g
}

// EncodeGifts serializes a gift list for the snapshot store.
func EncodeGifts(g Gifts) []byte {
	data, err := json.Marshal(g)
	if err != nil {
		return []byte("[]")
	}
	return data
}
