// Package pipeline runs the derivative processors: the fixed, ordered
// sequence of independent narrative subsystems that react to a
// resolved choice. Each processor reads the evolving post-choice state
// and may mutate it further, claim the turn's single consequence-echo
// slot, and buffer writes to the snapshot store.
//
// The order is a correctness contract, not an optimization: several
// processors express "only do X if nothing else already claimed the
// turn's echo", so reordering changes which subsystem wins the
// player-visible aside. Order is the named constant enforced by test.
package pipeline

import (
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/AbdusM/lux-story/engine/echoes"
	"github.com/AbdusM/lux-story/types"
	"github.com/AbdusM/lux-story/world"
)

// Order is the fixed processor execution order.
var Order = []string{
	"arc_progress",
	"synthesis",
	"knowledge",
	"cross_echo",
	"tier2",
	"iceberg",
	"gift_delivery",
	"arc_reward",
	"gossip",
}

// Snapshot store keys read once at the start of every turn.
const (
	KeyPuzzles    = "puzzles_completed"
	KeyHints      = "hints_shown"
	KeyTrades     = "trades_notified"
	KeyDiscovered = "knowledge_discovered"
	KeyComments   = "comments_shown"
	KeyEchoQueue  = "echo_queue"
	KeyGifts      = "gifts"
)

// SnapshotKeys lists every key the orchestrator reads per turn.
var SnapshotKeys = []string{
	KeyPuzzles, KeyHints, KeyTrades, KeyDiscovered,
	KeyComments, KeyEchoQueue, KeyGifts,
}

// RNG is the deterministic random source processors may draw from.
type RNG interface {
	Intn(n int) int
	WeightedSelect(weights []int) int
}

// Context is the per-turn working set threaded through the processors.
type Context struct {
	World *world.World
	RNG   RNG
	Log   *slog.Logger

	// Character is the character the player just interacted with.
	Character string
	Choice    types.Choice
	Node      types.Node
	// TrustDelta is the trust change that actually landed this turn.
	TrustDelta int

	// Prev is the state before the choice was applied; State is the
	// evolving post-choice state each processor reads and replaces.
	Prev  types.GameState
	State types.GameState

	// Slot is the one-slot echo holder. Test-and-set only.
	Slot *echoes.Slot

	// Pipeline extras surfaced in the UI patch.
	Gift         *types.DelayedGift
	Reward       *types.ArcReward
	Achievements []string

	snapshot map[string][]byte
	writes   map[string][]byte
}

// NewContext builds a turn context around a read-once snapshot.
func NewContext(w *world.World, rng RNG, log *slog.Logger, snapshot map[string][]byte) *Context {
	if snapshot == nil {
		snapshot = map[string][]byte{}
	}
	return &Context{
		World:    w,
		RNG:      rng,
		Log:      log,
		Slot:     &echoes.Slot{},
		snapshot: snapshot,
		writes:   map[string][]byte{},
	}
}

// Snapshot returns the current value for a snapshot key, reading
// through this turn's buffered writes first.
func (tc *Context) Snapshot(key string) []byte {
	if v, ok := tc.writes[key]; ok {
		return v
	}
	return tc.snapshot[key]
}

// Write buffers a snapshot write. Nothing reaches the store until the
// caller commits the full write-set after the pipeline finishes.
func (tc *Context) Write(key string, value []byte) {
	tc.writes[key] = value
}

// WriteSet returns the buffered writes for atomic commit.
func (tc *Context) WriteSet() map[string][]byte {
	return tc.writes
}

// StringSet decodes a persisted string set. Corrupt or absent data
// degrades to an empty set.
func (tc *Context) StringSet(key string) map[string]bool {
	data := tc.Snapshot(key)
	set := map[string]bool{}
	if len(data) == 0 {
		return set
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		tc.Log.Warn("corrupt snapshot set, starting empty", "key", key, "err", err)
		return set
	}
	for _, it := range items {
		set[it] = true
	}
	return set
}

// WriteStringSet buffers a string set, sorted for byte-identical
// output across runs.
func (tc *Context) WriteStringSet(key string, set map[string]bool) {
	items := make([]string, 0, len(set))
	for it := range set {
		items = append(items, it)
	}
	sort.Strings(items)
	data, _ := json.Marshal(items)
	tc.Write(key, data)
}

// Processor is one derivative subsystem. Run must be total: bad input
// degrades to a no-op, never a panic or an error.
type Processor interface {
	Name() string
	Run(tc *Context)
}

// Pipeline is the ordered processor sequence.
type Pipeline struct {
	procs []Processor
}

// New constructs the standard nine-processor pipeline. Extra tier-2
// evaluators may be plugged in beyond the built-in pattern commentary
// and magical-realism beats.
func New(extraTier2 ...Evaluator) *Pipeline {
	evals := append([]Evaluator{patternCommentary{}, magicalRealism{}}, extraTier2...)
	return &Pipeline{procs: []Processor{
		arcProgress{},
		synthesis{},
		knowledge{},
		crossEcho{},
		tier2{evals: evals},
		iceberg{},
		giftDelivery{},
		arcReward{},
		gossip{},
	}}
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.procs))
	for i, proc := range p.procs {
		names[i] = proc.Name()
	}
	return names
}

// Run executes every processor in order against the context.
func (p *Pipeline) Run(tc *Context) {
	for _, proc := range p.procs {
		proc.Run(tc)
	}
}
