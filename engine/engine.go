// Package engine wires the choice resolution core, the derivative
// processor pipeline, and the snapshot store into a single
// ResolveChoice turn. One choice resolves at a time; the whole
// sequence from "choice applied" through "all processors run" through
// "patch built" is one uninterrupted step.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/AbdusM/lux-story/engine/graph"
	"github.com/AbdusM/lux-story/engine/patch"
	"github.com/AbdusM/lux-story/engine/pipeline"
	"github.com/AbdusM/lux-story/engine/resolve"
	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/store"
	"github.com/AbdusM/lux-story/types"
	"github.com/AbdusM/lux-story/world"
)

// Turn-level errors for player input that does not map to a playable
// choice. These are not content defects.
var (
	ErrChoiceUnknown  = errors.New("choice not present on current node")
	ErrChoiceDisabled = errors.New("choice is visible but disabled")
)

// Engine holds the loaded content, the world registry, the snapshot
// store, and the mutable game state.
type Engine struct {
	Registry *graph.Registry
	World    *world.World
	Store    store.Store
	RNG      *RNG
	State    types.GameState
	Log      *slog.Logger

	pipe *pipeline.Pipeline
	// pending holds snapshot writes whose commit failed; they are
	// retried with the next turn's write-set rather than blocking.
	pending map[string][]byte
}

// New creates an engine positioned at the start node of startGraph.
func New(reg *graph.Registry, w *world.World, st store.Store, startGraph string, seed int64, log *slog.Logger) (*Engine, error) {
	g, err := reg.Graph(startGraph)
	if err != nil {
		return nil, fmt.Errorf("start graph: %w", err)
	}
	if _, ok := g.Nodes[g.Start]; !ok {
		return nil, fmt.Errorf("%w: start node %q in graph %q", graph.ErrNodeNotFound, g.Start, g.ID)
	}
	return &Engine{
		Registry: reg,
		World:    w,
		Store:    st,
		RNG:      NewRNG(seed),
		State:    state.New(g.ID, g.Start, w.CharacterIDs(), seed),
		Log:      log,
		pipe:     pipeline.New(),
		pending:  map[string][]byte{},
	}, nil
}

// Restore replaces the engine state from a save, reproducing the RNG
// stream position.
func (e *Engine) Restore(s types.GameState) {
	e.State = s
	e.RNG = RestoreRNG(s.RNGSeed, s.RNGPos)
}

// Current renders the current node without resolving a choice: the
// selected content variant and the evaluated choice list. Used for the
// opening beat and after a load.
func (e *Engine) Current() (types.Patch, error) {
	g, node, err := e.Registry.Resolve(e.State.GraphID, e.State.NodeID)
	if err != nil {
		return types.Patch{}, err
	}
	variant, err := graph.SelectVariant(node, e.State)
	if err != nil {
		return types.Patch{}, err
	}
	choices := graph.EvaluatedChoices(node, e.State)
	return patch.Build(g, node, variant, choices, nil, nil, nil, nil), nil
}

// ResolveChoice resolves one player choice end to end: direct
// consequences, the nine derivative processors in fixed order, the
// atomic snapshot commit, and the UI patch. Content defects abort the
// whole turn with the engine state untouched.
func (e *Engine) ResolveChoice(choiceID string) (types.Patch, error) {
	_, node, err := e.Registry.Resolve(e.State.GraphID, e.State.NodeID)
	if err != nil {
		return types.Patch{}, err
	}

	var chosen *types.Choice
	for _, ec := range graph.EvaluatedChoices(node, e.State) {
		if ec.Choice.ID != choiceID {
			continue
		}
		if !ec.Enabled {
			return types.Patch{}, fmt.Errorf("%w: %q", ErrChoiceDisabled, choiceID)
		}
		c := ec.Choice
		chosen = &c
		break
	}
	if chosen == nil {
		return types.Patch{}, fmt.Errorf("%w: %q on node %q", ErrChoiceUnknown, choiceID, node.ID)
	}

	prev := e.State
	res, err := resolve.Apply(prev, *chosen, e.Registry, e.Log)
	if err != nil {
		return types.Patch{}, err
	}

	// The content variant is part of the resolution: a node without a
	// default variant fails the turn before any state is published.
	variant, err := graph.SelectVariant(res.Node, res.State)
	if err != nil {
		e.Log.Error("content defect", "node", res.Node.ID, "err", err)
		return types.Patch{}, err
	}

	tc := pipeline.NewContext(e.World, e.RNG, e.Log, e.readSnapshot())
	tc.Character = res.Graph.Character
	tc.Choice = *chosen
	tc.Node = res.Node
	tc.TrustDelta = res.TrustDelta
	tc.Prev = prev
	tc.State = res.State
	e.pipe.Run(tc)

	e.commit(tc.WriteSet())

	e.State = tc.State
	e.State.RNGSeed = e.RNG.Seed()
	e.State.RNGPos = e.RNG.Position()

	choices := graph.EvaluatedChoices(res.Node, e.State)
	return patch.Build(res.Graph, res.Node, variant, choices, tc.Slot, tc.Gift, tc.Reward, tc.Achievements), nil
}

// readSnapshot reads the fixed key set once at the start of a turn.
// Read failures degrade to an absent key; they never block the turn.
func (e *Engine) readSnapshot() map[string][]byte {
	snap := make(map[string][]byte, len(pipeline.SnapshotKeys))
	for _, key := range pipeline.SnapshotKeys {
		value, ok, err := e.Store.Read(key)
		if err != nil {
			e.Log.Warn("snapshot read failed, using empty value", "key", key, "err", err)
			continue
		}
		if ok {
			snap[key] = value
		}
	}
	// Buffered writes that failed to commit earlier are newer than
	// whatever the store returned.
	for key, value := range e.pending {
		snap[key] = value
	}
	return snap
}

// commit applies the turn's write-set atomically from the pipeline's
// point of view. A failed commit keeps the writes pending for retry
// on the next turn.
func (e *Engine) commit(writes map[string][]byte) {
	merged := make(map[string][]byte, len(e.pending)+len(writes))
	for k, v := range e.pending {
		merged[k] = v
	}
	for k, v := range writes {
		merged[k] = v
	}
	if len(merged) == 0 {
		return
	}
	if err := store.Commit(e.Store, merged); err != nil {
		e.Log.Warn("snapshot commit failed, deferring writes", "err", err)
		e.pending = merged
		return
	}
	e.pending = map[string][]byte{}
}

// Reset archives the current snapshot keys under an "ngp:" prefix and
// starts a fresh session from the given seed, preserving new-game-plus
// semantics: state is archived, never destroyed.
func (e *Engine) Reset(startGraph string, seed int64) error {
	g, err := e.Registry.Graph(startGraph)
	if err != nil {
		return err
	}
	for _, key := range pipeline.SnapshotKeys {
		value, ok, err := e.Store.Read(key)
		if err != nil || !ok {
			continue
		}
		if err := e.Store.Write("ngp:"+key, value); err != nil {
			e.Log.Warn("archive write failed", "key", key, "err", err)
		}
		if err := e.Store.Write(key, nil); err != nil {
			e.Log.Warn("snapshot clear failed", "key", key, "err", err)
		}
	}
	e.RNG = NewRNG(seed)
	e.State = state.New(g.ID, g.Start, e.World.CharacterIDs(), seed)
	e.pending = map[string][]byte{}
	return nil
}
