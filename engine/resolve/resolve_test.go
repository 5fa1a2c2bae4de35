package resolve

import (
	"errors"
	"testing"

	"github.com/AbdusM/lux-story/engine/graph"
	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/logging"
	"github.com/AbdusM/lux-story/types"
)

func testRegistry(t *testing.T) *graph.Registry {
	t.Helper()
	r := graph.NewRegistry()
	g := &graph.Graph{
		ID:        "maya",
		Character: "maya",
		Start:     "intro",
		Nodes: map[string]types.Node{
			"intro": {
				ID:       "intro",
				Variants: []types.Variant{{Text: "Hello."}},
			},
			"confide": {
				ID:       "confide",
				Variants: []types.Variant{{Text: "I never told anyone this."}},
				OnEnter: &types.Consequence{
					Character:   "maya",
					GlobalFlags: []string{"maya_confided"},
				},
			},
		},
	}
	if err := r.Add(g); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestApply(t *testing.T) {
	reg := testRegistry(t)
	log := logging.NewNop()
	s := state.New("maya", "intro", []string{"maya"}, 1)

	choice := types.Choice{
		ID:   "c1",
		Next: "confide",
		Consequence: &types.Consequence{
			Character:  "maya",
			TrustDelta: 2,
			Patterns:   map[string]int{"helping": 1},
			Knowledge:  []string{"family_pressure"},
		},
	}

	res, err := Apply(s, choice, reg, log)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if res.State.GraphID != "maya" || res.State.NodeID != "confide" {
		t.Errorf("position = %s/%s, want maya/confide", res.State.GraphID, res.State.NodeID)
	}
	if got := state.Trust(res.State, "maya"); got != 2 {
		t.Errorf("trust = %d, want 2", got)
	}
	if res.TrustDelta != 2 {
		t.Errorf("TrustDelta = %d, want 2", res.TrustDelta)
	}
	if got := state.Pattern(res.State, "helping"); got != 1 {
		t.Errorf("helping = %d, want 1", got)
	}
	if !state.Knows(res.State, "maya", "family_pressure") {
		t.Error("knowledge not granted")
	}
	if !res.State.Flags["maya_confided"] {
		t.Error("OnEnter consequence not applied")
	}
	hist := res.State.Characters["maya"].History
	if len(hist) != 1 || hist[0] != "intro" {
		t.Errorf("history = %v, want [intro]", hist)
	}
	if res.State.Turn != 1 {
		t.Errorf("Turn = %d, want 1", res.State.Turn)
	}

	// Input untouched.
	if state.Trust(s, "maya") != 0 || s.NodeID != "intro" {
		t.Error("Apply mutated its input state")
	}
}

func TestApplyTrustDeltaClamped(t *testing.T) {
	reg := testRegistry(t)
	log := logging.NewNop()
	s := state.New("maya", "intro", []string{"maya"}, 1)
	s = state.WithTrustDelta(s, "maya", 9)

	choice := types.Choice{
		ID:          "c1",
		Next:        "confide",
		Consequence: &types.Consequence{Character: "maya", TrustDelta: 5},
	}
	res, err := Apply(s, choice, reg, log)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := state.Trust(res.State, "maya"); got != types.TrustMax {
		t.Errorf("trust = %d, want %d", got, types.TrustMax)
	}
	if res.TrustDelta != 1 {
		t.Errorf("TrustDelta = %d, want applied post-clamp delta 1", res.TrustDelta)
	}
}

func TestApplyUnknownCharacterSkipped(t *testing.T) {
	reg := testRegistry(t)
	log := logging.NewNop()
	s := state.New("maya", "intro", []string{"maya"}, 1)

	choice := types.Choice{
		ID:   "c1",
		Next: "confide",
		Consequence: &types.Consequence{
			Character:   "ghost",
			TrustDelta:  3,
			GlobalFlags: []string{"still_applies"},
		},
	}
	res, err := Apply(s, choice, reg, log)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if res.TrustDelta != 0 {
		t.Errorf("TrustDelta = %d, want 0 for unknown character", res.TrustDelta)
	}
	if !res.State.Flags["still_applies"] {
		t.Error("rest of consequence dropped when character unknown")
	}
}

func TestApplyMissingTargetFatal(t *testing.T) {
	reg := testRegistry(t)
	log := logging.NewNop()
	s := state.New("maya", "intro", []string{"maya"}, 1)

	choice := types.Choice{ID: "c1", Next: "missing"}
	_, err := Apply(s, choice, reg, log)
	if !errors.Is(err, graph.ErrNodeNotFound) {
		t.Errorf("Apply() error = %v, want ErrNodeNotFound", err)
	}
}
