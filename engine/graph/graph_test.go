package graph

import (
	"errors"
	"testing"

	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/types"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	maya := &Graph{
		ID:        "maya",
		Character: "maya",
		Start:     "intro",
		Nodes: map[string]types.Node{
			"intro": {
				ID:       "intro",
				Variants: []types.Variant{{Text: "Hello."}},
			},
			"gated": {
				ID: "gated",
				Requires: []types.Condition{
					{Type: "flag_set", Params: map[string]any{"flag": "met_maya"}},
				},
				Variants: []types.Variant{{Text: "You made it."}},
			},
		},
	}
	devon := &Graph{
		ID:        "devon",
		Character: "devon",
		Start:     "workshop",
		Nodes: map[string]types.Node{
			"workshop": {
				ID:       "workshop",
				Variants: []types.Variant{{Text: "Hand me that wrench."}},
			},
		},
	}
	if err := r.Add(maya); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(devon); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRegistryAddDuplicate(t *testing.T) {
	r := testRegistry(t)
	if err := r.Add(&Graph{ID: "maya"}); err == nil {
		t.Error("duplicate graph id accepted")
	}
}

func TestResolve(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		name      string
		current   string
		ref       string
		wantGraph string
		wantNode  string
		wantErr   error
	}{
		{"bare ref stays in current graph", "maya", "intro", "maya", "intro", nil},
		{"qualified ref crosses graphs", "maya", "devon/workshop", "devon", "workshop", nil},
		{"unknown graph", "maya", "nobody/intro", "", "", ErrGraphNotFound},
		{"unknown node", "maya", "missing", "", "", ErrNodeNotFound},
		{"unknown node in other graph", "maya", "devon/missing", "", "", ErrNodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, node, err := r.Resolve(tt.current, tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if g.ID != tt.wantGraph || node.ID != tt.wantNode {
				t.Errorf("Resolve() = %s/%s, want %s/%s", g.ID, node.ID, tt.wantGraph, tt.wantNode)
			}
		})
	}
}

func TestEnterGate(t *testing.T) {
	r := testRegistry(t)
	s := state.New("maya", "intro", []string{"maya", "devon"}, 1)

	if _, _, err := r.Enter("maya", "gated", s); !errors.Is(err, ErrNodeGated) {
		t.Errorf("Enter(gated) error = %v, want ErrNodeGated", err)
	}

	s = state.WithFlags(s, "met_maya")
	if _, _, err := r.Enter("maya", "gated", s); err != nil {
		t.Errorf("Enter(gated) with flag error = %v", err)
	}
}

func TestSelectVariant(t *testing.T) {
	s := state.New("maya", "intro", []string{"maya"}, 1)
	s = state.WithTrustDelta(s, "maya", 6)

	highTrust := []types.Condition{
		{Type: "trust_range", Params: map[string]any{"character": "maya", "min": 5}},
	}
	impossible := []types.Condition{
		{Type: "flag_set", Params: map[string]any{"flag": "never_set"}},
	}

	tests := []struct {
		name     string
		node     types.Node
		wantText string
		wantErr  error
	}{
		{
			name: "first satisfied conditional wins",
			node: types.Node{ID: "n", Variants: []types.Variant{
				{Text: "trusted", When: highTrust},
				{Text: "default"},
			}},
			wantText: "trusted",
		},
		{
			name: "falls through to unconditional",
			node: types.Node{ID: "n", Variants: []types.Variant{
				{Text: "never", When: impossible},
				{Text: "default"},
			}},
			wantText: "default",
		},
		{
			name: "unconditional wins immediately",
			node: types.Node{ID: "n", Variants: []types.Variant{
				{Text: "default"},
				{Text: "trusted", When: highTrust},
			}},
			wantText: "default",
		},
		{
			name: "all conditional and none satisfied",
			node: types.Node{ID: "n", Variants: []types.Variant{
				{Text: "never", When: impossible},
			}},
			wantErr: ErrNoDefaultVariant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := SelectVariant(tt.node, s)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SelectVariant() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectVariant() error = %v", err)
			}
			if v.Text != tt.wantText {
				t.Errorf("SelectVariant() = %q, want %q", v.Text, tt.wantText)
			}
		})
	}
}

func TestEvaluatedChoices(t *testing.T) {
	s := state.New("maya", "intro", []string{"maya"}, 1)
	s = state.WithFlags(s, "met_maya")

	metMaya := []types.Condition{
		{Type: "flag_set", Params: map[string]any{"flag": "met_maya"}},
	}
	never := []types.Condition{
		{Type: "flag_set", Params: map[string]any{"flag": "never_set"}},
	}

	node := types.Node{ID: "n", Choices: []types.Choice{
		{ID: "always", Next: "a"},
		{ID: "hidden", Next: "b", VisibleWhen: never},
		{ID: "disabled", Next: "c", EnabledWhen: never},
		{ID: "open", Next: "d", VisibleWhen: metMaya, EnabledWhen: metMaya},
	}}

	got := EvaluatedChoices(node, s)
	if len(got) != 3 {
		t.Fatalf("len(choices) = %d, want 3", len(got))
	}
	if got[0].Choice.ID != "always" || !got[0].Enabled {
		t.Errorf("choice[0] = %s enabled=%v, want always enabled", got[0].Choice.ID, got[0].Enabled)
	}
	if got[1].Choice.ID != "disabled" || got[1].Enabled {
		t.Errorf("choice[1] = %s enabled=%v, want disabled choice shown but not enabled", got[1].Choice.ID, got[1].Enabled)
	}
	if got[2].Choice.ID != "open" || !got[2].Enabled {
		t.Errorf("choice[2] = %s enabled=%v, want open enabled", got[2].Choice.ID, got[2].Enabled)
	}
}
