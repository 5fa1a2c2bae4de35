package patch

import (
	"testing"

	"github.com/AbdusM/lux-story/engine/echoes"
	"github.com/AbdusM/lux-story/engine/graph"
	"github.com/AbdusM/lux-story/types"
)

func TestBuild(t *testing.T) {
	g := &graph.Graph{ID: "maya", Character: "maya"}
	node := types.Node{ID: "confide", Speaker: "Maya"}
	variant := types.Variant{Text: "Okay. Here it is.", Emotion: "nervous"}
	choices := []types.EvaluatedChoice{{Choice: types.Choice{ID: "back"}, Visible: true, Enabled: true}}

	slot := &echoes.Slot{}
	slot.TrySet("synthesis", types.Echo{Text: "It fits together."})

	p := Build(g, node, variant, choices, slot, nil, nil, []string{"arc:maya_family"})

	if p.GraphID != "maya" || p.NodeID != "confide" || p.Character != "maya" {
		t.Errorf("patch position = %+v", p)
	}
	if p.Speaker != "Maya" || p.Text != "Okay. Here it is." || p.Emotion != "nervous" {
		t.Errorf("patch content = %+v", p)
	}
	if p.Echo == nil || p.Echo.Text != "It fits together." {
		t.Errorf("patch echo = %+v", p.Echo)
	}
	if len(p.Choices) != 1 || len(p.Achievements) != 1 {
		t.Errorf("patch extras = %+v", p)
	}
}

func TestBuildWithoutSlot(t *testing.T) {
	g := &graph.Graph{ID: "maya", Character: "maya"}
	p := Build(g, types.Node{ID: "intro"}, types.Variant{Text: "Hi."}, nil, nil, nil, nil, nil)
	if p.Echo != nil {
		t.Errorf("nil slot produced an echo: %+v", p.Echo)
	}

	empty := &echoes.Slot{}
	p = Build(g, types.Node{ID: "intro"}, types.Variant{Text: "Hi."}, nil, empty, nil, nil, nil)
	if p.Echo != nil {
		t.Errorf("unclaimed slot produced an echo: %+v", p.Echo)
	}
}
