package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AbdusM/lux-story/engine"
	"github.com/AbdusM/lux-story/engine/graph"
	"github.com/AbdusM/lux-story/logging"
	"github.com/AbdusM/lux-story/store"
	"github.com/AbdusM/lux-story/types"
	"github.com/AbdusM/lux-story/world"
)

func newTestCLI(t *testing.T, script string) (*CLI, *bytes.Buffer) {
	t.Helper()

	r := graph.NewRegistry()
	g := &graph.Graph{
		ID:        "maya",
		Character: "maya",
		Start:     "intro",
		Nodes: map[string]types.Node{
			"intro": {
				ID:       "intro",
				Speaker:  "Maya",
				Variants: []types.Variant{{Text: "Hey. Didn't see you there."}},
				Choices: []types.Choice{
					{
						ID:   "listen",
						Text: "Just listen.",
						Next: "confide",
						Consequence: &types.Consequence{
							Character:  "maya",
							TrustDelta: 2,
						},
					},
				},
			},
			"confide": {
				ID:       "confide",
				Speaker:  "Maya",
				Variants: []types.Variant{{Text: "Okay. Here it is.", Emotion: "nervous"}},
				Choices: []types.Choice{
					{ID: "back", Text: "Give her space.", Next: "intro"},
				},
			},
		},
	}
	if err := r.Add(g); err != nil {
		t.Fatal(err)
	}
	w := &world.World{
		Characters: []world.Character{{ID: "maya", Name: "Maya"}},
		Patterns:   []string{"helping"},
	}

	eng, err := engine.New(r, w, store.NewMemoryStore(), "maya", 1, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	c := New(eng, "maya")
	c.In = strings.NewReader(script)
	out := &bytes.Buffer{}
	c.Out = out
	c.SaveDir = t.TempDir()
	return c, out
}

func TestRunRendersAndResolves(t *testing.T) {
	c, out := newTestCLI(t, "1\n/quit\n")
	c.Run()

	got := out.String()
	for _, want := range []string{
		"Maya:",
		"Hey. Didn't see you there.",
		"1) Just listen.",
		"Maya (nervous):",
		"Okay. Here it is.",
		"1) Give her space.",
		"Goodbye.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunAcceptsChoiceIDs(t *testing.T) {
	c, out := newTestCLI(t, "listen\nback\n/quit\n")
	c.Run()
	if !strings.Contains(out.String(), "Okay. Here it is.") {
		t.Error("literal choice id not accepted")
	}
	if c.Engine.State.Turn != 2 {
		t.Errorf("Turn = %d, want 2", c.Engine.State.Turn)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	c, out := newTestCLI(t, "7\nnonsense\n/quit\n")
	c.Run()

	got := out.String()
	if strings.Count(got, "Pick a numbered choice") != 2 {
		t.Errorf("bad input not rejected twice:\n%s", got)
	}
	if c.Engine.State.Turn != 0 {
		t.Error("bad input advanced the game")
	}
}

func TestRunSkipsCommentsAndBlankLines(t *testing.T) {
	c, _ := newTestCLI(t, "# a script comment\n\n1\n/quit\n")
	c.Run()
	if c.Engine.State.Turn != 1 {
		t.Errorf("Turn = %d, want 1", c.Engine.State.Turn)
	}
}

func TestMetaState(t *testing.T) {
	c, out := newTestCLI(t, "1\n/state\n/quit\n")
	c.Run()

	got := out.String()
	for _, want := range []string{"Turn: 1", "Node: maya/confide", "maya: trust 2"} {
		if !strings.Contains(got, want) {
			t.Errorf("/state output missing %q:\n%s", want, got)
		}
	}
}

func TestMetaSaveAndLoad(t *testing.T) {
	c, out := newTestCLI(t, "1\n/save slot1\n/quit\n")
	c.Run()
	if !strings.Contains(out.String(), "Game saved to slot1.") {
		t.Fatalf("save not confirmed:\n%s", out)
	}

	// A fresh session in the same save dir picks the state back up.
	c2, out2 := newTestCLI(t, "/load slot1\n/state\n/quit\n")
	c2.SaveDir = c.SaveDir
	c2.Run()

	got := out2.String()
	if !strings.Contains(got, "Game loaded from slot1 (turn 1).") {
		t.Errorf("load not confirmed:\n%s", got)
	}
	if !strings.Contains(got, "maya: trust 2") {
		t.Errorf("loaded state not restored:\n%s", got)
	}
	if !strings.Contains(got, "Okay. Here it is.") {
		t.Errorf("current node not re-rendered after load:\n%s", got)
	}
}

func TestMetaReset(t *testing.T) {
	c, out := newTestCLI(t, "1\n/reset\n/state\n/quit\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, "previous journey is archived") {
		t.Errorf("reset not confirmed:\n%s", got)
	}
	if !strings.Contains(got, "Turn: 0") || !strings.Contains(got, "maya: trust 0") {
		t.Errorf("state not reset:\n%s", got)
	}
}

func TestMetaUnknownCommand(t *testing.T) {
	c, out := newTestCLI(t, "/dance\n/quit\n")
	c.Run()
	if !strings.Contains(out.String(), "Unknown command: /dance.") {
		t.Errorf("unknown command not reported:\n%s", out)
	}
}
