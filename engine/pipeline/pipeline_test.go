package pipeline

import (
	"reflect"
	"testing"

	"github.com/AbdusM/lux-story/engine/echoes"
	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/logging"
	"github.com/AbdusM/lux-story/types"
	"github.com/AbdusM/lux-story/world"
)

// fixedRNG returns a canned value from every draw.
type fixedRNG struct{ n int }

func (r fixedRNG) Intn(n int) int { return r.n % n }

func (r fixedRNG) WeightedSelect(weights []int) int { return r.n % len(weights) }

func testWorld() *world.World {
	three := 3
	return &world.World{
		Characters: []world.Character{
			{ID: "maya", Name: "Maya"},
			{ID: "devon", Name: "Devon", TradeMinTrust: 4},
			{ID: "sam", Name: "Sam"},
			{ID: "rita", Name: "Rita"},
			{ID: "jess", Name: "Jess"},
		},
		Relationships: []world.Relationship{
			{A: "maya", B: "devon", Intensity: 5},
			{A: "maya", B: "sam", Intensity: 3},
			{A: "maya", B: "jess", Intensity: 1},
		},
		Patterns: []string{"exploring", "helping", "patience"},
		Arcs: []world.Arc{
			{
				ID:    "maya_family",
				Title: "The Family Question",
				UnlockWhen: []world.ConditionSpec{
					{Type: "trust_range", Character: "maya", Min: &three},
				},
				Chapters: []world.Chapter{
					{ID: "ch1", Nodes: []string{"confide", "pressure"}},
				},
				Reward: world.Reward{
					Title:    "A Weight Lifted",
					Bonus:    2,
					EchoText: "Maya stands a little straighter now.",
					Announce: []string{"devon"},
					Gift:     &world.GiftSpec{From: "maya", Item: "pressed flower"},
				},
			},
		},
		Puzzles: []world.Puzzle{
			{
				ID:         "the_garden",
				Requires:   []string{"maya:family_pressure", "found_seeds"},
				Hint:       "Something about the garden is still missing.",
				EchoText:   "The garden. It all fits together.",
				GrantsFlag: "solved_garden",
			},
		},
		Knowledge: []world.KnowledgeItem{
			{Flag: "family_pressure", Character: "maya", Title: "Maya's family pressure"},
			{Flag: "found_seeds", Title: "The seed packet"},
		},
		Topics: []world.Topic{
			{ID: "forest", Threshold: 2, EchoText: "The forest keeps coming up."},
		},
		Comments: []world.Comment{
			{ID: "c_help", Kind: "pattern", Pattern: "helping", Min: 3, Text: "You keep helping people.", Emotion: "observant"},
			{ID: "c_magic", Kind: "magical", Flag: "solved_garden", Text: "The flowers turn to face you.", Emotion: "wonder"},
		},
		Gossip: world.Gossip{
			Hub:      "rita",
			Delay:    1,
			MinTrust: 2,
			Text:     "{source} mentioned you the other day.",
		},
	}
}

func testContext(t *testing.T, w *world.World, snapshot map[string][]byte) *Context {
	t.Helper()
	tc := NewContext(w, fixedRNG{}, logging.NewNop(), snapshot)
	s := state.New("maya", "intro", []string{"maya", "devon", "sam", "rita", "jess"}, 1)
	tc.Character = "maya"
	tc.Prev = s
	tc.State = s
	return tc
}

func TestOrderContract(t *testing.T) {
	p := New()
	if got := p.Names(); !reflect.DeepEqual(got, Order) {
		t.Errorf("Names() = %v, want %v", got, Order)
	}
}

func TestAtMostOneEchoPerTurn(t *testing.T) {
	w := testWorld()
	tc := testContext(t, w, nil)

	// Stack the turn so several processors have an echo to offer:
	// puzzle completion, a pattern comment, and a queued cross echo.
	tc.State = state.WithKnowledge(tc.State, "maya", "family_pressure")
	tc.State = state.WithFlags(tc.State, "found_seeds")
	tc.State = state.WithPatternDeltas(tc.State, map[string]int{"helping": 5})
	q := echoes.Queue{{Source: "devon", Flag: "f", Target: "maya", Echo: types.Echo{Text: "queued"}}}
	tc.snapshot[KeyEchoQueue] = echoes.EncodeQueue(q)

	New().Run(tc)

	e, source := tc.Slot.Echo()
	if e == nil {
		t.Fatal("no echo surfaced")
	}
	// Synthesis runs before cross_echo and tier2, so it wins the slot.
	if source != "synthesis" || e.Text != "The garden. It all fits together." {
		t.Errorf("echo = %q from %q, want the synthesis completion", e.Text, source)
	}

	// The losing candidates are not lost: the queued echo stays queued.
	rest := echoes.DecodeQueue(tc.Snapshot(KeyEchoQueue))
	if len(rest) != 1 {
		t.Errorf("queued echo consumed despite losing the slot: %v", rest)
	}
}

func TestIcebergEchoesWhileGossipStillQueues(t *testing.T) {
	w := testWorld()
	tc := testContext(t, w, nil)
	tc.TrustDelta = 2
	tc.Node = types.Node{ID: "n1", Tags: []string{"topic:forest"}}
	s, _ := state.WithMention(tc.State, "forest", "devon")
	tc.Prev = s
	tc.State = s

	New().Run(tc)

	e, source := tc.Slot.Echo()
	if source != "iceberg" || e.Text != "The forest keeps coming up." {
		t.Fatalf("echo = %v from %q, want the iceberg transition", e, source)
	}

	// Gossip never competes for the slot but its scheduling still happened.
	q := echoes.DecodeQueue(tc.Snapshot(KeyEchoQueue))
	var gossipEntries int
	for _, entry := range q {
		if entry.Source == "maya" && entry.Flag == "gossip_maya_t0" {
			gossipEntries++
		}
	}
	if gossipEntries == 0 {
		t.Error("gossip not queued on a turn whose echo went elsewhere")
	}
}

func TestContextSnapshotReadsThroughWrites(t *testing.T) {
	tc := testContext(t, testWorld(), map[string][]byte{"k": []byte("old")})
	if got := tc.Snapshot("k"); string(got) != "old" {
		t.Errorf("Snapshot = %q, want old", got)
	}
	tc.Write("k", []byte("new"))
	if got := tc.Snapshot("k"); string(got) != "new" {
		t.Errorf("Snapshot after Write = %q, want new", got)
	}
	if got := tc.WriteSet(); string(got["k"]) != "new" {
		t.Errorf("WriteSet = %v", got)
	}
}

func TestStringSetRoundTrip(t *testing.T) {
	tc := testContext(t, testWorld(), nil)

	if got := tc.StringSet("absent"); len(got) != 0 {
		t.Errorf("StringSet(absent) = %v, want empty", got)
	}

	tc.Write("bad", []byte("{corrupt"))
	if got := tc.StringSet("bad"); len(got) != 0 {
		t.Errorf("StringSet(corrupt) = %v, want empty", got)
	}

	tc.WriteStringSet("set", map[string]bool{"b": true, "a": true})
	if string(tc.Snapshot("set")) != `["a","b"]` {
		t.Errorf("WriteStringSet not sorted: %s", tc.Snapshot("set"))
	}
	if got := tc.StringSet("set"); !got["a"] || !got["b"] || len(got) != 2 {
		t.Errorf("StringSet round trip = %v", got)
	}
}
