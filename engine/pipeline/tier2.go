package pipeline

import (
	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/types"
	"github.com/AbdusM/lux-story/world"
)

// Evaluator is a pluggable tier-2 rule evaluator. It returns the
// comments eligible to surface this turn; the processor handles
// shown-set bookkeeping and the final pick.
type Evaluator interface {
	Name() string
	Candidates(tc *Context, shown map[string]bool) []world.Comment
}

// tier2 runs the evaluator registry: pattern-recognition commentary
// and one-time magical-realism beats. A comment never repeats; shown
// ids persist in the snapshot store.
type tier2 struct {
	evals []Evaluator
}

func (tier2) Name() string { return "tier2" }

func (p tier2) Run(tc *Context) {
	if tc.Slot.Filled() {
		return
	}
	shown := tc.StringSet(KeyComments)

	var candidates []world.Comment
	for _, ev := range p.evals {
		candidates = append(candidates, ev.Candidates(tc, shown)...)
	}
	if len(candidates) == 0 {
		return
	}

	pick := candidates[0]
	if len(candidates) > 1 {
		pick = candidates[tc.RNG.WeightedSelect(commentWeights(tc, candidates))]
	}
	if tc.Slot.TrySet("tier2", types.Echo{Text: pick.Text, Emotion: pick.Emotion, Deferred: true}) {
		shown[pick.ID] = true
		tc.WriteStringSet(KeyComments, shown)
		tc.Log.Debug("tier2 comment shown", "comment", pick.ID)
	}
}

// commentWeights biases the pick toward pattern comments whose score
// has overshot the threshold furthest. Magical beats weigh 1.
func commentWeights(tc *Context, candidates []world.Comment) []int {
	weights := make([]int, len(candidates))
	for i, c := range candidates {
		weights[i] = 1
		if c.Kind == "pattern" {
			if over := state.Pattern(tc.State, c.Pattern) - c.Min; over > 0 {
				weights[i] += over
			}
		}
	}
	return weights
}

// patternCommentary surfaces commentary once a pattern score reaches
// its threshold.
type patternCommentary struct{}

func (patternCommentary) Name() string { return "pattern_commentary" }

func (patternCommentary) Candidates(tc *Context, shown map[string]bool) []world.Comment {
	var out []world.Comment
	for _, c := range tc.World.Comments {
		if c.Kind != "pattern" || shown[c.ID] {
			continue
		}
		if state.Pattern(tc.State, c.Pattern) >= c.Min {
			out = append(out, c)
		}
	}
	return out
}

// magicalRealism surfaces a one-time beat when its triggering flag is
// held.
type magicalRealism struct{}

func (magicalRealism) Name() string { return "magical_realism" }

func (magicalRealism) Candidates(tc *Context, shown map[string]bool) []world.Comment {
	var out []world.Comment
	for _, c := range tc.World.Comments {
		if c.Kind != "magical" || shown[c.ID] {
			continue
		}
		if tc.State.Flags[c.Flag] {
			out = append(out, c)
		}
	}
	return out
}
