// Package patch assembles the UI patch: the single immutable record
// the presentation layer renders. Building a patch has no side
// effects and derives nothing the pipeline has not already decided.
package patch

import (
	"github.com/AbdusM/lux-story/engine/echoes"
	"github.com/AbdusM/lux-story/engine/graph"
	"github.com/AbdusM/lux-story/types"
)

// Build packages one resolved turn for the presentation layer.
func Build(g *graph.Graph, node types.Node, variant types.Variant,
	choices []types.EvaluatedChoice, slot *echoes.Slot,
	gift *types.DelayedGift, reward *types.ArcReward, achievements []string) types.Patch {

	var echo *types.Echo
	if slot != nil {
		echo, _ = slot.Echo()
	}
	return types.Patch{
		GraphID:      g.ID,
		NodeID:       node.ID,
		Character:    g.Character,
		Speaker:      node.Speaker,
		Text:         variant.Text,
		Emotion:      variant.Emotion,
		Choices:      choices,
		Echo:         echo,
		Gift:         gift,
		Reward:       reward,
		Achievements: achievements,
	}
}
