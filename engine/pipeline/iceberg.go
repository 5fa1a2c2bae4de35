package pipeline

import (
	"strings"

	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/types"
	"github.com/AbdusM/lux-story/world"
)

// iceberg records casual mentions of mystery topics (node tags of the
// form "topic:<id>"). Once a topic's total mentions reach its
// threshold it becomes investigable, and that transition itself
// produces an echo. Mention counting happens regardless of echo
// status; only the transition echo competes for the slot.
type iceberg struct{}

func (iceberg) Name() string { return "iceberg" }

func (iceberg) Run(tc *Context) {
	for _, tag := range tc.Node.Tags {
		topicID, ok := strings.CutPrefix(tag, "topic:")
		if !ok {
			continue
		}
		topic, found := findTopic(tc, topicID)
		if !found {
			tc.Log.Warn("node mentions unregistered topic", "node", tc.Node.ID, "topic", topicID)
			continue
		}

		before := state.Mentions(tc.State, topicID)
		next, after := state.WithMention(tc.State, topicID, tc.Character)
		tc.State = next

		if before < topic.Threshold && after >= topic.Threshold {
			tc.State = state.WithFlags(tc.State, "investigable_"+topicID)
			tc.Log.Info("topic became investigable", "topic", topicID, "mentions", after)
			if topic.EchoText != "" {
				tc.Slot.TrySet("iceberg", types.Echo{Text: topic.EchoText, Emotion: "uneasy"})
			}
		}
	}
}

func findTopic(tc *Context, id string) (world.Topic, bool) {
	for _, t := range tc.World.Topics {
		if t.ID == id {
			return t, true
		}
	}
	return world.Topic{}, false
}
