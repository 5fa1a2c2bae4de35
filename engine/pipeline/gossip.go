package pipeline

import (
	"fmt"
	"strings"

	"github.com/AbdusM/lux-story/engine/echoes"
	"github.com/AbdusM/lux-story/types"
)

// gossip schedules minor "mentioned you" echoes after a positive trust
// change. Target selection is deterministic, no randomness: the hub
// character plus up to two relationship-graph neighbors, ordered by
// intensity descending then lexicographic id. Gossip never claims the
// turn's echo slot; it only queues for future delivery.
type gossip struct{}

const gossipNeighborLimit = 2

func (gossip) Name() string { return "gossip" }

func (gossip) Run(tc *Context) {
	if tc.TrustDelta <= 0 {
		return
	}
	cfg := tc.World.Gossip
	if cfg.Text == "" {
		return
	}
	source := tc.Character

	var targets []string
	if cfg.Hub != "" && cfg.Hub != source {
		targets = append(targets, cfg.Hub)
	}
	picked := 0
	for _, n := range tc.World.Neighbors(source) {
		if picked == gossipNeighborLimit {
			break
		}
		if n.ID == source || containsString(targets, n.ID) {
			continue
		}
		targets = append(targets, n.ID)
		picked++
	}
	if len(targets) == 0 {
		return
	}

	text := strings.ReplaceAll(cfg.Text, "{source}", tc.World.Name(source))
	flag := fmt.Sprintf("gossip_%s_t%d", source, tc.State.Turn)

	q := echoes.DecodeQueue(tc.Snapshot(KeyEchoQueue))
	for _, target := range targets {
		q = echoes.QueueForFlag(q, types.QueuedEcho{
			Source:   source,
			Flag:     flag,
			Target:   target,
			Delay:    cfg.Delay,
			MinTrust: cfg.MinTrust,
			Echo:     types.Echo{Text: text, Emotion: "amused", Deferred: true},
		})
	}
	tc.Write(KeyEchoQueue, echoes.EncodeQueue(q))
	tc.Log.Debug("gossip scheduled", "source", source, "targets", len(targets))
}
