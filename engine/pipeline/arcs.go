package pipeline

import (
	"fmt"

	"github.com/AbdusM/lux-story/engine/echoes"
	"github.com/AbdusM/lux-story/engine/rules"
	"github.com/AbdusM/lux-story/engine/state"
	"github.com/AbdusM/lux-story/types"
	"github.com/AbdusM/lux-story/world"
)

// arcProgress unlocks newly-eligible arcs and advances chapter
// completion when the visited node belongs to a chapter's required
// set. It mutates state only; the completion reward is handled later
// by arc_reward.
type arcProgress struct{}

func (arcProgress) Name() string { return "arc_progress" }

func (arcProgress) Run(tc *Context) {
	for _, arc := range tc.World.Arcs {
		as := cloneArcState(tc.State.Arcs[arc.ID])
		if as.Completed {
			continue
		}
		if !as.Active {
			if !unlockSatisfied(arc, tc.State) {
				continue
			}
			as.Active = true
			tc.Log.Debug("arc unlocked", "arc", arc.ID)
		}

		chapter, ok := currentChapter(arc, as)
		if ok && containsString(chapter.Nodes, tc.State.NodeID) {
			if as.Visited[chapter.ID] == nil {
				as.Visited[chapter.ID] = map[string]bool{}
			}
			as.Visited[chapter.ID][tc.State.NodeID] = true
			if len(as.Visited[chapter.ID]) == len(chapter.Nodes) {
				as.ChaptersDone = append(as.ChaptersDone, chapter.ID)
				tc.Log.Debug("chapter complete", "arc", arc.ID, "chapter", chapter.ID)
			}
		}
		tc.State = state.WithArc(tc.State, arc.ID, as)
	}
}

// arcReward detects that the just-applied choice completed an entire
// arc, applies the dominant-pattern bonus, and schedules the
// completion's cross-character echoes and gift.
type arcReward struct{}

func (arcReward) Name() string { return "arc_reward" }

func (arcReward) Run(tc *Context) {
	for _, arc := range tc.World.Arcs {
		as := tc.State.Arcs[arc.ID]
		if !as.Active || as.Completed || len(as.ChaptersDone) < len(arc.Chapters) {
			continue
		}

		done := cloneArcState(as)
		done.Completed = true
		tc.State = state.WithArc(tc.State, arc.ID, done)

		dominant := dominantPattern(tc.State, tc.World)
		if dominant != "" && arc.Reward.Bonus > 0 {
			tc.State = state.WithPatternDeltas(tc.State, map[string]int{dominant: arc.Reward.Bonus})
		}
		tc.Reward = &types.ArcReward{
			ArcID:           arc.ID,
			Title:           arc.Reward.Title,
			DominantPattern: dominant,
			Bonus:           arc.Reward.Bonus,
		}
		tc.Achievements = append(tc.Achievements, "arc:"+arc.ID)
		tc.Log.Info("arc completed", "arc", arc.ID, "dominant", dominant)

		completionFlag := "arc_complete_" + arc.ID
		tc.State = state.WithFlags(tc.State, completionFlag)

		q := echoes.DecodeQueue(tc.Snapshot(KeyEchoQueue))
		for _, target := range arc.Reward.Announce {
			q = echoes.QueueForFlag(q, types.QueuedEcho{
				Source:   tc.Character,
				Flag:     completionFlag,
				Target:   target,
				Delay:    1,
				MinTrust: tc.World.Gossip.MinTrust,
				Echo: types.Echo{
					Text:     fmt.Sprintf("%s heard what you did. %s", tc.World.Name(target), arc.Reward.Title),
					Emotion:  "warm",
					Deferred: true,
				},
			})
		}
		tc.Write(KeyEchoQueue, echoes.EncodeQueue(q))

		if g := arc.Reward.Gift; g != nil {
			gifts := echoes.DecodeGifts(tc.Snapshot(KeyGifts))
			gifts = echoes.AddGift(gifts, types.DelayedGift{
				Source:  g.From,
				Target:  tc.Character,
				Item:    g.Item,
				Note:    g.Note,
				Context: completionFlag,
			})
			tc.Write(KeyGifts, echoes.EncodeGifts(gifts))
		}

		if arc.Reward.EchoText != "" {
			tc.Slot.TrySet("arc_reward", types.Echo{Text: arc.Reward.EchoText, Emotion: "triumphant"})
		}
	}
}

func unlockSatisfied(arc world.Arc, s types.GameState) bool {
	for _, cs := range arc.UnlockWhen {
		if !rules.Eval(cs.Condition(), s) {
			return false
		}
	}
	return true
}

// currentChapter returns the first chapter not yet completed.
func currentChapter(arc world.Arc, as types.ArcState) (world.Chapter, bool) {
	done := map[string]bool{}
	for _, id := range as.ChaptersDone {
		done[id] = true
	}
	for _, ch := range arc.Chapters {
		if !done[ch.ID] {
			return ch, true
		}
	}
	return world.Chapter{}, false
}

// dominantPattern returns the highest-scoring registered pattern,
// tie-broken lexicographically.
func dominantPattern(s types.GameState, w *world.World) string {
	best := ""
	bestScore := -1
	for _, p := range w.Patterns {
		score := state.Pattern(s, p)
		if score > bestScore || (score == bestScore && p < best) {
			best = p
			bestScore = score
		}
	}
	if bestScore <= 0 {
		return ""
	}
	return best
}

// cloneArcState deep-copies an arc state so processor mutation never
// aliases the maps held by an earlier state value.
func cloneArcState(as types.ArcState) types.ArcState {
	out := as
	if as.ChaptersDone != nil {
		out.ChaptersDone = make([]string, len(as.ChaptersDone))
		copy(out.ChaptersDone, as.ChaptersDone)
	}
	out.Visited = make(map[string]map[string]bool, len(as.Visited))
	for ch, nodes := range as.Visited {
		inner := make(map[string]bool, len(nodes))
		for n, v := range nodes {
			inner[n] = v
		}
		out.Visited[ch] = inner
	}
	return out
}

func containsString(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
