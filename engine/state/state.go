// Package state manages the player game state. All transforms are pure:
// they return a new logical GameState and never mutate the input, so a
// caller holding an old state keeps a consistent view of it.
package state

import "github.com/AbdusM/lux-story/types"

// New creates a fresh game state positioned at the start of a graph.
// characters lists every registered character id.
func New(graphID, nodeID string, characters []string, seed int64) types.GameState {
	chars := make(map[string]types.CharacterState, len(characters))
	for _, id := range characters {
		chars[id] = types.CharacterState{
			Trust:     types.TrustMin,
			Knowledge: map[string]bool{},
			History:   []string{},
		}
	}
	return types.GameState{
		GraphID:    graphID,
		NodeID:     nodeID,
		Characters: chars,
		Flags:      map[string]bool{},
		Patterns:   map[string]int{},
		Arcs:       map[string]types.ArcState{},
		Iceberg:    map[string]map[string]int{},
		RNGSeed:    seed,
	}
}

// Clone returns a deep copy of the state.
func Clone(s types.GameState) types.GameState {
	out := s
	out.Characters = make(map[string]types.CharacterState, len(s.Characters))
	for id, cs := range s.Characters {
		cc := cs
		cc.Knowledge = copyBoolMap(cs.Knowledge)
		cc.History = copyStrings(cs.History)
		out.Characters[id] = cc
	}
	out.Flags = copyBoolMap(s.Flags)
	out.Patterns = copyIntMap(s.Patterns)
	out.Arcs = make(map[string]types.ArcState, len(s.Arcs))
	for id, as := range s.Arcs {
		ac := as
		ac.ChaptersDone = copyStrings(as.ChaptersDone)
		ac.Visited = make(map[string]map[string]bool, len(as.Visited))
		for ch, nodes := range as.Visited {
			ac.Visited[ch] = copyBoolMap(nodes)
		}
		out.Arcs[id] = ac
	}
	out.Iceberg = make(map[string]map[string]int, len(s.Iceberg))
	for topic, counts := range s.Iceberg {
		out.Iceberg[topic] = copyIntMap(counts)
	}
	return out
}

// Trust returns the trust score for a character. Unknown characters
// report the minimum.
func Trust(s types.GameState, character string) int {
	return s.Characters[character].Trust
}

// HasCharacter reports whether the character is registered in the state.
func HasCharacter(s types.GameState, character string) bool {
	_, ok := s.Characters[character]
	return ok
}

// Pattern returns a pattern score. Unset patterns return 0.
func Pattern(s types.GameState, pattern string) int {
	return s.Patterns[pattern]
}

// Knows reports whether a character-scoped knowledge flag is held.
func Knows(s types.GameState, character, flag string) bool {
	return s.Characters[character].Knowledge[flag]
}

// Mentions returns the iceberg mention count for a topic across all
// characters.
func Mentions(s types.GameState, topic string) int {
	total := 0
	for _, n := range s.Iceberg[topic] {
		total += n
	}
	return total
}

// WithTrustDelta applies a clamped trust delta to a character.
// Unknown characters are a no-op: the caller decides whether that is a
// content defect worth logging.
func WithTrustDelta(s types.GameState, character string, delta int) types.GameState {
	if _, ok := s.Characters[character]; !ok {
		return s
	}
	out := Clone(s)
	cs := out.Characters[character]
	cs.Trust = clamp(cs.Trust+delta, types.TrustMin, types.TrustMax)
	out.Characters[character] = cs
	return out
}

// WithFlags adds global flags. Adding a flag twice is a no-op.
func WithFlags(s types.GameState, flags ...string) types.GameState {
	out := Clone(s)
	for _, f := range flags {
		out.Flags[f] = true
	}
	return out
}

// WithKnowledge adds character-scoped knowledge flags, idempotently.
// Unknown characters are a no-op.
func WithKnowledge(s types.GameState, character string, flags ...string) types.GameState {
	if _, ok := s.Characters[character]; !ok {
		return s
	}
	out := Clone(s)
	cs := out.Characters[character]
	for _, f := range flags {
		cs.Knowledge[f] = true
	}
	out.Characters[character] = cs
	return out
}

// WithPatternDeltas increments pattern scores. Scores are monotonically
// non-decreasing: negative deltas are ignored (use WithPatternReset for
// the explicit reset path).
func WithPatternDeltas(s types.GameState, deltas map[string]int) types.GameState {
	if len(deltas) == 0 {
		return s
	}
	out := Clone(s)
	for p, d := range deltas {
		if d > 0 {
			out.Patterns[p] += d
		}
	}
	return out
}

// WithPatternReset resets the named pattern scores to zero.
func WithPatternReset(s types.GameState, patterns ...string) types.GameState {
	if len(patterns) == 0 {
		return s
	}
	out := Clone(s)
	for _, p := range patterns {
		out.Patterns[p] = 0
	}
	return out
}

// WithHistory appends a node id to a character's conversation history.
// Consecutive repeats are not duplicated.
func WithHistory(s types.GameState, character, nodeID string) types.GameState {
	cs, ok := s.Characters[character]
	if !ok {
		return s
	}
	if n := len(cs.History); n > 0 && cs.History[n-1] == nodeID {
		return s
	}
	out := Clone(s)
	cs = out.Characters[character]
	cs.History = append(cs.History, nodeID)
	out.Characters[character] = cs
	return out
}

// WithPosition moves the state to a new graph/node.
func WithPosition(s types.GameState, graphID, nodeID string) types.GameState {
	out := Clone(s)
	out.GraphID = graphID
	out.NodeID = nodeID
	return out
}

// WithMention records one iceberg mention of a topic by a character and
// returns the new state plus the topic's total mention count after the
// increment.
func WithMention(s types.GameState, topic, character string) (types.GameState, int) {
	out := Clone(s)
	if out.Iceberg[topic] == nil {
		out.Iceberg[topic] = map[string]int{}
	}
	out.Iceberg[topic][character]++
	return out, Mentions(out, topic)
}

// WithArc replaces the stored state of one arc.
func WithArc(s types.GameState, arcID string, as types.ArcState) types.GameState {
	out := Clone(s)
	out.Arcs[arcID] = as
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// copyStrings keeps the nil/empty distinction so a cloned state
// round-trips through JSON identically to its source.
func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func copyBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
