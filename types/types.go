// Package types defines the shared data structures for the Lux Story engine.
// This package contains only type definitions — no logic, no methods.
package types

// Condition is a predicate evaluated against game state.
type Condition struct {
	Type   string         // "trust_range", "pattern_min", "flag_set", "flag_not", "knows", "knows_not", "not"
	Params map[string]any // condition-specific parameters
	Inner  *Condition     // for "not": the negated inner condition
}

// Variant is one alternative rendering of a node's content.
// The last variant of a node must have no conditions: it is the default.
type Variant struct {
	Text    string
	Emotion string      // optional
	When    []Condition // empty = unconditional
}

// Consequence is the direct state change attached to a choice or node entry.
type Consequence struct {
	Character    string // character receiving the trust delta and knowledge
	TrustDelta   int
	Patterns     map[string]int // pattern → increment
	PatternReset []string       // patterns explicitly reset to zero
	GlobalFlags  []string       // global flags to add
	Knowledge    []string       // knowledge flags to add, scoped to Character
}

// Choice is one outgoing option from a dialogue node.
type Choice struct {
	ID          string
	Text        string
	Next        string // node id, or "graph/node" for cross-graph targets
	VisibleWhen []Condition
	EnabledWhen []Condition
	Consequence *Consequence
	Skills      []string // non-mechanical tags for downstream analytics
}

// Node is a single beat of dialogue.
type Node struct {
	ID       string
	Speaker  string
	Variants []Variant
	Choices  []Choice
	Requires []Condition // node is unreachable unless satisfied
	Tags     []string
	OnEnter  *Consequence // optional effects applied on entering the node
	Trigger  string       // optional simulation trigger identifier
}

// EvaluatedChoice is a choice after visibility/enablement evaluation.
type EvaluatedChoice struct {
	Choice  Choice
	Visible bool
	Enabled bool
}

// CharacterState holds the player's standing with one character.
type CharacterState struct {
	Trust     int             `json:"trust"` // clamped to [TrustMin, TrustMax]
	Knowledge map[string]bool `json:"knowledge"`
	History   []string        `json:"history"` // visited node ids, no consecutive duplicates
}

// Trust bounds shared by every character.
const (
	TrustMin = 0
	TrustMax = 10
)

// ArcState tracks progress through one story arc.
type ArcState struct {
	Active       bool     `json:"active"`
	Completed    bool     `json:"completed"`
	ChaptersDone []string `json:"chapters_done"`
	// Visited records, per chapter id, which of its required nodes
	// the player has hit so far.
	Visited map[string]map[string]bool `json:"visited"`
}

// GameState is the complete player state. Transforms in engine/state
// return new logical copies; callers never mutate a state they hold.
type GameState struct {
	GraphID    string
	NodeID     string
	Characters map[string]CharacterState
	Flags      map[string]bool // global flags, idempotent set
	Patterns   map[string]int  // behavioral pattern scores
	Arcs       map[string]ArcState
	// Iceberg holds mystery-topic mention counts: topic → character → count.
	Iceberg map[string]map[string]int
	RNGSeed int64
	RNGPos  int64
	Turn    int
}

// Echo is a short narrative aside surfaced at most once per turn.
type Echo struct {
	Text     string `json:"text"`
	Emotion  string `json:"emotion"`
	Deferred bool   `json:"deferred"` // timing hint: surface after the node text
}

// QueuedEcho is a persisted cross-character echo awaiting delivery.
type QueuedEcho struct {
	Source   string `json:"source"`
	Flag     string `json:"flag"` // flag whose appearance scheduled this entry
	Target   string `json:"target"`
	Delay    int    `json:"delay"` // qualifying interactions remaining before delivery
	MinTrust int    `json:"min_trust"`
	Echo     Echo   `json:"echo"`
}

// DelayedGift is a persisted gift awaiting delivery, consumed exactly once.
type DelayedGift struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Item    string `json:"item"`
	Note    string `json:"note"`
	Context string `json:"context"` // what earned the gift
}

// ArcReward summarizes an arc-completion reward for the UI.
type ArcReward struct {
	ArcID           string
	Title           string
	DominantPattern string
	Bonus           int
}

// Patch is the immutable output of one resolved choice, consumed by the
// presentation layer. The UI must not re-derive pipeline decisions.
type Patch struct {
	GraphID      string
	NodeID       string
	Character    string
	Speaker      string
	Text         string
	Emotion      string
	Choices      []EvaluatedChoice
	Echo         *Echo
	Gift         *DelayedGift
	Reward       *ArcReward
	Achievements []string
}
