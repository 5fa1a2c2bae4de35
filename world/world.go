// Package world loads the WorldRegistry: the read-mostly configuration
// describing characters, relationships, story arcs, synthesis puzzles,
// the knowledge catalog, iceberg topics, and tier-2 commentary. It is
// built once at startup and passed explicitly to whatever needs it —
// there is no ambient global registry.
package world

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AbdusM/lux-story/types"
)

// Character is one registered narrative character.
type Character struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// TradeMinTrust is the trust level at which the character becomes
	// willing to trade information. 0 disables trading.
	TradeMinTrust int `yaml:"trade_min_trust"`
}

// Relationship is an undirected edge between two characters.
type Relationship struct {
	A         string `yaml:"a"`
	B         string `yaml:"b"`
	Intensity int    `yaml:"intensity"`
}

// ConditionSpec is the YAML-friendly form of a condition.
type ConditionSpec struct {
	Type      string `yaml:"type"`
	Character string `yaml:"character"`
	Pattern   string `yaml:"pattern"`
	Flag      string `yaml:"flag"`
	Min       *int   `yaml:"min"`
	Max       *int   `yaml:"max"`
	Value     int    `yaml:"value"`
}

// Condition converts the YAML form to the engine condition form.
func (cs ConditionSpec) Condition() types.Condition {
	params := map[string]any{}
	switch cs.Type {
	case "trust_range":
		params["character"] = cs.Character
		if cs.Min != nil {
			params["min"] = *cs.Min
		}
		if cs.Max != nil {
			params["max"] = *cs.Max
		}
	case "pattern_min":
		params["pattern"] = cs.Pattern
		params["value"] = cs.Value
	case "flag_set", "flag_not":
		params["flag"] = cs.Flag
	case "knows", "knows_not":
		params["character"] = cs.Character
		params["flag"] = cs.Flag
	}
	return types.Condition{Type: cs.Type, Params: params}
}

// Chapter is one chapter of a story arc, completed once every node in
// its required set has been visited.
type Chapter struct {
	ID    string   `yaml:"id"`
	Nodes []string `yaml:"nodes"`
}

// GiftSpec describes a gift scheduled by an arc reward.
type GiftSpec struct {
	From string `yaml:"from"`
	Item string `yaml:"item"`
	Note string `yaml:"note"`
}

// Reward is an arc-completion reward.
type Reward struct {
	Title    string    `yaml:"title"`
	Bonus    int       `yaml:"bonus"`
	EchoText string    `yaml:"echo_text"`
	Gift     *GiftSpec `yaml:"gift"`
	// Announce lists characters who hear about the completion through
	// scheduled cross-character echoes.
	Announce []string `yaml:"announce"`
}

// Arc is a multi-chapter sub-story.
type Arc struct {
	ID         string          `yaml:"id"`
	Title      string          `yaml:"title"`
	UnlockWhen []ConditionSpec `yaml:"unlock_when"`
	Chapters   []Chapter       `yaml:"chapters"`
	Reward     Reward          `yaml:"reward"`
}

// Puzzle is a synthesis puzzle that auto-completes once the player has
// accumulated its full required knowledge set. Requires entries are
// global flags, or "character:flag" for character-scoped knowledge.
type Puzzle struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Requires   []string `yaml:"requires"`
	Hint       string   `yaml:"hint"`
	EchoText   string   `yaml:"echo_text"`
	GrantsFlag string   `yaml:"grants_flag"`
}

// KnowledgeItem catalogs a discoverable piece of knowledge.
// Character is empty for global flags.
type KnowledgeItem struct {
	Flag      string `yaml:"flag"`
	Character string `yaml:"character"`
	Title     string `yaml:"title"`
}

// Topic is an iceberg/mystery topic that becomes investigable once it
// has been mentioned Threshold times.
type Topic struct {
	ID        string `yaml:"id"`
	Threshold int    `yaml:"threshold"`
	EchoText  string `yaml:"echo_text"`
}

// Comment is a tier-2 evaluator entry: pattern-recognition commentary
// or a one-time magical-realism beat. Each comment surfaces at most
// once per session, tracked by a persisted shown-set.
type Comment struct {
	ID      string `yaml:"id"`
	Kind    string `yaml:"kind"` // "pattern" or "magical"
	Pattern string `yaml:"pattern"`
	Min     int    `yaml:"min"`
	Flag    string `yaml:"flag"`
	Text    string `yaml:"text"`
	Emotion string `yaml:"emotion"`
}

// Gossip configures deterministic gossip propagation.
type Gossip struct {
	Hub      string `yaml:"hub"`
	Delay    int    `yaml:"delay"`
	MinTrust int    `yaml:"min_trust"`
	// Text is the echo template; "{source}" expands to the source
	// character's display name.
	Text string `yaml:"text"`
}

// World is the complete registry.
type World struct {
	Characters    []Character     `yaml:"characters"`
	Relationships []Relationship  `yaml:"relationships"`
	Patterns      []string        `yaml:"patterns"`
	Arcs          []Arc           `yaml:"arcs"`
	Puzzles       []Puzzle        `yaml:"puzzles"`
	Knowledge     []KnowledgeItem `yaml:"knowledge"`
	Topics        []Topic         `yaml:"topics"`
	Comments      []Comment       `yaml:"comments"`
	Gossip        Gossip          `yaml:"gossip"`

	byID map[string]Character
}

// Load reads and validates a world registry from a YAML file.
func Load(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}
	var w World
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing world file %s: %w", path, err)
	}
	w.index()
	if err := w.validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

func (w *World) index() {
	w.byID = make(map[string]Character, len(w.Characters))
	for _, c := range w.Characters {
		w.byID[c.ID] = c
	}
}

// Character looks up a character by id. Worlds built as literals have
// no index yet; fall back to a scan so they behave the same as loaded
// ones.
func (w *World) Character(id string) (Character, bool) {
	if w.byID == nil {
		for _, c := range w.Characters {
			if c.ID == id {
				return c, true
			}
		}
		return Character{}, false
	}
	c, ok := w.byID[id]
	return c, ok
}

// Name returns the display name for a character id, falling back to
// the id itself.
func (w *World) Name(id string) string {
	if c, ok := w.Character(id); ok && c.Name != "" {
		return c.Name
	}
	return id
}

// CharacterIDs returns all character ids, sorted.
func (w *World) CharacterIDs() []string {
	ids := make([]string, 0, len(w.Characters))
	for _, c := range w.Characters {
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)
	return ids
}

// Neighbor is a relationship edge seen from one side.
type Neighbor struct {
	ID        string
	Intensity int
}

// Neighbors returns the characters related to id, ordered by intensity
// descending, then lexicographic id. The ordering is a documented
// contract: gossip target selection depends on it.
func (w *World) Neighbors(id string) []Neighbor {
	var out []Neighbor
	for _, r := range w.Relationships {
		switch id {
		case r.A:
			out = append(out, Neighbor{ID: r.B, Intensity: r.Intensity})
		case r.B:
			out = append(out, Neighbor{ID: r.A, Intensity: r.Intensity})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Intensity != out[j].Intensity {
			return out[i].Intensity > out[j].Intensity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ValidationError collects all world validation errors.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("world validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validConditionTypes = map[string]bool{
	"trust_range": true,
	"pattern_min": true,
	"flag_set":    true,
	"flag_not":    true,
	"knows":       true,
	"knows_not":   true,
}

func (w *World) validate() error {
	ve := &ValidationError{}
	addErr := func(format string, args ...any) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(format, args...))
	}

	if len(w.Characters) == 0 {
		addErr("at least one character is required")
	}
	for _, c := range w.Characters {
		if c.ID == "" {
			addErr("character with empty id")
		}
	}

	knownChar := func(id string) bool {
		_, ok := w.byID[id]
		return ok
	}
	patterns := map[string]bool{}
	for _, p := range w.Patterns {
		patterns[p] = true
	}

	for _, r := range w.Relationships {
		if !knownChar(r.A) || !knownChar(r.B) {
			addErr("relationship %s–%s references unknown character", r.A, r.B)
		}
		if r.A == r.B {
			addErr("relationship %s–%s is self-referential", r.A, r.B)
		}
	}

	for _, a := range w.Arcs {
		if len(a.Chapters) == 0 {
			addErr("arc %q has no chapters", a.ID)
		}
		for _, cs := range a.UnlockWhen {
			if !validConditionTypes[cs.Type] {
				addErr("arc %q unlock condition has unknown type %q", a.ID, cs.Type)
			}
			if cs.Character != "" && !knownChar(cs.Character) {
				addErr("arc %q unlock condition references unknown character %q", a.ID, cs.Character)
			}
			if cs.Pattern != "" && len(patterns) > 0 && !patterns[cs.Pattern] {
				addErr("arc %q unlock condition references unknown pattern %q", a.ID, cs.Pattern)
			}
		}
		for _, ch := range a.Chapters {
			if len(ch.Nodes) == 0 {
				addErr("arc %q chapter %q has no required nodes", a.ID, ch.ID)
			}
		}
		for _, target := range a.Reward.Announce {
			if !knownChar(target) {
				addErr("arc %q reward announces to unknown character %q", a.ID, target)
			}
		}
		if g := a.Reward.Gift; g != nil && g.From != "" && !knownChar(g.From) {
			addErr("arc %q reward gift from unknown character %q", a.ID, g.From)
		}
	}

	for _, p := range w.Puzzles {
		if len(p.Requires) == 0 {
			addErr("puzzle %q requires no knowledge", p.ID)
		}
		for _, req := range p.Requires {
			if c, _, ok := strings.Cut(req, ":"); ok && !knownChar(c) {
				addErr("puzzle %q requires knowledge of unknown character %q", p.ID, c)
			}
		}
	}

	for _, k := range w.Knowledge {
		if k.Character != "" && !knownChar(k.Character) {
			addErr("knowledge item %q scoped to unknown character %q", k.Flag, k.Character)
		}
	}

	for _, t := range w.Topics {
		if t.Threshold <= 0 {
			addErr("topic %q has non-positive threshold", t.ID)
		}
	}

	for _, c := range w.Comments {
		if c.Kind != "pattern" && c.Kind != "magical" {
			addErr("comment %q has unknown kind %q", c.ID, c.Kind)
		}
		if c.Kind == "pattern" && c.Pattern == "" {
			addErr("comment %q of kind pattern names no pattern", c.ID)
		}
		if c.Kind == "magical" && c.Flag == "" {
			addErr("comment %q of kind magical names no flag", c.ID)
		}
	}

	if w.Gossip.Hub != "" && !knownChar(w.Gossip.Hub) {
		addErr("gossip hub %q is not a known character", w.Gossip.Hub)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
