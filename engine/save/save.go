// Package save implements JSON serialization and deserialization of
// game state, including the RNG seed and position needed to reproduce
// a session exactly.
package save

import (
	"encoding/json"

	"github.com/AbdusM/lux-story/types"
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version    string                          `json:"version"`
	Turn       int                             `json:"turn"`
	GraphID    string                          `json:"graph_id"`
	NodeID     string                          `json:"node_id"`
	Characters map[string]types.CharacterState `json:"characters"`
	Flags      map[string]bool                 `json:"flags"`
	Patterns   map[string]int                  `json:"patterns"`
	Arcs       map[string]types.ArcState       `json:"arcs"`
	Iceberg    map[string]map[string]int       `json:"iceberg"`
	RNGSeed    int64                           `json:"rng_seed"`
	RNGPos     int64                           `json:"rng_pos"`
}

// Save serializes game state to JSON bytes.
func Save(s types.GameState, version string) ([]byte, error) {
	data := SaveData{
		Version:    version,
		Turn:       s.Turn,
		GraphID:    s.GraphID,
		NodeID:     s.NodeID,
		Characters: s.Characters,
		Flags:      s.Flags,
		Patterns:   s.Patterns,
		Arcs:       s.Arcs,
		Iceberg:    s.Iceberg,
		RNGSeed:    s.RNGSeed,
		RNGPos:     s.RNGPos,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData, ensuring maps are never
// nil afterwards.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Characters == nil {
		sd.Characters = map[string]types.CharacterState{}
	}
	for id, cs := range sd.Characters {
		if cs.Knowledge == nil {
			cs.Knowledge = map[string]bool{}
		}
		if cs.History == nil {
			cs.History = []string{}
		}
		sd.Characters[id] = cs
	}
	if sd.Flags == nil {
		sd.Flags = map[string]bool{}
	}
	if sd.Patterns == nil {
		sd.Patterns = map[string]int{}
	}
	if sd.Arcs == nil {
		sd.Arcs = map[string]types.ArcState{}
	}
	if sd.Iceberg == nil {
		sd.Iceberg = map[string]map[string]int{}
	}
	return &sd, nil
}

// State reconstructs a GameState from loaded save data.
func (sd *SaveData) State() types.GameState {
	return types.GameState{
		GraphID:    sd.GraphID,
		NodeID:     sd.NodeID,
		Characters: sd.Characters,
		Flags:      sd.Flags,
		Patterns:   sd.Patterns,
		Arcs:       sd.Arcs,
		Iceberg:    sd.Iceberg,
		RNGSeed:    sd.RNGSeed,
		RNGPos:     sd.RNGPos,
		Turn:       sd.Turn,
	}
}
