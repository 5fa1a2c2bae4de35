// Package graph holds the immutable dialogue graph model and the
// navigator that resolves nodes and evaluates their content against
// game state. Graphs are built once at load time and never mutated
// during play.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AbdusM/lux-story/engine/rules"
	"github.com/AbdusM/lux-story/types"
)

// Content-defect sentinels. These indicate authoring errors and are
// surfaced loudly rather than degraded.
var (
	ErrGraphNotFound    = errors.New("graph not found")
	ErrNodeNotFound     = errors.New("node not found")
	ErrNodeGated        = errors.New("node state gate not satisfied")
	ErrNoDefaultVariant = errors.New("node has no unconditional default variant")
)

// Graph is an immutable dialogue graph for one character or sector.
type Graph struct {
	ID        string
	Character string
	Start     string
	Nodes     map[string]types.Node
}

// Registry resolves node references across loaded graphs, keyed by
// graph id. Cross-graph choice targets use the form "graph/node".
type Registry struct {
	graphs map[string]*Graph
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{graphs: map[string]*Graph{}}
}

// Add registers a graph. Duplicate ids are an authoring error.
func (r *Registry) Add(g *Graph) error {
	if _, ok := r.graphs[g.ID]; ok {
		return fmt.Errorf("duplicate graph %q", g.ID)
	}
	r.graphs[g.ID] = g
	return nil
}

// Graph returns a graph by id.
func (r *Registry) Graph(id string) (*Graph, error) {
	g, ok := r.graphs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGraphNotFound, id)
	}
	return g, nil
}

// IDs returns all registered graph ids.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.graphs))
	for id := range r.graphs {
		ids = append(ids, id)
	}
	return ids
}

// Resolve resolves a node reference relative to the current graph.
// A bare "node" stays in currentGraph; "graph/node" crosses graphs.
func (r *Registry) Resolve(currentGraph, ref string) (*Graph, types.Node, error) {
	graphID := currentGraph
	nodeID := ref
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		graphID = ref[:i]
		nodeID = ref[i+1:]
	}
	g, err := r.Graph(graphID)
	if err != nil {
		return nil, types.Node{}, err
	}
	node, ok := g.Nodes[nodeID]
	if !ok {
		return nil, types.Node{}, fmt.Errorf("%w: %q in graph %q", ErrNodeNotFound, nodeID, graphID)
	}
	return g, node, nil
}

// Enter resolves a node reference and checks its state gate. A node
// with an unsatisfied Requires gate is unreachable.
func (r *Registry) Enter(currentGraph, ref string, s types.GameState) (*Graph, types.Node, error) {
	g, node, err := r.Resolve(currentGraph, ref)
	if err != nil {
		return nil, types.Node{}, err
	}
	if !rules.EvalAll(node.Requires, s) {
		return nil, types.Node{}, fmt.Errorf("%w: node %q in graph %q", ErrNodeGated, node.ID, g.ID)
	}
	return g, node, nil
}

// SelectVariant returns the first content variant whose activation
// condition is satisfied, falling back to the final unconditional
// variant. A node whose variants all carry conditions is a content
// defect, not something to hide at runtime.
func SelectVariant(node types.Node, s types.GameState) (types.Variant, error) {
	for _, v := range node.Variants {
		if len(v.When) == 0 {
			return v, nil
		}
		if rules.EvalAll(v.When, s) {
			return v, nil
		}
	}
	return types.Variant{}, fmt.Errorf("%w: node %q", ErrNoDefaultVariant, node.ID)
}

// EvaluatedChoices returns the node's choices after condition
// evaluation. Hidden choices are dropped; a choice may be visible but
// disabled. Callers never see raw unevaluated choices.
func EvaluatedChoices(node types.Node, s types.GameState) []types.EvaluatedChoice {
	var out []types.EvaluatedChoice
	for _, ch := range node.Choices {
		visible, enabled := rules.Evaluate(ch, s)
		if !visible {
			continue
		}
		out = append(out, types.EvaluatedChoice{Choice: ch, Visible: true, Enabled: enabled})
	}
	return out
}
