package dag

import "fmt"

// Graph is a dependency-form workflow: a node registry plus predecessor and
// successor adjacency built incrementally from declared edges. Once built
// (and validated) a graph is immutable by convention and reusable across any
// number of executions, each with its own Context.
type Graph struct {
	nodes map[string]Node
	order []string // insertion order, keeps layering deterministic

	preds map[string][]string
	succs map[string][]string
}

// NewGraph creates an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		preds: make(map[string][]string),
		succs: make(map[string][]string),
	}
}

// AddNode registers a node and its declared predecessor IDs. Every
// dependency must already be registered; node IDs are unique per graph.
func (g *Graph) AddNode(node Node, dependencies ...string) error {
	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}
	id := node.ID()
	if id == "" {
		return fmt.Errorf("node ID cannot be empty")
	}
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("node %q already exists", id)
	}
	for _, dep := range dependencies {
		if _, exists := g.nodes[dep]; !exists {
			return fmt.Errorf("node %q depends on unregistered node %q", id, dep)
		}
	}

	g.nodes[id] = node
	g.order = append(g.order, id)
	for _, dep := range dependencies {
		g.preds[id] = append(g.preds[id], dep)
		g.succs[dep] = append(g.succs[dep], id)
	}
	return nil
}

// AddEdge declares an additional predecessor relationship between two
// already-registered nodes: to depends on from.
func (g *Graph) AddEdge(from, to string) error {
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("from node %q does not exist", from)
	}
	if _, exists := g.nodes[to]; !exists {
		return fmt.Errorf("to node %q does not exist", to)
	}

	g.preds[to] = append(g.preds[to], from)
	g.succs[from] = append(g.succs[from], to)
	return nil
}

// Node returns a registered node by ID.
func (g *Graph) Node(id string) (Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dependencies returns the declared predecessor IDs of a node.
func (g *Graph) Dependencies(id string) []string {
	return g.preds[id]
}

// Validate checks the graph for dependency cycles with a depth-first search
// over the predecessor relation. The returned CycleError names a node
// participating in the detected cycle.
func (g *Graph) Validate() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	state := make(map[string]int, len(g.nodes))

	var visit func(id string) *CycleError
	visit = func(id string) *CycleError {
		switch state[id] {
		case visiting:
			return &CycleError{Node: id}
		case done:
			return nil
		}

		state[id] = visiting
		for _, dep := range g.preds[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, id := range g.order {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// ExecutionOrder computes the layered execution order with Kahn's algorithm
// over the dependency counts. Each layer holds the nodes whose remaining
// unresolved dependencies reached zero together; every node in layer k has
// all of its predecessors in layers before k.
//
// A graph whose layers do not cover every node contains a cycle; this is a
// defensive check — Validate reports cycles with a better message.
func (g *Graph) ExecutionOrder() ([][]string, error) {
	remaining := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		remaining[id] = len(g.preds[id])
	}

	layers := [][]string{}
	resolved := make(map[string]bool, len(g.nodes))
	placed := 0

	for placed < len(g.nodes) {
		layer := []string{}
		for _, id := range g.order {
			if !resolved[id] && remaining[id] == 0 {
				layer = append(layer, id)
			}
		}
		if len(layer) == 0 {
			break
		}

		for _, id := range layer {
			resolved[id] = true
			for _, succ := range g.succs[id] {
				remaining[succ]--
			}
		}
		layers = append(layers, layer)
		placed += len(layer)
	}

	if placed != len(g.nodes) {
		for _, id := range g.order {
			if !resolved[id] {
				return nil, &CycleError{Node: id}
			}
		}
	}
	return layers, nil
}
