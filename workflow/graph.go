package workflow

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Graph is a chain-form workflow: a closed, immutable set of node types plus
// an optional name. The graph itself holds no per-run state — construct it
// once and reuse it across any number of concurrent runs, each with its own
// state value.
type Graph[S, D, O any] struct {
	name       string
	members    map[reflect.Type]struct{}
	prototypes []Node[S, D, O]
}

// New creates a graph from a non-empty set of node prototypes. The prototype
// values define the graph's node-type universe; membership during a run is
// checked against the prototypes' types, not their field values.
//
// Construction fails on an empty node set, a nil prototype, or two
// prototypes of the same type.
func New[S, D, O any](name string, nodes ...Node[S, D, O]) (*Graph[S, D, O], error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("graph %q must have at least one node type", name)
	}

	members := make(map[reflect.Type]struct{}, len(nodes))
	prototypes := make([]Node[S, D, O], 0, len(nodes))
	for i, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("graph %q: node %d is nil", name, i)
		}
		t := nodeType(n)
		if _, dup := members[t]; dup {
			return nil, fmt.Errorf("graph %q: duplicate node type %s", name, typeLabel(t))
		}
		members[t] = struct{}{}
		prototypes = append(prototypes, n)
	}

	return &Graph[S, D, O]{
		name:       name,
		members:    members,
		prototypes: prototypes,
	}, nil
}

// Name returns the graph's optional name.
func (g *Graph[S, D, O]) Name() string {
	return g.name
}

// Contains reports whether the node instance's type is a member of the graph.
func (g *Graph[S, D, O]) Contains(node Node[S, D, O]) bool {
	if node == nil {
		return false
	}
	_, ok := g.members[nodeType(node)]
	return ok
}

// Run drives the graph from startNode to completion and returns the terminal
// result. It fails with ErrIncompleteRun if iteration stops without an End
// step — a defect in node successor logic.
func (g *Graph[S, D, O]) Run(ctx context.Context, startNode Node[S, D, O], state S, deps D, opts ...RunOption) (*RunResult[S, O], error) {
	run := g.Iter(startNode, state, deps, opts...)
	for _, err := range run.Steps(ctx) {
		if err != nil {
			return nil, err
		}
	}

	result := run.Result()
	if result == nil {
		return nil, ErrIncompleteRun
	}
	return result, nil
}

// Iter creates a manual-stepping driver bound to startNode, state, and deps.
// The caller advances it with GraphRun.Next or ranges over GraphRun.Steps.
func (g *Graph[S, D, O]) Iter(startNode Node[S, D, O], state S, deps D, opts ...RunOption) *GraphRun[S, D, O] {
	return newGraphRun(g, startNode, state, deps, opts...)
}

// NodeLabel returns the diagram/display label of a node or End step.
func NodeLabel(s any) string {
	if s == nil {
		return "<nil>"
	}
	if IsEnd(s) {
		return "End"
	}
	return typeLabel(reflect.TypeOf(s))
}

func nodeType[S, D, O any](n Node[S, D, O]) reflect.Type {
	return reflect.TypeOf(n)
}

// typeLabel derives a display name from a node type: pointer indirection and
// generic type arguments are stripped.
func typeLabel(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	return name
}
