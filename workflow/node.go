// Package workflow implements a chain-driven workflow graph: a closed set of
// typed node variants sharing one mutable state value, where each node
// computes its own successor and a terminal End step carries the run output.
//
// A Graph is built once from node prototypes and reused across runs; each run
// owns a fresh state value. Execution is strictly sequential — one node is in
// flight per GraphRun, so a node always observes every state mutation made by
// its predecessor.
//
//	graph, err := workflow.New[Counter, workflow.NoDeps, int]("count",
//	    Increment{}, Check{})
//	result, err := graph.Run(ctx, Increment{}, Counter{}, workflow.NoDeps{})
package workflow

import "context"

// RunContext carries the per-run mutable state and read-only dependencies
// into a node invocation. State mutations written back to the context are
// visible to every subsequent node in the same run.
type RunContext[S, D any] struct {
	// State is the single mutable record threaded through the run.
	State S

	// Deps holds caller-injected read-only services (may be the zero value
	// when the run was started without dependencies).
	Deps D
}

// NoDeps is the dependency type for graphs whose nodes need no injected
// services.
type NoDeps struct{}

// Step is the closed result set of a node run: either another Node of the
// same graph or an End. The set is sealed — node types gain membership by
// embedding NodeBase, terminal steps are End values.
type Step[S, D, O any] interface {
	step()
}

// Node is one step of a chain-form workflow. Run receives the run context
// and returns the successor step. An error aborts the run and propagates to
// the caller unmodified (wrapped only for node identification).
type Node[S, D, O any] interface {
	Step[S, D, O]
	Run(ctx context.Context, rc *RunContext[S, D]) (Step[S, D, O], error)
}

// NodeBase seals the Step interface for node implementations. Embed it in
// every node type of a graph.
type NodeBase struct{}

func (NodeBase) step() {}

// End is the terminal marker: returning it from Run stops the chain and
// records Output as the run result.
type End[O any] struct {
	Output O
}

func (End[O]) step() {}
func (End[O]) end()  {}

// IsEnd reports whether a step is a terminal End marker.
func IsEnd(s any) bool {
	_, ok := s.(interface{ end() })
	return ok
}

// Validator is an optional admission check a node type may implement. The
// driver refuses to execute a node whose Validate returns false. Nodes that
// do not implement Validator are always admitted.
type Validator[S, D any] interface {
	Validate(ctx context.Context, rc *RunContext[S, D]) (bool, error)
}

// SuccessorProvider is an optional capability a node type may implement to
// declare, as plain data, the finite set of steps its Run can return. The
// diagram exporter reads this declared set; node types without it appear in
// diagrams as sources of no edges.
type SuccessorProvider[S, D, O any] interface {
	Successors() []Step[S, D, O]
}
