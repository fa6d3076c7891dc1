// Package dag implements the dependency-declared workflow form: nodes carry
// stable string identifiers and explicit predecessor edges, a scheduler
// computes concurrency-safe layers over the acyclic graph, and an executor
// runs each layer with bounded parallelism while recording per-node
// lifecycle state.
package dag

import "context"

// Node is one step of a dependency-form workflow, identified by a string ID
// unique within its graph. Execute receives the shared execution context and
// returns an arbitrary output value, which the executor records in the
// node's result.
type Node interface {
	ID() string
	Execute(ctx context.Context, ec *Context) (any, error)
}

// Validator is an optional admission check. When a node implements it and
// Validate returns false, the executor records the node as skipped and never
// invokes Execute. Nodes without Validator are always admitted.
type Validator interface {
	Validate(ctx context.Context, ec *Context) (bool, error)
}

// FuncNode wraps a function as a Node, with an optional admission check.
// This is the most common Node implementation, enabling inline node
// definitions without custom types.
type FuncNode struct {
	id       string
	fn       func(ctx context.Context, ec *Context) (any, error)
	validate func(ctx context.Context, ec *Context) (bool, error)
}

// NewFuncNode creates a Node from a function.
func NewFuncNode(id string, fn func(ctx context.Context, ec *Context) (any, error)) *FuncNode {
	return &FuncNode{id: id, fn: fn}
}

// WithValidate attaches an admission check and returns the node for
// chaining.
func (n *FuncNode) WithValidate(validate func(ctx context.Context, ec *Context) (bool, error)) *FuncNode {
	n.validate = validate
	return n
}

func (n *FuncNode) ID() string {
	return n.id
}

func (n *FuncNode) Execute(ctx context.Context, ec *Context) (any, error) {
	return n.fn(ctx, ec)
}

func (n *FuncNode) Validate(ctx context.Context, ec *Context) (bool, error) {
	if n.validate == nil {
		return true, nil
	}
	return n.validate(ctx, ec)
}
