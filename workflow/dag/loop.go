package dag

import (
	"context"
	"fmt"
)

// LoopNode repeatedly evaluates a predicate, advancing an iteration counter
// in the context, until the predicate is false or the iteration bound is
// reached. The final iteration count is the node's output.
//
// The node tracks iteration state only; the body node it references is
// scheduled by the graph like any other dependent.
type LoopNode struct {
	id            string
	bodyID        string
	condition     func(ec *Context) bool
	maxIterations int
}

// NewLoopNode creates a bounded iteration node. condition returns true to
// continue looping; maxIterations caps the loop regardless of the condition.
func NewLoopNode(id, bodyID string, condition func(ec *Context) bool, maxIterations int) *LoopNode {
	if maxIterations <= 0 {
		maxIterations = 100
	}
	return &LoopNode{
		id:            id,
		bodyID:        bodyID,
		condition:     condition,
		maxIterations: maxIterations,
	}
}

func (n *LoopNode) ID() string {
	return n.id
}

// BodyID returns the ID of the loop body node.
func (n *LoopNode) BodyID() string {
	return n.bodyID
}

// Execute runs the loop. Each pass writes the current count to the
// "<id>_iteration" context key; "<id>_final_iteration" holds the count at
// exit.
func (n *LoopNode) Execute(ctx context.Context, ec *Context) (any, error) {
	iterations := 0
	ec.Set(fmt.Sprintf("%s_iteration", n.id), 0)

	for n.condition(ec) && iterations < n.maxIterations {
		if err := ctx.Err(); err != nil {
			return iterations, err
		}
		iterations++
		ec.Set(fmt.Sprintf("%s_iteration", n.id), iterations)
	}

	ec.Set(fmt.Sprintf("%s_final_iteration", n.id), iterations)
	return iterations, nil
}
