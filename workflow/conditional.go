package workflow

import "context"

// Conditional is a chain-form branch node: it evaluates a predicate over the
// run context and returns one of two pre-built successor steps. It is pure
// dispatch and mutates no state of its own.
type Conditional[S, D, O any] struct {
	NodeBase

	// Predicate selects the branch. It must not be nil.
	Predicate func(rc *RunContext[S, D]) bool

	// IfTrue is returned when the predicate holds, IfFalse otherwise.
	// Either may be a node of the same graph or an End step.
	IfTrue  Step[S, D, O]
	IfFalse Step[S, D, O]
}

func (c Conditional[S, D, O]) Run(ctx context.Context, rc *RunContext[S, D]) (Step[S, D, O], error) {
	if c.Predicate(rc) {
		return c.IfTrue, nil
	}
	return c.IfFalse, nil
}

// Successors declares both branches for diagram export.
func (c Conditional[S, D, O]) Successors() []Step[S, D, O] {
	return []Step[S, D, O]{c.IfTrue, c.IfFalse}
}
