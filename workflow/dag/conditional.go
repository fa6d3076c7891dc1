package dag

import "context"

// ConditionalNode evaluates a predicate and records which of two dependent
// branch IDs should execute. The selection is exposed through the node's
// output and a context key; it does not by itself stop the executor from
// running both branch nodes — compose SelectedBranchValidator onto the
// branch nodes so only the selected one is admitted.
type ConditionalNode struct {
	id        string
	predicate func(ec *Context) bool
	trueID    string
	falseID   string
}

// NewConditionalNode creates a branch-selection node. trueID and falseID
// name the dependent nodes representing each branch.
func NewConditionalNode(id string, predicate func(ec *Context) bool, trueID, falseID string) *ConditionalNode {
	return &ConditionalNode{
		id:        id,
		predicate: predicate,
		trueID:    trueID,
		falseID:   falseID,
	}
}

func (n *ConditionalNode) ID() string {
	return n.id
}

// Execute evaluates the predicate and records the selected branch as both
// the node output and the "<id>_branch" context key.
func (n *ConditionalNode) Execute(ctx context.Context, ec *Context) (any, error) {
	selected := n.falseID
	if n.predicate(ec) {
		selected = n.trueID
	}

	ec.Set(n.id+"_branch", selected)
	return map[string]any{"branch": selected}, nil
}

// SelectedBranchValidator returns an admission check that passes only when
// the named conditional node selected branchID. Attach it to each branch
// node (via FuncNode.WithValidate or a custom Validator) to make branch
// selection exclusive: the unselected branch is recorded as skipped.
func SelectedBranchValidator(conditionalID, branchID string) func(ctx context.Context, ec *Context) (bool, error) {
	return func(ctx context.Context, ec *Context) (bool, error) {
		selected, ok := ec.Get(conditionalID + "_branch")
		if !ok {
			return false, nil
		}
		return selected == branchID, nil
	}
}
