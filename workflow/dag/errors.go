package dag

import "fmt"

// CycleError reports that the graph's dependency relation contains a cycle.
// Node names one node participating in the detected cycle.
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph contains a cycle through node %q", e.Node)
}

// NodeError wraps an error raised by a node's Execute (or Validate) method
// with the node's identifier. The same error is also captured in the node's
// lifecycle record, so callers running with ContinueOnError can inspect
// failures after the run.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
