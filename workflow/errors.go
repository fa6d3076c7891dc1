package workflow

import (
	"errors"
	"fmt"
)

// ErrIncompleteRun is returned by Graph.Run when iteration stops without an
// End step ever being produced. It indicates a defect in node successor
// logic, not a recoverable condition.
var ErrIncompleteRun = errors.New("graph run finished without producing an End step")

// NotInGraphError reports an attempt to drive a node instance whose type is
// not a member of the bound graph.
type NotInGraphError struct {
	// Node is the type name of the offending node instance.
	Node string

	// Graph is the name of the graph the run is bound to (may be empty for
	// unnamed graphs).
	Graph string
}

func (e *NotInGraphError) Error() string {
	if e.Graph == "" {
		return fmt.Sprintf("node %s is not in the graph", e.Node)
	}
	return fmt.Sprintf("node %s is not in graph %q", e.Node, e.Graph)
}

// NotAdmittedError reports that a node's Validate check returned false, so
// the driver refused to execute it.
type NotAdmittedError struct {
	Node string
}

func (e *NotAdmittedError) Error() string {
	return fmt.Sprintf("node %s was not admitted for execution", e.Node)
}

// NodeError wraps an error raised by a node's Run (or Validate) method with
// the node's type name. Unwrap exposes the original error for errors.Is and
// errors.As.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s failed: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
