package protocol

import "time"

// EventKind classifies workflow lifecycle events published over the bridge.
type EventKind string

const (
	EventRunStarted    EventKind = "run_started"
	EventRunCompleted  EventKind = "run_completed"
	EventRunFailed     EventKind = "run_failed"
	EventNodeStarted   EventKind = "node_started"
	EventNodeCompleted EventKind = "node_completed"
	EventNodeFailed    EventKind = "node_failed"
)

// WorkflowEvent reports a state change of a running workflow to subscribers.
type WorkflowEvent struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	NodeID     string         `json:"node_id,omitempty"`
	Kind       EventKind      `json:"kind"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewWorkflowEvent creates an event with a fresh ID and the current time.
func NewWorkflowEvent(workflowID, nodeID string, kind EventKind) WorkflowEvent {
	return WorkflowEvent{
		ID:         generateID(),
		WorkflowID: workflowID,
		NodeID:     nodeID,
		Kind:       kind,
		Timestamp:  time.Now(),
	}
}

// CommandKind classifies control commands sent toward a running workflow.
type CommandKind string

const (
	CommandPause  CommandKind = "pause"
	CommandResume CommandKind = "resume"
	CommandCancel CommandKind = "cancel"
)

// ControlCommand instructs the runtime to change a workflow's execution.
type ControlCommand struct {
	ID         string      `json:"id"`
	WorkflowID string      `json:"workflow_id"`
	Kind       CommandKind `json:"kind"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewControlCommand creates a command with a fresh ID and the current time.
func NewControlCommand(workflowID string, kind CommandKind) ControlCommand {
	return ControlCommand{
		ID:         generateID(),
		WorkflowID: workflowID,
		Kind:       kind,
		Timestamp:  time.Now(),
	}
}
