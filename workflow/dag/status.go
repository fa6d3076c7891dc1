package dag

// Status is the lifecycle state of a node within one execution. Valid
// transitions are pending → running → {completed | failed}; skipped is a
// terminal state reached directly from pending when admission fails. There
// is no transition back to pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Terminal reports whether the status is final for the execution.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// Result is the per-node lifecycle record of one execution: the node's
// current status plus its output on completion or captured error on failure.
type Result struct {
	NodeID string
	Status Status
	Output any
	Err    error
}
