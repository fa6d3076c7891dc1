// Package observability provides event-based observability for the workflow
// engine and its collaborators. Subsystems emit structured Events through an
// Observer instead of logging directly, so callers choose where lifecycle
// information goes (slog, fan-out, nothing).
package observability

import (
	"context"
	"log/slog"
	"time"
)

// EventType identifies the kind of event. Each subsystem defines its own
// constants using this type (e.g., "graph.run.start", "dag.node.failed").
type EventType string

// Event is an observability event emitted by a subsystem. Severity reuses
// slog levels so handlers need no translation layer.
type Event struct {
	Type      EventType
	Level     slog.Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events from subsystems for logging, tracing, or metrics.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
