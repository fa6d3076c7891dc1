package bridge

import (
	"context"

	"github.com/Sangwon91/prior/observability"
	"github.com/Sangwon91/prior/protocol"
)

// lifecycle event types emitted by the two engine forms, mapped to the
// protocol kinds frontends understand.
var eventKinds = map[observability.EventType]protocol.EventKind{
	"graph.run.start":     protocol.EventRunStarted,
	"graph.run.complete":  protocol.EventRunCompleted,
	"graph.node.start":    protocol.EventNodeStarted,
	"graph.node.complete": protocol.EventNodeCompleted,
	"graph.node.error":    protocol.EventNodeFailed,
	"dag.run.start":       protocol.EventRunStarted,
	"dag.run.complete":    protocol.EventRunCompleted,
	"dag.run.aborted":     protocol.EventRunFailed,
	"dag.node.start":      protocol.EventNodeStarted,
	"dag.node.complete":   protocol.EventNodeCompleted,
	"dag.node.failed":     protocol.EventNodeFailed,
}

// EventObserver forwards engine lifecycle events to a Bridge as workflow
// events, making run progress visible to connected frontends. Events with
// no protocol mapping are ignored.
type EventObserver struct {
	bridge *Bridge
}

// NewEventObserver creates an observer publishing to bridge.
func NewEventObserver(bridge *Bridge) *EventObserver {
	return &EventObserver{bridge: bridge}
}

func (o *EventObserver) OnEvent(ctx context.Context, event observability.Event) {
	kind, ok := eventKinds[event.Type]
	if !ok {
		return
	}

	nodeID, _ := event.Data["node"].(string)
	wfEvent := protocol.NewWorkflowEvent(event.Source, nodeID, kind)
	wfEvent.Data = event.Data
	o.bridge.PublishEvent(ctx, wfEvent)
}
