// Package bridge routes chat messages, workflow events, and control commands
// between the agent runtime and connected frontends. The Bridge itself is
// transport-agnostic; Server and Client expose it over WebSocket.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Sangwon91/prior/protocol"
)

// CommandHandler processes control commands addressed to one workflow.
type CommandHandler func(ctx context.Context, command protocol.ControlCommand) error

// Subscription is a live feed of chat messages from the bridge. Close it
// when done to stop receiving.
type Subscription struct {
	id      string
	channel *MessageChannel[protocol.ChatMessage]
	bridge  *Bridge
}

// Receive blocks until the next message arrives.
func (s *Subscription) Receive(ctx context.Context) (protocol.ChatMessage, error) {
	return s.channel.Receive(ctx)
}

// Close detaches the subscription from the bridge.
func (s *Subscription) Close() {
	s.bridge.unsubscribe(s.id)
}

// Bridge fans chat messages out to every subscriber and dispatches control
// commands to per-workflow handlers.
type Bridge struct {
	subscribers map[string]*MessageChannel[protocol.ChatMessage]
	subsMutex   sync.RWMutex

	eventSubscribers map[string]*MessageChannel[protocol.WorkflowEvent]
	eventsMutex      sync.RWMutex

	commandHandlers map[string]CommandHandler
	handlersMutex   sync.RWMutex

	bufferSize int
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a bridge bound to ctx; cancelling ctx releases all blocked
// subscribers. A nil logger falls back to slog.Default.
func New(ctx context.Context, bufferSize int, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	bridgeCtx, cancel := context.WithCancel(ctx)

	return &Bridge{
		subscribers:      make(map[string]*MessageChannel[protocol.ChatMessage]),
		eventSubscribers: make(map[string]*MessageChannel[protocol.WorkflowEvent]),
		commandHandlers:  make(map[string]CommandHandler),
		bufferSize:       bufferSize,
		logger:           logger,
		ctx:              bridgeCtx,
		cancel:           cancel,
	}
}

// Send delivers a chat message to all current subscribers. Subscribers with a
// full buffer are skipped rather than blocking the sender.
func (b *Bridge) Send(ctx context.Context, message protocol.ChatMessage) error {
	b.subsMutex.RLock()
	channels := make([]*MessageChannel[protocol.ChatMessage], 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		channels = append(channels, ch)
	}
	b.subsMutex.RUnlock()

	delivered := 0
	for _, ch := range channels {
		select {
		case ch.channel <- message:
			delivered++
		default:
			b.logger.WarnContext(ctx, "subscriber buffer full, message dropped",
				slog.String("message_id", message.ID),
			)
		}
	}

	b.logger.DebugContext(ctx, "chat message routed",
		slog.String("message_id", message.ID),
		slog.String("role", string(message.Role)),
		slog.Int("delivered", delivered),
	)
	return nil
}

// Subscribe attaches a new chat message feed.
func (b *Bridge) Subscribe() *Subscription {
	id := uuid.NewString()
	channel := NewMessageChannel[protocol.ChatMessage](b.ctx, b.bufferSize)

	b.subsMutex.Lock()
	b.subscribers[id] = channel
	b.subsMutex.Unlock()

	return &Subscription{id: id, channel: channel, bridge: b}
}

func (b *Bridge) unsubscribe(id string) {
	b.subsMutex.Lock()
	delete(b.subscribers, id)
	b.subsMutex.Unlock()
}

// PublishEvent delivers a workflow event to all event subscribers.
func (b *Bridge) PublishEvent(ctx context.Context, event protocol.WorkflowEvent) {
	b.eventsMutex.RLock()
	channels := make([]*MessageChannel[protocol.WorkflowEvent], 0, len(b.eventSubscribers))
	for _, ch := range b.eventSubscribers {
		channels = append(channels, ch)
	}
	b.eventsMutex.RUnlock()

	for _, ch := range channels {
		select {
		case ch.channel <- event:
		default:
			b.logger.WarnContext(ctx, "event subscriber buffer full, event dropped",
				slog.String("workflow_id", event.WorkflowID),
				slog.String("kind", string(event.Kind)),
			)
		}
	}
}

// SubscribeEvents attaches a new workflow event feed. The returned cancel
// function detaches it.
func (b *Bridge) SubscribeEvents() (*MessageChannel[protocol.WorkflowEvent], func()) {
	id := uuid.NewString()
	channel := NewMessageChannel[protocol.WorkflowEvent](b.ctx, b.bufferSize)

	b.eventsMutex.Lock()
	b.eventSubscribers[id] = channel
	b.eventsMutex.Unlock()

	return channel, func() {
		b.eventsMutex.Lock()
		delete(b.eventSubscribers, id)
		b.eventsMutex.Unlock()
	}
}

// RegisterCommandHandler routes control commands for workflowID to handler.
func (b *Bridge) RegisterCommandHandler(workflowID string, handler CommandHandler) error {
	b.handlersMutex.Lock()
	defer b.handlersMutex.Unlock()

	if _, exists := b.commandHandlers[workflowID]; exists {
		return fmt.Errorf("command handler already registered: %s", workflowID)
	}
	b.commandHandlers[workflowID] = handler
	return nil
}

// UnregisterCommandHandler removes the handler for workflowID, if any.
func (b *Bridge) UnregisterCommandHandler(workflowID string) {
	b.handlersMutex.Lock()
	delete(b.commandHandlers, workflowID)
	b.handlersMutex.Unlock()
}

// HandleCommand dispatches a control command to its workflow's handler.
// Commands for workflows without a handler are logged and dropped.
func (b *Bridge) HandleCommand(ctx context.Context, command protocol.ControlCommand) error {
	b.handlersMutex.RLock()
	handler, exists := b.commandHandlers[command.WorkflowID]
	b.handlersMutex.RUnlock()

	if !exists {
		b.logger.DebugContext(ctx, "no handler for control command",
			slog.String("workflow_id", command.WorkflowID),
			slog.String("kind", string(command.Kind)),
		)
		return nil
	}

	if err := handler(ctx, command); err != nil {
		return fmt.Errorf("command handler failed for %s: %w", command.WorkflowID, err)
	}
	return nil
}

// Shutdown cancels the bridge context, releasing all blocked subscribers.
func (b *Bridge) Shutdown() {
	b.cancel()
}
