package bridge

import (
	"context"
	"sync/atomic"
)

// MessageChannel is a bounded, context-aware message queue. Receive blocks
// until a message arrives or either the caller's context or the channel's
// parent context is cancelled.
type MessageChannel[T any] struct {
	channel    chan T
	context    context.Context
	bufferSize int
	closed     atomic.Int32
}

// NewMessageChannel creates a channel bound to ctx. When ctx is cancelled,
// pending Send and Receive calls return its error.
func NewMessageChannel[T any](ctx context.Context, bufferSize int) *MessageChannel[T] {
	return &MessageChannel[T]{
		channel:    make(chan T, bufferSize),
		context:    ctx,
		bufferSize: bufferSize,
	}
}

// Send enqueues a message, blocking while the buffer is full.
func (mc *MessageChannel[T]) Send(ctx context.Context, message T) error {
	select {
	case mc.channel <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-mc.context.Done():
		return mc.context.Err()
	}
}

// Receive dequeues the next message, blocking until one is available.
func (mc *MessageChannel[T]) Receive(ctx context.Context) (T, error) {
	select {
	case message := <-mc.channel:
		return message, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-mc.context.Done():
		var zero T
		return zero, mc.context.Err()
	}
}

// TryReceive dequeues the next message without blocking.
func (mc *MessageChannel[T]) TryReceive() (T, bool) {
	select {
	case message := <-mc.channel:
		return message, true
	default:
		var zero T
		return zero, false
	}
}

// Close makes the channel unusable for sending. Safe to call more than once.
func (mc *MessageChannel[T]) Close() {
	if mc.closed.CompareAndSwap(0, 1) {
		close(mc.channel)
	}
}

func (mc *MessageChannel[T]) IsClosed() bool {
	return mc.closed.Load() == 1
}

// QueueLength reports the number of buffered messages.
func (mc *MessageChannel[T]) QueueLength() int {
	return len(mc.channel)
}
