package bridge_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Sangwon91/prior/bridge"
	"github.com/Sangwon91/prior/protocol"
)

func newTestBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := bridge.New(context.Background(), 16, logger)
	t.Cleanup(b.Shutdown)
	return b
}

func TestBridge_FanOut(t *testing.T) {
	b := newTestBridge(t)

	first := b.Subscribe()
	defer first.Close()
	second := b.Subscribe()
	defer second.Close()

	sent := protocol.NewUserMessage("hello")
	if err := b.Send(context.Background(), sent); err != nil {
		t.Fatalf("Send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, sub := range []*bridge.Subscription{first, second} {
		got, err := sub.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if got.ID != sent.ID || got.Content != "hello" {
			t.Errorf("received %+v, want %+v", got, sent)
		}
	}
}

func TestBridge_ClosedSubscriptionStopsReceiving(t *testing.T) {
	b := newTestBridge(t)

	sub := b.Subscribe()
	sub.Close()

	if err := b.Send(context.Background(), protocol.NewUserMessage("late")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := sub.Receive(ctx); err == nil {
		t.Error("closed subscription still received a message")
	}
}

func TestBridge_EventSubscription(t *testing.T) {
	b := newTestBridge(t)

	events, cancel := b.SubscribeEvents()
	defer cancel()

	sent := protocol.NewWorkflowEvent("wf-1", "node-a", protocol.EventNodeCompleted)
	b.PublishEvent(context.Background(), sent)

	ctx, timeout := context.WithTimeout(context.Background(), time.Second)
	defer timeout()

	got, err := events.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got.ID != sent.ID || got.Kind != protocol.EventNodeCompleted {
		t.Errorf("received %+v, want %+v", got, sent)
	}
}

func TestBridge_CommandDispatch(t *testing.T) {
	b := newTestBridge(t)

	var handled []protocol.ControlCommand
	err := b.RegisterCommandHandler("wf-1", func(ctx context.Context, cmd protocol.ControlCommand) error {
		handled = append(handled, cmd)
		return nil
	})
	if err != nil {
		t.Fatalf("RegisterCommandHandler: %v", err)
	}

	// Duplicate registration is rejected.
	err = b.RegisterCommandHandler("wf-1", func(ctx context.Context, cmd protocol.ControlCommand) error {
		return nil
	})
	if err == nil {
		t.Error("expected error on duplicate registration")
	}

	cmd := protocol.NewControlCommand("wf-1", protocol.CommandPause)
	if err := b.HandleCommand(context.Background(), cmd); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	if len(handled) != 1 || handled[0].ID != cmd.ID {
		t.Errorf("handled = %v, want the dispatched command", handled)
	}

	// Commands for unknown workflows are dropped without error.
	other := protocol.NewControlCommand("unknown", protocol.CommandCancel)
	if err := b.HandleCommand(context.Background(), other); err != nil {
		t.Errorf("unexpected error for unhandled workflow: %v", err)
	}

	// Handler failures surface to the caller.
	handlerErr := errors.New("refused")
	if err := b.RegisterCommandHandler("wf-2", func(ctx context.Context, cmd protocol.ControlCommand) error {
		return handlerErr
	}); err != nil {
		t.Fatal(err)
	}
	err = b.HandleCommand(context.Background(), protocol.NewControlCommand("wf-2", protocol.CommandResume))
	if !errors.Is(err, handlerErr) {
		t.Errorf("HandleCommand error = %v, want wrapped handler error", err)
	}

	b.UnregisterCommandHandler("wf-1")
	if err := b.HandleCommand(context.Background(), cmd); err != nil {
		t.Errorf("unexpected error after unregister: %v", err)
	}
	if len(handled) != 1 {
		t.Error("handler invoked after unregister")
	}
}

func TestBridge_ShutdownReleasesSubscribers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := bridge.New(context.Background(), 1, logger)

	sub := b.Subscribe()
	done := make(chan error, 1)
	go func() {
		_, err := sub.Receive(context.Background())
		done <- err
	}()

	b.Shutdown()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected error after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber not released by shutdown")
	}
}
