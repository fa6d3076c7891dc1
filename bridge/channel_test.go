package bridge_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sangwon91/prior/bridge"
)

func TestMessageChannel_SendReceive(t *testing.T) {
	mc := bridge.NewMessageChannel[string](context.Background(), 4)

	if err := mc.Send(context.Background(), "first"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := mc.Send(context.Background(), "second"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if mc.QueueLength() != 2 {
		t.Errorf("QueueLength = %d, want 2", mc.QueueLength())
	}

	got, err := mc.Receive(context.Background())
	if err != nil || got != "first" {
		t.Errorf("Receive = %q, %v; want first, nil", got, err)
	}
	got, err = mc.Receive(context.Background())
	if err != nil || got != "second" {
		t.Errorf("Receive = %q, %v; want second, nil", got, err)
	}
}

func TestMessageChannel_TryReceive(t *testing.T) {
	mc := bridge.NewMessageChannel[int](context.Background(), 1)

	if _, ok := mc.TryReceive(); ok {
		t.Error("TryReceive on empty channel returned ok")
	}

	if err := mc.Send(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	got, ok := mc.TryReceive()
	if !ok || got != 7 {
		t.Errorf("TryReceive = %d, %v; want 7, true", got, ok)
	}
}

func TestMessageChannel_ReceiveHonorsCallerContext(t *testing.T) {
	mc := bridge.NewMessageChannel[string](context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mc.Receive(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Receive error = %v, want deadline exceeded", err)
	}
}

func TestMessageChannel_ParentContextReleasesBlockedCalls(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	mc := bridge.NewMessageChannel[string](parent, 1)

	done := make(chan error, 1)
	go func() {
		_, err := mc.Receive(context.Background())
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Receive error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked receive not released by parent cancellation")
	}
}

func TestMessageChannel_Close(t *testing.T) {
	mc := bridge.NewMessageChannel[string](context.Background(), 1)

	mc.Close()
	if !mc.IsClosed() {
		t.Error("IsClosed = false after Close")
	}
	// Idempotent.
	mc.Close()
}
