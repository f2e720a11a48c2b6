package shutdown

import (
	"context"
	"testing"
	"time"
)

func TestShutdownRunsInReverseOrder(t *testing.T) {
	mgr := New(5 * time.Second)

	var order []string
	mgr.Register(func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	mgr.Register(func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	mgr.Shutdown()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("Shutdown order = %v, want [second first]", order)
	}
}

func TestWaitWithContextCancellation(t *testing.T) {
	mgr := New(5 * time.Second)

	ran := false
	mgr.Register(func(ctx context.Context) error {
		ran = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mgr.WaitWithContext(ctx)
	if err != context.Canceled {
		t.Fatalf("WaitWithContext = %v, want context.Canceled", err)
	}
	if ran {
		t.Error("Shutdown functions ran on context cancellation")
	}
}

func TestWaitWithContextTimeout(t *testing.T) {
	mgr := New(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := mgr.WaitWithContext(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("WaitWithContext = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("WaitWithContext blocked for %v after deadline", elapsed)
	}
}

func TestCloseResource(t *testing.T) {
	mgr := New(5 * time.Second)

	c := &fakeCloser{}
	mgr.Register(CloseResource(c, "store"))
	mgr.Shutdown()

	if !c.closed {
		t.Error("CloseResource did not close the resource")
	}
}

type fakeCloser struct {
	closed bool
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return nil
}
