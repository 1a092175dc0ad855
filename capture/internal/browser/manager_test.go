package browser

import (
	"context"
	"errors"
	"testing"
)

func TestManager_OpenAfterClose(t *testing.T) {
	// WHAT: A closed manager refuses to launch.
	// WHY: Capture teardown must not resurrect Chrome from a late caller.
	m := NewManager(Config{})
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := m.Open(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Open after Close: got %v, want ErrClosed", err)
	}
}

func TestManager_OpenCancelledContext(t *testing.T) {
	m := NewManager(Config{})
	defer m.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Open(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
