package control

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestStopTriggersCallbacksOnce(t *testing.T) {
	c := New(Config{StopFile: filepath.Join(t.TempDir(), "abort")})

	calls := 0
	c.OnStop(func() { calls++ })

	c.Stop("first")
	c.Stop("second")

	if calls != 1 {
		t.Fatalf("expected callback to run exactly once, ran %d times", calls)
	}
	if !c.Aborted() {
		t.Fatal("expected Aborted() to be true after Stop")
	}
}

func TestDoneChannelClosesOnStop(t *testing.T) {
	c := New(Config{StopFile: filepath.Join(t.TempDir(), "abort")})
	c.Stop("manual")

	select {
	case <-c.Done():
	default:
		t.Fatal("expected Done() channel to be closed")
	}
}

func TestWatchStopFileDetectsCreatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abort")
	c := New(Config{StopFile: path, PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	if err := c.CreateStopFile(); err != nil {
		t.Fatalf("failed to create stop file: %v", err)
	}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected abort to trigger after stop file appeared")
	}
}
