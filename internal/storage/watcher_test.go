package storage

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ExternalEditNotifies(t *testing.T) {
	f := tempFile(t)
	if err := f.SaveAll(sampleRefs()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go Watch(ctx, f, quietLogger(), func() { calls.Add(1) })
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(f.Path(), []byte(`{"references": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "external edit did not trigger onChange")
}

func TestWatch_OwnWriteIgnored(t *testing.T) {
	f := tempFile(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go Watch(ctx, f, quietLogger(), func() { calls.Add(1) })
	time.Sleep(100 * time.Millisecond)

	if err := f.SaveAll(sampleRefs()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(3 * watchDebounce)

	if n := calls.Load(); n != 0 {
		t.Errorf("own write triggered %d notifications", n)
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	f := tempFile(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, f, quietLogger(), nil) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
