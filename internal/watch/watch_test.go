package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcher_TriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "run_res.m")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	events := make(chan string, 8)
	w, err := New([]string{target}, 10*time.Millisecond, func(path string) {
		events <- path
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(target, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-events:
		if path != target {
			t.Errorf("event path = %s; want %s", path, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event after writing the watched file")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "run_res.m")
	other := filepath.Join(dir, "unrelated.txt")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	events := make(chan string, 8)
	w, err := New([]string{target}, 10*time.Millisecond, func(path string) {
		events <- path
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(other, []byte("noise"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-events:
		t.Errorf("unexpected event for %s", path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_Debounce(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "run_res.m")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	events := make(chan string, 64)
	w, err := New([]string{target}, 2*time.Second, func(path string) {
		events <- path
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("burst"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// A rapid burst inside the debounce window collapses to one event.
	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("no event for burst")
	}
	select {
	case <-events:
		t.Error("burst produced more than one event inside the debounce window")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "run_res.m")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{target}, 10*time.Millisecond, func(string) {}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	w.Stop()
	w.Stop()
}
