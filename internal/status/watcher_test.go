package status

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestChangeWatcherCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "status")
	w, err := NewChangeWatcher(dir)
	if err != nil {
		t.Fatalf("NewChangeWatcher: %v", err)
	}
	defer w.Stop()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("status dir should exist: %v", err)
	}
}

func TestChangeWatcherCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	w, err := NewChangeWatcher(dir)
	if err != nil {
		t.Fatalf("NewChangeWatcher: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// A burst of writes inside the debounce window
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, fmt.Sprintf("s%d.json", i))
		if err := os.WriteFile(name, []byte(`{"state":"working"}`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-w.Notifications():
	case <-time.After(3 * time.Second):
		t.Fatal("no notification after a burst of writes")
	}

	// Allow any trailing debounce timer to fire, then verify quiescence.
	deadline := time.After(time.Second)
drain:
	for {
		select {
		case <-w.Notifications():
		case <-deadline:
			break drain
		}
	}

	select {
	case <-w.Notifications():
		t.Error("notification arrived without any file change")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestChangeWatcherIgnoresNonJSON(t *testing.T) {
	dir := t.TempDir()
	w, err := NewChangeWatcher(dir)
	if err != nil {
		t.Fatalf("NewChangeWatcher: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "scratch.tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Notifications():
		t.Error("non-JSON file should not trigger a notification")
	case <-time.After(500 * time.Millisecond):
	}
}
