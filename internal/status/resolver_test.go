package status

import (
	"fmt"
	"testing"
	"time"
)

func resolverFixture(t *testing.T) (*Resolver, *FileStore, *TranscriptScanner, int64) {
	t.Helper()

	now := time.Now().Unix()
	store := newTestStore(t, now)
	scanner := NewTranscriptScanner(t.TempDir(), store)
	scanner.now = func() int64 { return now }

	return NewResolver(store, scanner), store, scanner, now
}

func TestStatusForEmpty(t *testing.T) {
	resolver, _, _, _ := resolverFixture(t)

	ws := resolver.StatusFor(t.TempDir())
	if len(ws.ActiveSessions) != 0 {
		t.Errorf("expected no sessions, got %+v", ws.ActiveSessions)
	}
	if ws.HasPendingInput {
		t.Error("empty status must not flag pending input")
	}
}

func TestStatusForStatusFileWins(t *testing.T) {
	resolver, store, scanner, now := resolverFixture(t)
	project := t.TempDir()

	writeStatusFile(t, store.Dir(), "aaa.json",
		fmt.Sprintf(`{"project_path":%q,"state":"working","timestamp":%d}`, project, now-5))

	// A transcript for the same path says waiting_for_input; the status
	// file is authoritative and must win.
	writeTranscript(t, scanner.root, "p/s.jsonl",
		assistantLine(project, now-5, "end_turn", ""),
	)

	ws := resolver.StatusFor(project)
	if len(ws.ActiveSessions) != 1 {
		t.Fatalf("expected 1 session, got %+v", ws.ActiveSessions)
	}
	if ws.ActiveSessions[0].State != StateWorking {
		t.Errorf("state = %q, want the status file's working", ws.ActiveSessions[0].State)
	}
}

func TestStatusForMultipleSessionsSamePath(t *testing.T) {
	resolver, store, _, now := resolverFixture(t)
	project := t.TempDir()

	writeStatusFile(t, store.Dir(), "older.json",
		fmt.Sprintf(`{"project_path":%q,"state":"working","timestamp":%d}`, project, now-30))
	writeStatusFile(t, store.Dir(), "newer.json",
		fmt.Sprintf(`{"project_path":%q,"state":"waiting_for_approval","timestamp":%d}`, project, now-2))

	ws := resolver.StatusFor(project)
	if len(ws.ActiveSessions) != 2 {
		t.Fatalf("expected 2 sessions, got %+v", ws.ActiveSessions)
	}
	if ws.ActiveSessions[0].SessionKey != "newer" {
		t.Errorf("sessions not newest-first: %+v", ws.ActiveSessions)
	}
	if !ws.HasPendingInput {
		t.Error("waiting_for_approval should flag pending input")
	}
}

func TestStatusForTranscriptFallback(t *testing.T) {
	resolver, _, scanner, now := resolverFixture(t)
	project := t.TempDir()

	writeTranscript(t, scanner.root, "p/s.jsonl", userLine(project, now-5))

	ws := resolver.StatusFor(project)
	if len(ws.ActiveSessions) != 1 {
		t.Fatalf("expected fallback session, got %+v", ws.ActiveSessions)
	}
	if ws.ActiveSessions[0].State != StateWorking {
		t.Errorf("state = %q, want working", ws.ActiveSessions[0].State)
	}
}

func TestStatusForAll(t *testing.T) {
	resolver, store, scanner, now := resolverFixture(t)
	withFile := t.TempDir()
	withTranscript := t.TempDir()
	empty := t.TempDir()

	writeStatusFile(t, store.Dir(), "f.json",
		fmt.Sprintf(`{"project_path":%q,"state":"idle","timestamp":%d}`, withFile, now-5))
	writeTranscript(t, scanner.root, "p/s.jsonl", userLine(withTranscript, now-5))

	statuses := resolver.StatusForAll([]string{withFile, withTranscript, empty})
	if len(statuses) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(statuses))
	}

	if got := statuses[withFile]; len(got.ActiveSessions) != 1 || got.ActiveSessions[0].State != StateIdle {
		t.Errorf("withFile = %+v", got)
	}
	if got := statuses[withTranscript]; len(got.ActiveSessions) != 1 || got.ActiveSessions[0].State != StateWorking {
		t.Errorf("withTranscript = %+v", got)
	}
	if got := statuses[empty]; len(got.ActiveSessions) != 0 || got.HasPendingInput {
		t.Errorf("empty = %+v", got)
	}
}
