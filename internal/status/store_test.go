package status

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStatusFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestStore(t *testing.T, now int64) *FileStore {
	t.Helper()
	store := NewFileStore(t.TempDir())
	store.now = func() int64 { return now }
	return store
}

func TestSessionKey(t *testing.T) {
	key := SessionKey("/home/user/project")
	if len(key) != 16 {
		t.Fatalf("key length = %d, want 16", len(key))
	}
	for _, c := range key {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("key %q contains non-hex character %q", key, c)
		}
	}
	if key != SessionKey("/home/user/project") {
		t.Error("key must be deterministic")
	}
	if key == SessionKey("/home/user/other") {
		t.Error("different paths should produce different keys")
	}
}

func TestReadAllMissingDir(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist"))
	if got := store.ReadAll(); got != nil {
		t.Errorf("missing dir should yield nil, got %v", got)
	}
}

func TestReadAllSkipsInvalidFiles(t *testing.T) {
	const now = 1_000_000
	store := newTestStore(t, now)

	writeStatusFile(t, store.Dir(), "good.json",
		`{"project_path":"/p/a","state":"working","timestamp":999990}`)
	writeStatusFile(t, store.Dir(), "corrupt.json", `{not json`)
	writeStatusFile(t, store.Dir(), "nopath.json",
		`{"state":"working","timestamp":999990}`)
	writeStatusFile(t, store.Dir(), "names.json", `{"whatever":true}`)
	writeStatusFile(t, store.Dir(), "hooks_backup.json", `{}`)
	writeStatusFile(t, store.Dir(), "notes.txt", "hi")
	if err := os.Mkdir(filepath.Join(store.Dir(), "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	sessions := store.ReadAll()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d: %+v", len(sessions), sessions)
	}
	if sessions[0].SessionKey != "good" {
		t.Errorf("session key = %q, want file stem %q", sessions[0].SessionKey, "good")
	}
	if sessions[0].State != StateWorking {
		t.Errorf("state = %q", sessions[0].State)
	}
}

func TestReadAllEvictsStaleFiles(t *testing.T) {
	const now = 1_000_000
	store := newTestStore(t, now)

	// Working with no tool: 60s threshold. 600s old is stale.
	stalePath := writeStatusFile(t, store.Dir(), "stale.json",
		`{"project_path":"/p/a","state":"working","timestamp":999400}`)
	writeStatusFile(t, store.Dir(), "fresh.json",
		`{"project_path":"/p/a","state":"working","timestamp":999990}`)

	sessions := store.ReadAll()
	if len(sessions) != 1 || sessions[0].SessionKey != "fresh" {
		t.Fatalf("expected only the fresh session, got %+v", sessions)
	}

	if _, err := os.Stat(stalePath); !os.IsNotExist(err) {
		t.Error("stale status file should have been deleted")
	}
}

func TestReadAllZeroTimestampKept(t *testing.T) {
	store := newTestStore(t, 1_000_000)
	writeStatusFile(t, store.Dir(), "zero.json",
		`{"project_path":"/p/a","state":"idle","timestamp":0}`)

	sessions := store.ReadAll()
	if len(sessions) != 1 {
		t.Fatalf("zero-timestamp record should survive, got %+v", sessions)
	}
}

func TestReadAllUnknownStateUsesToolThreshold(t *testing.T) {
	const now = 1_000_000
	store := newTestStore(t, now)

	// Unparseable state, 90s old, no tool: unknown falls back to the 60s
	// default tool threshold and is evicted.
	writeStatusFile(t, store.Dir(), "odd.json",
		`{"project_path":"/p/a","state":"daydreaming","timestamp":999910}`)

	if sessions := store.ReadAll(); len(sessions) != 0 {
		t.Fatalf("stale unknown-state record should be evicted, got %+v", sessions)
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t, 1_000_000)
	writeStatusFile(t, store.Dir(), "abc.json",
		`{"project_path":"/p/a","state":"working","timestamp":999990}`)

	if err := store.Remove("abc"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "abc.json")); !os.IsNotExist(err) {
		t.Error("status file should be gone")
	}

	// Removing again is not an error
	if err := store.Remove("abc"); err != nil {
		t.Errorf("idempotent Remove failed: %v", err)
	}
}

func TestRemoveForProject(t *testing.T) {
	store := newTestStore(t, 1_000_000)
	path := "/home/user/project"
	writeStatusFile(t, store.Dir(), SessionKey(path)+".json",
		`{"project_path":"`+path+`","state":"working","timestamp":999990}`)

	store.RemoveForProject(path)
	if got := store.ReadAll(); len(got) != 0 {
		t.Errorf("expected empty store, got %+v", got)
	}
}
