package status

import (
	"os"
	"testing"
)

func TestDebugEntriesKeepsStaleFiles(t *testing.T) {
	const now = 1_000_000
	store := newTestStore(t, now)

	stalePath := writeStatusFile(t, store.Dir(), "stale.json",
		`{"project_path":"/p/a","state":"working","last_tool":"Bash","timestamp":999000}`)
	writeStatusFile(t, store.Dir(), "broken.json", `not json`)
	writeStatusFile(t, store.Dir(), "names.json", `{}`)

	entries := store.DebugEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}

	var stale, broken *DebugEntry
	for i := range entries {
		switch entries[i].File {
		case "stale.json":
			stale = &entries[i]
		case "broken.json":
			broken = &entries[i]
		}
	}

	if stale == nil || broken == nil {
		t.Fatalf("missing expected entries: %+v", entries)
	}
	if !stale.Stale {
		t.Error("1000s-old working/Bash record should be flagged stale")
	}
	if stale.Threshold != 30 {
		t.Errorf("threshold = %d, want 30 for Bash", stale.Threshold)
	}
	if stale.AgeSeconds != 1000 {
		t.Errorf("age = %d, want 1000", stale.AgeSeconds)
	}
	if broken.ParseError == "" {
		t.Error("broken record should carry a parse error")
	}

	// Debug listing never deletes, even stale files
	if _, err := os.Stat(stalePath); err != nil {
		t.Errorf("debug listing must not delete files: %v", err)
	}
}
