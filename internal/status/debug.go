package status

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DebugEntry is the raw view of one status file, including records ReadAll
// would filter or evict. Used by the status --debug command.
type DebugEntry struct {
	File          string       `json:"file"`
	SessionKey    string       `json:"session_key"`
	ProjectPath   string       `json:"project_path,omitempty"`
	State         SessionState `json:"state,omitempty"`
	LastTool      string       `json:"last_tool,omitempty"`
	WaitingReason string       `json:"waiting_reason,omitempty"`
	Timestamp     int64        `json:"timestamp,omitempty"`
	AgeSeconds    int64        `json:"age_seconds"`
	Threshold     int64        `json:"threshold_seconds"`
	Stale         bool         `json:"stale"`
	ParseError    string       `json:"parse_error,omitempty"`
}

// DebugEntries lists every status file verbatim. Nothing is deleted and
// nothing is filtered beyond reserved auxiliary files; broken records come
// back with ParseError set so the operator can see exactly what the hooks
// wrote.
func (s *FileStore) DebugEntries() []DebugEntry {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	now := s.now()
	var out []DebugEntry

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || reservedFileNames[name] {
			continue
		}

		de := DebugEntry{
			File:       name,
			SessionKey: strings.TrimSuffix(name, ".json"),
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			de.ParseError = err.Error()
			out = append(out, de)
			continue
		}

		var sf statusFile
		if err := json.Unmarshal(data, &sf); err != nil {
			de.ParseError = err.Error()
			out = append(out, de)
			continue
		}

		de.ProjectPath = sf.ProjectPath
		de.State = ParseState(sf.State)
		de.LastTool = sf.LastTool
		de.WaitingReason = sf.WaitingReason
		de.Timestamp = sf.Timestamp
		if sf.Timestamp > 0 {
			de.AgeSeconds = now - sf.Timestamp
		}
		de.Threshold = ThresholdForState(de.State, sf.LastTool)
		de.Stale = IsStale(now, sf.Timestamp, de.Threshold)

		out = append(out, de)
	}

	return out
}
