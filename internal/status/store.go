package status

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/twistedxcom/woodeye/internal/logging"
)

var storeLog = logging.ForComponent(logging.CompStatus)

// StatusDirName is the directory under $HOME where hooks write status files.
const StatusDirName = ".woodeye-status"

// Auxiliary files that live in the status directory but are not session
// status files.
var reservedFileNames = map[string]bool{
	"hooks_backup.json": true,
	"names.json":        true,
}

// statusFile is the on-disk schema written by the installed hooks.
type statusFile struct {
	ProjectPath   string `json:"project_path"`
	State         string `json:"state"`
	WaitingReason string `json:"waiting_reason,omitempty"`
	Timestamp     int64  `json:"timestamp"`
	LastTool      string `json:"last_tool,omitempty"`
}

// DefaultDir returns the status directory under the user's home.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), StatusDirName)
	}
	return filepath.Join(home, StatusDirName)
}

// SessionKey derives the status-file stem for a project path: the first 16
// hex characters of the MD5 of the path. The generated hook commands use the
// same scheme, so the store and the hooks agree on file names.
func SessionKey(projectPath string) string {
	sum := md5.Sum([]byte(projectPath))
	return hex.EncodeToString(sum[:])[:16]
}

// FileStore reads and deletes the hook-written status files in one directory.
// There is no in-process caching: every read goes to the filesystem, so
// concurrent callers simply perform independent reads.
type FileStore struct {
	dir string
	now func() int64
}

// NewFileStore creates a store over the given status directory.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir()
	}
	return &FileStore{
		dir: dir,
		now: func() int64 { return time.Now().Unix() },
	}
}

// Dir returns the status directory path.
func (s *FileStore) Dir() string {
	return s.dir
}

// ReadAll returns every live session recorded in the status directory.
// Files that fail to parse, have an empty project path, or are reserved
// auxiliary files are skipped. Stale records are excluded and their backing
// files deleted best-effort — the store self-cleans.
func (s *FileStore) ReadAll() []Session {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		// Missing or unreadable directory means no data, never an error.
		return nil
	}

	now := s.now()
	var sessions []Session

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || reservedFileNames[name] {
			continue
		}

		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			// Deleted between list and read; same as absent.
			continue
		}

		var sf statusFile
		if err := json.Unmarshal(data, &sf); err != nil {
			storeLog.Debug("status_file_skipped", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		if sf.ProjectPath == "" {
			continue
		}

		state := ParseState(sf.State)
		if IsStale(now, sf.Timestamp, ThresholdForState(state, sf.LastTool)) {
			// Interrupted or dead session; evict the backing file.
			_ = os.Remove(path)
			storeLog.Debug("stale_status_file_removed", slog.String("file", name))
			continue
		}

		// The file stem is the identity, even if content disagrees.
		sessions = append(sessions, Session{
			SessionKey:    strings.TrimSuffix(name, ".json"),
			ProjectPath:   sf.ProjectPath,
			State:         state,
			LastTool:      sf.LastTool,
			WaitingReason: sf.WaitingReason,
			Timestamp:     sf.Timestamp,
		})
	}

	return sessions
}

// Remove deletes the status file for a session key. A missing file is
// success: the delete is idempotent and may race with hook cleanup.
func (s *FileStore) Remove(sessionKey string) error {
	err := os.Remove(filepath.Join(s.dir, sessionKey+".json"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveForProject deletes the status file a hook would have written for a
// project path. Used for cross-source cleanup when a transcript shows the
// session has ended.
func (s *FileStore) RemoveForProject(projectPath string) {
	_ = s.Remove(SessionKey(projectPath))
}
