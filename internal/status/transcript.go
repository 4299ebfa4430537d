package status

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/twistedxcom/woodeye/internal/logging"
)

var scanLog = logging.ForComponent(logging.CompStatus)

const (
	// maxScanDepth bounds the transcript tree walk; guards against symlink
	// cycles and pathological trees.
	maxScanDepth = 10

	// tailEntryCount is how many trailing transcript entries are inspected.
	tailEntryCount = 10

	// tailReadBytes bounds how much of a transcript is read from the end.
	tailReadBytes = 256 * 1024
)

// transcriptEntry is one newline-delimited JSON record in a session log.
type transcriptEntry struct {
	Type      string             `json:"type"`
	Timestamp string             `json:"timestamp"`
	Cwd       string             `json:"cwd"`
	Message   *transcriptMessage `json:"message"`
}

type transcriptMessage struct {
	Role       string              `json:"role"`
	StopReason string              `json:"stop_reason"`
	Content    []transcriptContent `json:"content"`
}

type transcriptContent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// scanOutcome is the tagged result of probing one transcript.
type scanOutcome int

const (
	outcomeUnknown scanOutcome = iota
	outcomeActive
	outcomeEnded
)

// TranscriptScanner reconstructs session state from Claude's JSONL logs when
// no status file exists for a path. It only has to be good enough when hooks
// are missing or broken, so it trades completeness for bounded cost.
type TranscriptScanner struct {
	root  string
	store *FileStore
	now   func() int64
}

// NewTranscriptScanner creates a scanner over a transcript root directory
// (typically <claude config dir>/projects). The store is used for
// cross-source cleanup when a transcript shows the session has ended.
func NewTranscriptScanner(root string, store *FileStore) *TranscriptScanner {
	return &TranscriptScanner{
		root:  root,
		store: store,
		now:   func() int64 { return time.Now().Unix() },
	}
}

// FindSessions scans transcripts bound to projectPath and returns the fresh
// sessions it can reconstruct. Transcripts whose latest entry marks session
// end yield nothing and trigger removal of any stale status file for the path.
func (t *TranscriptScanner) FindSessions(projectPath string) []Session {
	if _, err := os.Stat(t.root); err != nil {
		return nil
	}

	target := NormalizePath(projectPath)
	now := t.now()
	var sessions []Session

	// Explicit frontier with a depth counter instead of recursion.
	type frame struct {
		dir   string
		depth int
	}
	frontier := []frame{{dir: t.root, depth: 0}}

	for len(frontier) > 0 {
		f := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		entries, err := os.ReadDir(f.dir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			path := filepath.Join(f.dir, entry.Name())
			if entry.IsDir() {
				if f.depth+1 < maxScanDepth {
					frontier = append(frontier, frame{dir: path, depth: f.depth + 1})
				}
				continue
			}
			if filepath.Ext(entry.Name()) != ".jsonl" {
				continue
			}

			// Cheap identity check before parsing the tail.
			cwd := transcriptProjectPath(path)
			if !PathsMatch(NormalizePath(cwd), target) {
				continue
			}

			state, tool, ts, outcome := t.probeTail(path)
			switch outcome {
			case outcomeEnded:
				// Session over; clean up any orphaned status file.
				t.store.RemoveForProject(cwd)
			case outcomeActive:
				if IsStale(now, ts, ThresholdForState(state, tool)) {
					continue
				}
				sessions = append(sessions, Session{
					SessionKey:  strings.TrimSuffix(entry.Name(), ".jsonl"),
					ProjectPath: cwd,
					State:       state,
					LastTool:    tool,
					Timestamp:   ts,
				})
			}
		}
	}

	return sessions
}

// probeTail inspects the trailing entries of a transcript and derives the
// most recent state, tool, and timestamp.
func (t *TranscriptScanner) probeTail(path string) (SessionState, string, int64, scanOutcome) {
	lines, err := tailLines(path, tailEntryCount)
	if err != nil {
		return StateUnknown, "", 0, outcomeUnknown
	}

	var (
		lastTimestamp int64
		lastTool      string
		lastState     = StateUnknown
	)

	for _, line := range lines {
		var entry transcriptEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			// Streaming or partial write; individual bad lines are never fatal.
			continue
		}

		if entry.Type == "summary" {
			return StateUnknown, "", 0, outcomeEnded
		}

		if entry.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, entry.Timestamp); err == nil {
				lastTimestamp = ts.Unix()
			}
		}

		if entry.Message == nil {
			continue
		}
		switch entry.Message.Role {
		case "user":
			// A user message means the assistant is now working on a response.
			lastState = StateWorking
		case "assistant":
			switch entry.Message.StopReason {
			case "tool_use":
				lastState = StateWaitingForApproval
				for _, c := range entry.Message.Content {
					if c.Type == "tool_use" && c.Name != "" {
						lastTool = c.Name
					}
				}
			case "end_turn":
				lastState = StateWaitingForInput
			default:
				// Still streaming.
				lastState = StateWorking
			}
		}
	}

	if lastTimestamp == 0 || lastState == StateUnknown {
		return StateUnknown, "", 0, outcomeUnknown
	}
	return lastState, lastTool, lastTimestamp, outcomeActive
}

// transcriptProjectPath reads only the first line of a transcript to extract
// the bound working directory.
func transcriptProjectPath(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, 64*1024)
	line, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return ""
	}

	var entry transcriptEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		scanLog.Debug("transcript_first_line_unparseable", slog.String("file", filepath.Base(path)))
		return ""
	}
	return entry.Cwd
}

// tailLines returns up to n trailing non-empty lines of a file, oldest
// first, reading at most tailReadBytes from the end.
func tailLines(path string, n int) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	offset := info.Size() - tailReadBytes
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	raw := bytes.Split(data, []byte("\n"))
	var lines [][]byte
	for _, line := range raw {
		if len(bytes.TrimSpace(line)) > 0 {
			lines = append(lines, line)
		}
	}

	// If the read started mid-file the first line is likely truncated; the
	// JSON parse will simply skip it.
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
