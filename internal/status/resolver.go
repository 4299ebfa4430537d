package status

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/twistedxcom/woodeye/internal/logging"
)

var resolveLog = logging.ForComponent(logging.CompStatus)

// fallbackScanLimit bounds concurrent transcript scans in StatusForAll.
// Transcript trees can be large; a handful of parallel walks is plenty.
const fallbackScanLimit = 4

// Source identifies which data source answered a status query.
type Source int

const (
	// SourceNone means neither status files nor transcripts had data.
	SourceNone Source = iota
	// SourceStatusFiles means hook-written status files answered.
	SourceStatusFiles
	// SourceTranscripts means the JSONL fallback answered.
	SourceTranscripts
)

// resolution is the tagged outcome of resolving one path: exactly one
// authoritative source wins, and the precedence is explicit rather than a
// nullable chain.
type resolution struct {
	source   Source
	sessions []Session
}

// Resolver answers "what is the status of project path P?" by combining the
// file store, the transcript fallback, and the staleness policy. It holds no
// state: every call recomputes from current files.
type Resolver struct {
	store   *FileStore
	scanner *TranscriptScanner
}

// NewResolver creates a resolver over a store and a fallback scanner.
func NewResolver(store *FileStore, scanner *TranscriptScanner) *Resolver {
	return &Resolver{store: store, scanner: scanner}
}

// StatusFor returns the status view for one project path.
func (r *Resolver) StatusFor(path string) WorktreeStatus {
	res := r.resolve(path, r.store.ReadAll())
	return newWorktreeStatus(res.sessions)
}

// StatusForAll returns status views for many paths with a single store read.
// Fallback transcript scans for paths with no status file run concurrently,
// bounded by fallbackScanLimit.
func (r *Resolver) StatusForAll(paths []string) map[string]WorktreeStatus {
	all := r.store.ReadAll()

	resolutions := make([]resolution, len(paths))
	var g errgroup.Group
	g.SetLimit(fallbackScanLimit)

	for i, path := range paths {
		g.Go(func() error {
			resolutions[i] = r.resolve(path, all)
			return nil
		})
	}
	_ = g.Wait()

	result := make(map[string]WorktreeStatus, len(paths))
	for i, path := range paths {
		result[path] = newWorktreeStatus(resolutions[i].sessions)
	}
	return result
}

// resolve filters the batched store records for one path and falls back to
// transcripts only when the store yields nothing.
func (r *Resolver) resolve(path string, all []Session) resolution {
	target := NormalizePath(path)

	var matched []Session
	for _, s := range all {
		if PathsMatch(NormalizePath(s.ProjectPath), target) {
			matched = append(matched, s)
		}
	}
	if len(matched) > 0 {
		return resolution{source: SourceStatusFiles, sessions: matched}
	}

	fallback := r.scanner.FindSessions(path)
	if len(fallback) > 0 {
		resolveLog.Debug("transcript_fallback_used",
			slog.String("path", path),
			slog.Int("sessions", len(fallback)),
		)
		return resolution{source: SourceTranscripts, sessions: fallback}
	}

	return resolution{source: SourceNone}
}
