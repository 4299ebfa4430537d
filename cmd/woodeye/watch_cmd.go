package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/twistedxcom/woodeye/internal/history"
	"github.com/twistedxcom/woodeye/internal/logging"
	"github.com/twistedxcom/woodeye/internal/status"
)

var watchLog = logging.ForComponent(logging.CompWatch)

// transitionRecorder diffs consecutive status snapshots and appends observed
// state changes to the history database. A path with no live session is
// treated as unknown; the first snapshot only seeds the baseline.
type transitionRecorder struct {
	db     *history.DB
	last   map[string]status.SessionState
	seeded bool
}

func newTransitionRecorder(db *history.DB) *transitionRecorder {
	return &transitionRecorder{
		db:   db,
		last: make(map[string]status.SessionState),
	}
}

func leadState(ws status.WorktreeStatus) (status.SessionState, status.Session) {
	if len(ws.ActiveSessions) == 0 {
		return status.StateUnknown, status.Session{}
	}
	return ws.ActiveSessions[0].State, ws.ActiveSessions[0]
}

// sync records one transition per path whose lead state changed since the
// previous snapshot. Returns the recorded transitions.
func (r *transitionRecorder) sync(statuses map[string]status.WorktreeStatus) []history.Transition {
	var recorded []history.Transition

	for path, ws := range statuses {
		state, lead := leadState(ws)
		prev, seen := r.last[path]
		r.last[path] = state

		if !r.seeded || (seen && prev == state) || (!seen && state == status.StateUnknown) {
			continue
		}
		if !seen {
			prev = status.StateUnknown
		}

		t := history.Transition{
			ProjectPath: path,
			SessionKey:  lead.SessionKey,
			FromState:   prev,
			ToState:     state,
			LastTool:    lead.LastTool,
		}
		if r.db != nil {
			if err := r.db.Record(t); err != nil {
				watchLog.Warn("transition_record_failed", slog.String("error", err.Error()))
			}
		}
		recorded = append(recorded, t)
	}

	r.seeded = true
	return recorded
}

// handleWatch implements `woodeye watch [flags] [paths...]`: a foreground
// daemon that follows the status directory and prints state changes.
func handleWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	quiet := fs.Bool("quiet", false, "Don't print transitions to stdout")
	noHistory := fs.Bool("no-history", false, "Don't record transitions to the history database")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: woodeye watch [--quiet] [--no-history] [paths...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	a := newApp()
	paths := targetPaths(fs.Args())

	var db *history.DB
	if !*noHistory {
		var err error
		db, err = history.Open(filepath.Join(a.cfg.ResolveStatusDir(), history.DBFileName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	watcher, err := status.NewChangeWatcher(a.cfg.ResolveStatusDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := watcher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Stop()

	recorder := newTransitionRecorder(db)
	recorder.sync(a.resolver.StatusForAll(paths))

	fmt.Printf("Watching %d path(s); status dir %s\n", len(paths), a.cfg.ResolveStatusDir())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			logging.Shutdown()
			return
		case <-watcher.Notifications():
			for _, t := range recorder.sync(a.resolver.StatusForAll(paths)) {
				if !*quiet {
					fmt.Printf("%s: %s -> %s\n", t.ProjectPath, t.FromState, t.ToState)
				}
			}
		}
	}
}
