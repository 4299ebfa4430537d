package main

import (
	"fmt"
	"os"

	"github.com/twistedxcom/woodeye/internal/logging"
	"github.com/twistedxcom/woodeye/internal/status"
	"github.com/twistedxcom/woodeye/internal/tui"
)

// runDashboard launches the interactive status dashboard over the worktrees
// of the current directory.
func runDashboard() {
	a := newApp()
	paths := targetPaths(nil)

	// Live refresh when hooks write; the dashboard still polls if the
	// watcher can't start (e.g. the status dir is on a network mount).
	var notifications <-chan struct{}
	watcher, err := status.NewChangeWatcher(a.cfg.ResolveStatusDir())
	if err == nil {
		if err := watcher.Start(); err == nil {
			notifications = watcher.Notifications()
			defer watcher.Stop()
		}
	}

	if err := tui.Run(a.resolver, paths, notifications, a.cfg.Theme); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.Shutdown()
}
