package main

import (
	"fmt"
	"os"

	"github.com/twistedxcom/woodeye/internal/worktree"
)

// handleWorktree implements `woodeye worktree [dir]`.
func handleWorktree(args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	lister := worktree.GitLister{}
	if !lister.IsRepo(dir) {
		fmt.Fprintf(os.Stderr, "Error: %s is not a git repository\n", dir)
		os.Exit(1)
	}

	wts, err := lister.List(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, wt := range wts {
		if wt.Bare {
			fmt.Printf("%-50s (bare)\n", wt.Path)
			continue
		}
		commit := wt.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fmt.Printf("%-50s %-30s %s\n", wt.Path, wt.Branch, commit)
	}
}
