// Package worktree enumerates git worktrees. It is a thin boundary
// collaborator: the status inference layer only needs to know which project
// paths exist, so this package stays interface-first with no invariants of
// its own.
package worktree

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Worktree is one git worktree.
type Worktree struct {
	Path   string // Filesystem path to the worktree
	Branch string // Branch name checked out in this worktree
	Commit string // HEAD commit hash
	Bare   bool
}

// Lister enumerates the worktrees of a repository.
type Lister interface {
	List(repoDir string) ([]Worktree, error)
}

// GitLister shells out to the git CLI.
type GitLister struct{}

// IsRepo reports whether dir is inside a git repository.
func (GitLister) IsRepo(dir string) bool {
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--git-dir")
	return cmd.Run() == nil
}

// List returns all worktrees for the repository at repoDir.
func (g GitLister) List(repoDir string) ([]Worktree, error) {
	if !g.IsRepo(repoDir) {
		return nil, errors.New("not a git repository")
	}

	cmd := exec.Command("git", "-C", repoDir, "worktree", "list", "--porcelain")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}

	return parsePorcelain(string(output)), nil
}

// Paths returns the worktree paths for repoDir, falling back to repoDir
// itself when it isn't a repository (a plain project dir is still a valid
// status query target).
func Paths(lister Lister, repoDir string) []string {
	wts, err := lister.List(repoDir)
	if err != nil {
		if abs, err := filepath.Abs(repoDir); err == nil {
			return []string{abs}
		}
		return []string{repoDir}
	}

	paths := make([]string, 0, len(wts))
	for _, wt := range wts {
		if wt.Bare {
			continue
		}
		paths = append(paths, wt.Path)
	}
	return paths
}

// parsePorcelain parses `git worktree list --porcelain` output.
func parsePorcelain(output string) []Worktree {
	var worktrees []Worktree
	var current Worktree

	flush := func() {
		if current.Path != "" {
			worktrees = append(worktrees, current)
		}
		current = Worktree{}
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			current.Commit = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "bare":
			current.Bare = true
		case line == "detached":
			current.Branch = ""
		}
	}
	flush()

	return worktrees
}
