package worktree

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParsePorcelain(t *testing.T) {
	output := `worktree /repo
HEAD abcdef1234567890
branch refs/heads/main

worktree /repo-feature
HEAD 1111111111111111
branch refs/heads/feature/x

worktree /repo-detached
HEAD 2222222222222222
detached

worktree /repo.git
bare
`

	wts := parsePorcelain(output)
	if len(wts) != 4 {
		t.Fatalf("expected 4 worktrees, got %d: %+v", len(wts), wts)
	}

	if wts[0].Path != "/repo" || wts[0].Branch != "main" || wts[0].Commit != "abcdef1234567890" {
		t.Errorf("main worktree parsed wrong: %+v", wts[0])
	}
	if wts[1].Branch != "feature/x" {
		t.Errorf("branch with slash parsed wrong: %+v", wts[1])
	}
	if wts[2].Branch != "" {
		t.Errorf("detached worktree should have no branch: %+v", wts[2])
	}
	if !wts[3].Bare {
		t.Errorf("bare worktree not flagged: %+v", wts[3])
	}
}

func TestParsePorcelainEmpty(t *testing.T) {
	if wts := parsePorcelain(""); len(wts) != 0 {
		t.Errorf("empty output should yield no worktrees, got %+v", wts)
	}
}

type fakeLister struct {
	wts []Worktree
	err error
}

func (f fakeLister) List(string) ([]Worktree, error) { return f.wts, f.err }

func TestPaths(t *testing.T) {
	lister := fakeLister{wts: []Worktree{
		{Path: "/repo", Branch: "main"},
		{Path: "/repo.git", Bare: true},
		{Path: "/repo-feature", Branch: "feature"},
	}}

	paths := Paths(lister, "/repo")
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}
	if paths[0] != "/repo" || paths[1] != "/repo-feature" {
		t.Errorf("unexpected paths %v", paths)
	}
}

func TestPathsFallback(t *testing.T) {
	lister := fakeLister{err: errors.New("not a git repository")}

	paths := Paths(lister, "relative/dir")
	if len(paths) != 1 {
		t.Fatalf("expected 1 fallback path, got %v", paths)
	}
	if !filepath.IsAbs(paths[0]) {
		t.Errorf("fallback path should be absolute, got %q", paths[0])
	}
}
