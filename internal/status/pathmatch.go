package status

import (
	"path/filepath"
	"strings"
)

// NormalizePath canonicalizes a project path for comparison: symlinks and
// relative segments are resolved when the path exists, otherwise the lexical
// form is used. Trailing separators are stripped.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		// Path no longer exists (or is unreadable); fall back to lexical form.
		resolved = filepath.Clean(path)
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}

	if resolved != string(filepath.Separator) {
		resolved = strings.TrimSuffix(resolved, string(filepath.Separator))
	}
	return resolved
}

// PathsMatch reports whether two normalized paths refer to the same project.
// Exact string comparison; empty strings never match anything.
func PathsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b
}
