package main

import (
	"strings"
	"testing"
)

func TestStatusRowAlignment(t *testing.T) {
	withSession := statusRow("working", "/home/u/project", "")
	withoutSession := statusRow("-", "/home/u/other", "")

	if got, want := strings.Index(withSession, "/home/u/project"), strings.Index(withoutSession, "/home/u/other"); got != want {
		t.Errorf("path column misaligned: session row at %d, no-session row at %d", got, want)
	}

	withDetail := statusRow("working", "/p", "  [Bash]")
	if !strings.HasSuffix(withDetail, "[Bash]") {
		t.Errorf("detail column missing: %q", withDetail)
	}
}
