// Package status infers the live activity state of Claude Code sessions
// bound to project paths. Hook-written status files are the authoritative
// source; JSONL transcripts are the fallback when hooks are absent or broken.
package status

import "sort"

// SessionState is the inferred activity state of one session.
type SessionState string

const (
	StateWorking            SessionState = "working"
	StateWaitingForApproval SessionState = "waiting_for_approval"
	StateWaitingForInput    SessionState = "waiting_for_input"
	StateIdle               SessionState = "idle"
	StateUnknown            SessionState = "unknown"
)

// ParseState maps a status-file state string to a SessionState.
// Unrecognized values map to StateUnknown.
func ParseState(s string) SessionState {
	switch SessionState(s) {
	case StateWorking, StateWaitingForApproval, StateWaitingForInput, StateIdle:
		return SessionState(s)
	default:
		return StateUnknown
	}
}

// NeedsAttention reports whether the state means a human should look at the
// session (approval pending, input pending, or idle at the prompt).
func (s SessionState) NeedsAttention() bool {
	switch s {
	case StateWaitingForApproval, StateWaitingForInput, StateIdle:
		return true
	default:
		return false
	}
}

// Session is the last known state of one Claude Code session.
type Session struct {
	// SessionKey identifies the backing status file (file stem) or the
	// transcript file stem when synthesized from a transcript.
	SessionKey string `json:"session_key"`

	// ProjectPath is the absolute path the session is bound to.
	// A session with an empty project path is invalid and never surfaced.
	ProjectPath string `json:"project_path"`

	State SessionState `json:"state"`

	// LastTool names the most recent tool invocation; drives the
	// staleness threshold for working sessions.
	LastTool string `json:"last_tool,omitempty"`

	// WaitingReason annotates waiting states (e.g. which permission is pending).
	WaitingReason string `json:"waiting_reason,omitempty"`

	// Timestamp is seconds since epoch of the last observed activity.
	// Zero means never set: not stale by age, but a signal of likely invalidity.
	Timestamp int64 `json:"timestamp"`
}

// WorktreeStatus aggregates the sessions active on one project path.
type WorktreeStatus struct {
	// ActiveSessions is ordered newest timestamp first.
	ActiveSessions []Session `json:"active_sessions"`

	// HasPendingInput is true iff any active session needs attention.
	HasPendingInput bool `json:"has_pending_input"`
}

// newWorktreeStatus sorts sessions newest-first and derives HasPendingInput.
func newWorktreeStatus(sessions []Session) WorktreeStatus {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp > sessions[j].Timestamp
	})

	pending := false
	for _, s := range sessions {
		if s.State.NeedsAttention() {
			pending = true
			break
		}
	}

	return WorktreeStatus{
		ActiveSessions:  sessions,
		HasPendingInput: pending,
	}
}
