package status

import "strings"

// waitingStateStaleThreshold is the stale threshold in seconds for
// waiting/idle states. Users step away; sessions still shouldn't persist
// forever.
const waitingStateStaleThreshold = 600

// defaultToolThreshold is the stale threshold for unclassified tools.
const defaultToolThreshold = 60

// ThresholdForTool returns the stale threshold in seconds for a working
// session based on its last tool invocation.
func ThresholdForTool(tool string) int64 {
	switch tool {
	// Quick bookkeeping operations
	case "TodoWrite", "ExitPlanMode", "EnterPlanMode":
		return 10

	// File I/O
	case "Read", "Write", "Edit", "Glob", "Grep", "NotebookEdit":
		return 30

	// Shell commands
	case "Bash", "KillShell":
		return 30

	// Network operations
	case "WebFetch", "WebSearch":
		return 120

	// Sub-agents
	case "Task", "TaskOutput":
		return 180
	}

	// Browser automation runs long
	if strings.Contains(tool, "Playwright") || strings.Contains(tool, "Browser") {
		return 180
	}

	// MCP tools are variable; treat like network calls
	if strings.Contains(tool, "mcp") || strings.Contains(tool, "MCP") {
		return 120
	}

	return defaultToolThreshold
}

// ThresholdForState returns the stale threshold in seconds for a session.
// Working sessions use tool-specific thresholds; waiting/idle sessions get
// the longer human-scale threshold. Unrecognized states fall back to the
// tool threshold.
func ThresholdForState(state SessionState, tool string) int64 {
	switch state {
	case StateWorking:
		return ThresholdForTool(tool)
	case StateWaitingForApproval, StateWaitingForInput, StateIdle:
		return waitingStateStaleThreshold
	default:
		return ThresholdForTool(tool)
	}
}

// IsStale reports whether a timestamp has aged past the threshold.
// A zero timestamp is never stale by age alone; callers must separately
// require a valid state.
func IsStale(now, timestamp, threshold int64) bool {
	return timestamp > 0 && now-timestamp > threshold
}
