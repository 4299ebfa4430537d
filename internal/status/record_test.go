package status

import "testing"

func TestParseState(t *testing.T) {
	tests := []struct {
		in   string
		want SessionState
	}{
		{"working", StateWorking},
		{"waiting_for_approval", StateWaitingForApproval},
		{"waiting_for_input", StateWaitingForInput},
		{"idle", StateIdle},
		{"unknown", StateUnknown},
		{"", StateUnknown},
		{"WORKING", StateUnknown},
		{"garbage", StateUnknown},
	}

	for _, tt := range tests {
		if got := ParseState(tt.in); got != tt.want {
			t.Errorf("ParseState(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNeedsAttention(t *testing.T) {
	attention := []SessionState{StateWaitingForApproval, StateWaitingForInput, StateIdle}
	for _, s := range attention {
		if !s.NeedsAttention() {
			t.Errorf("%q should need attention", s)
		}
	}
	for _, s := range []SessionState{StateWorking, StateUnknown} {
		if s.NeedsAttention() {
			t.Errorf("%q should not need attention", s)
		}
	}
}

func TestNewWorktreeStatus(t *testing.T) {
	ws := newWorktreeStatus([]Session{
		{SessionKey: "old", State: StateWorking, Timestamp: 100},
		{SessionKey: "new", State: StateWorking, Timestamp: 300},
		{SessionKey: "mid", State: StateWorking, Timestamp: 200},
	})

	if len(ws.ActiveSessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(ws.ActiveSessions))
	}
	if ws.ActiveSessions[0].SessionKey != "new" || ws.ActiveSessions[2].SessionKey != "old" {
		t.Errorf("sessions not ordered newest-first: %+v", ws.ActiveSessions)
	}
	if ws.HasPendingInput {
		t.Error("all working sessions should not flag pending input")
	}

	ws = newWorktreeStatus([]Session{
		{State: StateWorking, Timestamp: 2},
		{State: StateWaitingForApproval, Timestamp: 1},
	})
	if !ws.HasPendingInput {
		t.Error("waiting_for_approval session should flag pending input")
	}

	ws = newWorktreeStatus(nil)
	if len(ws.ActiveSessions) != 0 || ws.HasPendingInput {
		t.Errorf("empty input should yield empty status, got %+v", ws)
	}
}
