package tui

import (
	"github.com/charmbracelet/lipgloss"
	dark "github.com/thiagokokada/dark-mode-go"

	"github.com/twistedxcom/woodeye/internal/status"
)

// Theme holds the style set for one color scheme.
type Theme struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Path     lipgloss.Style
	Selected lipgloss.Style
	Dim      lipgloss.Style
	Hint     lipgloss.Style
	Filter   lipgloss.Style

	Working  lipgloss.Style
	Approval lipgloss.Style
	Input    lipgloss.Style
	Idle     lipgloss.Style
	Unknown  lipgloss.Style
}

func darkTheme() Theme {
	return Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Path:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("237")),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Filter:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),

		Working:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")),
		Approval: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		Input:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Idle:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Unknown:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func lightTheme() Theme {
	return Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("61")).
			Padding(0, 2),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("29")),
		Path:     lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("245")),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		Hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		Filter:   lipgloss.NewStyle().Foreground(lipgloss.Color("162")),

		Working:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("28")),
		Approval: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("130")),
		Input:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("26")),
		Idle:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Unknown:  lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
	}
}

// ResolveTheme maps a configured theme name ("dark", "light", "system") to a
// style set. "system" asks the OS; detection failure falls back to dark.
func ResolveTheme(name string) Theme {
	switch name {
	case "light":
		return lightTheme()
	case "system":
		isDark, err := dark.IsDarkMode()
		if err != nil || isDark {
			return darkTheme()
		}
		return lightTheme()
	default:
		return darkTheme()
	}
}

func (t Theme) stateStyle(s status.SessionState) lipgloss.Style {
	switch s {
	case status.StateWorking:
		return t.Working
	case status.StateWaitingForApproval:
		return t.Approval
	case status.StateWaitingForInput:
		return t.Input
	case status.StateIdle:
		return t.Idle
	default:
		return t.Unknown
	}
}

// stateLabel is the short badge shown in the dashboard list.
func stateLabel(s status.SessionState) string {
	switch s {
	case status.StateWorking:
		return "WORKING"
	case status.StateWaitingForApproval:
		return "APPROVAL"
	case status.StateWaitingForInput:
		return "INPUT"
	case status.StateIdle:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}
