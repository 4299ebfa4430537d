// Package tui renders a live dashboard of Claude Code session activity
// across a set of worktree paths.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/twistedxcom/woodeye/internal/logging"
	"github.com/twistedxcom/woodeye/internal/status"
)

var uiLog = logging.ForComponent(logging.CompUI)

// refreshInterval is the periodic poll; the change watcher usually wins.
const refreshInterval = 5 * time.Second

type statusesMsg map[string]status.WorktreeStatus

type changedMsg struct{}

type tickMsg time.Time

// Model is the dashboard's Bubble Tea model.
type Model struct {
	resolver *status.Resolver
	paths    []string

	// notifications, when non-nil, delivers coalesced change events from a
	// status.ChangeWatcher.
	notifications <-chan struct{}

	statuses    map[string]status.WorktreeStatus
	visible     []string
	cursor      int
	filter      textinput.Model
	filtering   bool
	lastRefresh time.Time

	theme  Theme
	width  int
	height int
}

// NewModel builds the dashboard over the given worktree paths. notifications
// may be nil, in which case the dashboard relies on its periodic refresh.
func NewModel(resolver *status.Resolver, paths []string, notifications <-chan struct{}, theme Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "filter paths"
	ti.Prompt = "/"
	ti.CharLimit = 120

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	return Model{
		resolver:      resolver,
		paths:         sorted,
		notifications: notifications,
		statuses:      make(map[string]status.WorktreeStatus),
		visible:       sorted,
		filter:        ti,
		theme:         theme,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refreshCmd(), tickCmd()}
	if m.notifications != nil {
		cmds = append(cmds, waitForChange(m.notifications))
	}
	return tea.Batch(cmds...)
}

// refreshCmd resolves all statuses off the UI goroutine.
func (m Model) refreshCmd() tea.Cmd {
	resolver := m.resolver
	paths := m.paths
	return func() tea.Msg {
		return statusesMsg(resolver.StatusForAll(paths))
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusesMsg:
		m.statuses = msg
		m.lastRefresh = time.Now()
		m.applyFilter()
		return m, nil

	case changedMsg:
		uiLog.Debug("dashboard_change_notification")
		return m, tea.Batch(m.refreshCmd(), waitForChange(m.notifications))

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.Type {
		case tea.KeyEsc:
			m.filtering = false
			m.filter.SetValue("")
			m.filter.Blur()
			m.applyFilter()
			return m, nil
		case tea.KeyEnter:
			m.filtering = false
			m.filter.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink
	case "r":
		return m, m.refreshCmd()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if len(m.visible) > 0 {
			m.cursor = len(m.visible) - 1
		}
	case "esc":
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.applyFilter()
		}
	}

	return m, nil
}

// applyFilter recomputes the visible path list from the fuzzy filter query.
func (m *Model) applyFilter() {
	query := strings.TrimSpace(m.filter.Value())
	if query == "" {
		m.visible = m.paths
	} else {
		matches := fuzzy.Find(query, m.paths)
		visible := make([]string, 0, len(matches))
		for _, match := range matches {
			visible = append(visible, m.paths[match.Index])
		}
		m.visible = visible
	}

	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("woodeye"))
	if !m.lastRefresh.IsZero() {
		b.WriteString(" ")
		b.WriteString(m.theme.Dim.Render("updated " + m.lastRefresh.Format("15:04:05")))
	}
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.theme.Filter.Render(m.filter.View()))
		b.WriteString("\n\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(m.theme.Dim.Render("no worktrees to show"))
		b.WriteString("\n")
	}

	for i, path := range m.visible {
		b.WriteString(m.renderRow(i, path))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Hint.Render("↑/↓ move · / filter · r refresh · q quit"))

	return b.String()
}

func (m Model) renderRow(i int, path string) string {
	ws := m.statuses[path]

	badge, detail := m.sessionSummary(ws)

	width := m.width
	if width <= 0 {
		width = 100
	}

	// badge column is fixed width so paths line up
	badgeCol := fmt.Sprintf("%-10s", badge.text)
	line := badge.style.Render(badgeCol)

	pathWidth := width - runewidth.StringWidth(badgeCol) - runewidth.StringWidth(detail) - 4
	display := path
	if pathWidth > 3 && runewidth.StringWidth(display) > pathWidth {
		display = runewidth.Truncate(display, pathWidth, "...")
	}

	pathStyle := m.theme.Path
	if i == m.cursor {
		pathStyle = m.theme.Selected
	}
	line += " " + pathStyle.Render(display)

	if detail != "" {
		line += "  " + m.theme.Dim.Render(detail)
	}

	return line
}

type badge struct {
	text  string
	style lipgloss.Style
}

// sessionSummary picks the badge and detail line for a worktree. With several
// sessions the most recent one wins the badge; the detail notes the rest.
func (m Model) sessionSummary(ws status.WorktreeStatus) (badge, string) {
	if len(ws.ActiveSessions) == 0 {
		return badge{text: "-", style: m.theme.Unknown}, ""
	}

	lead := ws.ActiveSessions[0]
	b := badge{text: stateLabel(lead.State), style: m.theme.stateStyle(lead.State)}

	var parts []string
	switch lead.State {
	case status.StateWorking:
		if lead.LastTool != "" {
			parts = append(parts, lead.LastTool)
		}
	case status.StateWaitingForApproval:
		if lead.LastTool != "" {
			parts = append(parts, "approve "+lead.LastTool)
		}
	case status.StateWaitingForInput:
		if lead.WaitingReason != "" {
			parts = append(parts, lead.WaitingReason)
		}
	}
	if n := len(ws.ActiveSessions); n > 1 {
		parts = append(parts, fmt.Sprintf("+%d more", n-1))
	}

	return b, strings.Join(parts, " · ")
}

// Run starts the dashboard in the alternate screen and blocks until quit.
func Run(resolver *status.Resolver, paths []string, notifications <-chan struct{}, themeName string) error {
	model := NewModel(resolver, paths, notifications, ResolveTheme(themeName))
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
