package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"steadyudp/internal/report"
	"steadyudp/internal/runner"
	"steadyudp/internal/tui/history"
	"steadyudp/internal/tui/live"
	"steadyudp/internal/tui/prompt"
	"steadyudp/internal/tui/styles"
)

type ClearStatusMsg struct{}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(_ time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// View Enum
type ViewID int

const (
	ViewDashboard ViewID = iota
	ViewCommands
	ViewHistory
)

type StatsMsg runner.StatsSnapshot

// RunDoneMsg is delivered once the load loop has returned.
type RunDoneMsg struct{}

type Model struct {
	Updates runner.StatsUpdateChan
	// Stop cancels the load loop; the dashboard never owns the loop itself.
	Stop func()
	Done <-chan struct{}

	// Layout
	Width  int
	Height int

	CurrentView ViewID
	MenuItems   []string

	DashView    live.Model
	PromptView  prompt.Model
	HistoryView history.Model

	// Feedback
	StatusMsg string
}

// NewModel builds the dashboard. commands receives typed command lines;
// store may be nil when history is disabled.
func NewModel(updates runner.StatsUpdateChan, stop func(), done <-chan struct{}, commands io.Writer, store history.Lister) Model {
	if stop == nil {
		stop = func() {}
	}
	return Model{
		Updates:     updates,
		Stop:        stop,
		Done:        done,
		CurrentView: ViewDashboard,
		MenuItems:   []string{"[1] Dashboard", "[2] Commands", "[3] History"},
		DashView:    live.NewModel(),
		PromptView:  prompt.New(commands, false),
		HistoryView: history.NewModel(store),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.PromptView.Init(),
		waitForUpdate(m.Updates),
		waitForDone(m.Done),
	)
}

func waitForUpdate(sub runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub
		if !ok {
			return RunDoneMsg{}
		}
		return StatsMsg(snap)
	}
}

func waitForDone(done <-chan struct{}) tea.Cmd {
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		<-done
		return RunDoneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ClearStatusMsg:
		m.StatusMsg = ""
		return m, nil

	case RunDoneMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			m.Stop()
			return m, tea.Quit

		case "tab", "ctrl+right":
			m.CurrentView = (m.CurrentView + 1) % 3
			m.onEnter()
			return m, nil
		case "shift+tab", "ctrl+left":
			m.CurrentView = (m.CurrentView + 2) % 3
			m.onEnter()
			return m, nil

		case "ctrl+p":
			if m.CurrentView == ViewHistory {
				m.exportSelected()
				return m, clearStatusCmd()
			}
		}

		// Plain keys only navigate outside the prompt.
		if m.CurrentView != ViewCommands {
			switch msg.String() {
			case "q":
				m.Stop()
				return m, tea.Quit
			case "1", "2", "3":
				m.CurrentView = ViewID(msg.String()[0] - '1')
				m.onEnter()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		inner := tea.WindowSizeMsg{Width: m.Width, Height: m.Height - 7}

		m.DashView, _ = m.DashView.Update(inner)
		m.PromptView, _ = m.PromptView.Update(inner)
		m.HistoryView, _ = m.HistoryView.Update(inner)
		return m, nil

	case StatsMsg:
		var c tea.Cmd
		m.DashView, c = m.DashView.Update(runner.StatsSnapshot(msg))
		cmds = append(cmds, c, waitForUpdate(m.Updates))
		return m, tea.Batch(cmds...)
	}

	// Keys go to the active view; everything else (progress frames, cursor
	// blinks) goes to every view.
	if _, ok := msg.(tea.KeyMsg); ok {
		var c tea.Cmd
		switch m.CurrentView {
		case ViewDashboard:
			m.DashView, c = m.DashView.Update(msg)
		case ViewCommands:
			m.PromptView, c = m.PromptView.Update(msg)
		case ViewHistory:
			m.HistoryView, c = m.HistoryView.Update(msg)
		}
		return m, c
	}

	var dc, pc tea.Cmd
	m.DashView, dc = m.DashView.Update(msg)
	m.PromptView, pc = m.PromptView.Update(msg)
	cmds = append(cmds, dc, pc)

	return m, tea.Batch(cmds...)
}

func (m *Model) onEnter() {
	if m.CurrentView == ViewHistory {
		m.HistoryView.Refresh()
	}
}

func (m *Model) exportSelected() {
	rec := m.HistoryView.Selected()
	if rec == nil {
		m.StatusMsg = "No run selected."
		return
	}
	base := fmt.Sprintf("steadyudp_run_%s", rec.ID)
	if err := report.Export(base, rec); err != nil {
		m.StatusMsg = fmt.Sprintf("Export Failed: %v", err)
		return
	}
	m.StatusMsg = fmt.Sprintf("Exported to %s{.csv,_summary.json,_timeline.json}", base)
}

func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	nav := strings.Builder{}
	for i, item := range m.MenuItems {
		if ViewID(i) == m.CurrentView {
			nav.WriteString(styles.TabActive.Render(item))
		} else {
			nav.WriteString(styles.TabBase.Render(item))
		}
	}
	navBar := styles.FooterBase.Width(m.Width).Render(nav.String())

	contentStr := ""
	switch m.CurrentView {
	case ViewDashboard:
		contentStr = m.DashView.View()
	case ViewCommands:
		contentStr = m.PromptView.View()
	case ViewHistory:
		contentStr = m.HistoryView.View()
	}

	content := styles.Panel.Width(m.Width - 2).Height(m.Height - 6).Render(contentStr)

	keys := []string{
		styles.RenderKey("Tab", "View"),
		styles.RenderKey("Enter", "Send"),
		styles.RenderKey("Ctrl+P", "Export"),
		styles.RenderKey("Ctrl+C", "Stop"),
	}
	footer := styles.FooterBase.Width(m.Width).Render(strings.Join(keys, "   "))

	if m.StatusMsg != "" {
		status := styles.Box.BorderForeground(styles.ColorHighlight).Render(m.StatusMsg)
		return lipgloss.JoinVertical(lipgloss.Left, navBar, content, status, footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left, navBar, content, footer)
}
