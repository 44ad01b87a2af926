package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"steadyudp/internal/runner"
	"steadyudp/internal/stats"
	"steadyudp/internal/tui/components"
	"steadyudp/internal/tui/styles"
)

// pendingCeiling is the in-flight count shown as a full gauge.
const pendingCeiling = 4 * stats.DefaultWindow

type Model struct {
	Stats    runner.StatsSnapshot
	Progress progress.Model

	RateLine components.Sparkline
	SendLine components.Sparkline
	WorkLine components.Sparkline

	StartTime  time.Time
	LastUpdate time.Time
	LastSent   uint64

	Width  int
	Height int
}

func NewModel() Model {
	return Model{
		Progress:  progress.New(progress.WithDefaultGradient()),
		RateLine:  components.NewSparkline(40, "Reply rate (/s, per 50)", styles.Active),
		SendLine:  components.NewSparkline(40, "Send rate (/s)", styles.Value),
		WorkLine:  components.NewSparkline(40, "Cycle work P99 (ms)", styles.Warn),
		StartTime: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runner.StatsSnapshot:
		if m.LastUpdate.IsZero() {
			m.LastUpdate = msg.At
		}
		dt := msg.At.Sub(m.LastUpdate).Seconds()

		// Send rate only advances when time passed between snapshots.
		if dt > 0 {
			m.SendLine.Add(float64(msg.Sent-m.LastSent) / dt)
			m.LastSent = msg.Sent
			m.LastUpdate = msg.At
		}
		if msg.Windows != m.Stats.Windows {
			m.RateLine.Add(msg.LastRate)
		}
		m.WorkLine.Add(msg.P99WorkMs)
		m.Stats = msg

		pct := float64(msg.Pending) / float64(pendingCeiling)
		if pct > 1.0 {
			pct = 1.0
		}
		if pct < 0 {
			pct = 0
		}
		cmd := m.Progress.SetPercent(pct)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 8

		third := (msg.Width / 3) - 6
		if third < 10 {
			third = 10
		}
		m.RateLine.Width = third
		m.SendLine.Width = third
		m.WorkLine.Width = third
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}
	st := m.Stats

	col1 := fmt.Sprintf("SENT: %d\nRECV: %d", st.Sent, st.Received)
	col2 := fmt.Sprintf("PENDING: %s\nBLOCKED: %d",
		styles.Pending(st.Pending, stats.DefaultWindow).Render(fmt.Sprintf("%d", st.Pending)),
		st.SendBlocks,
	)

	errStyle := styles.Active
	if st.SendErrors+st.RecvErrors > 0 {
		errStyle = styles.Error
	}
	col3 := errStyle.Render(fmt.Sprintf("SEND ERR: %d\nRECV ERR: %d", st.SendErrors, st.RecvErrors))

	col4 := fmt.Sprintf("TIER: %s (%s)\nRANGE: [%d, %d]",
		styles.Value.Render(string(st.Tier)), st.Period, st.Low, st.High)

	grid := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(col2),
		styles.Box.Render(col3),
		styles.Box.Render(col4),
	)
	s.WriteString(grid)
	s.WriteString("\n\n")

	// Sparklines
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RateLine.View()),
		styles.Box.Render(m.SendLine.View()),
		styles.Box.Render(m.WorkLine.View()),
	))
	s.WriteString("\n\n")

	detail := fmt.Sprintf(
		"Windows: %d  |  Last rate: %.3f /s  |  Cycles: %d  |  Work P50: %.3f ms  P99: %.3f ms  Max: %.3f ms  |  Up: %s",
		st.Windows, st.LastRate, st.Cycles, st.P50WorkMs, st.P99WorkMs, st.MaxWorkMs,
		st.At.Sub(m.StartTime).Round(time.Second),
	)
	width := m.Width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(styles.Box.Width(width).Render(detail))
	s.WriteString("\n\n")

	s.WriteString(styles.Title.Render(fmt.Sprintf("Servers (%d)", len(st.Targets))))
	s.WriteString("\n")
	if len(st.Targets) == 0 {
		s.WriteString(styles.Subtle.Render("  none configured, sends are skipped"))
	} else {
		s.WriteString("  " + strings.Join(st.Targets, "  "))
	}
	s.WriteString("\n\n")

	s.WriteString(styles.Subtle.Render("In flight"))
	s.WriteString("\n")
	s.WriteString(m.Progress.View())

	return s.String()
}
