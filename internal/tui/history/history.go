package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"steadyudp/internal/storage"
	"steadyudp/internal/tui/styles"
)

// Lister is the read side of the run store.
type Lister interface {
	List() ([]storage.RunRecord, error)
}

type Model struct {
	Store Lister
	Table table.Model
	Items []storage.RunRecord
	Err   error

	Width  int
	Height int
}

func Columns() []table.Column {
	return []table.Column{
		{Title: "Started", Width: 20},
		{Title: "Id", Width: 10},
		{Title: "Duration", Width: 10},
		{Title: "Tier", Width: 7},
		{Title: "Sent", Width: 10},
		{Title: "Recv", Width: 10},
		{Title: "Windows", Width: 8},
		{Title: "Mean /s", Width: 12},
	}
}

// Rows renders records as table rows, in the order given.
func Rows(items []storage.RunRecord) []table.Row {
	rows := make([]table.Row, len(items))
	for i, item := range items {
		rows[i] = table.Row{
			item.Started.Format("2006-01-02 15:04:05"),
			shortID(item.ID),
			item.Duration().Round(time.Second).String(),
			string(item.Config.Tier),
			fmt.Sprintf("%d", item.Summary.Sent),
			fmt.Sprintf("%d", item.Summary.Received),
			fmt.Sprintf("%d", item.Summary.Windows),
			fmt.Sprintf("%.3f", item.Summary.MeanRate),
		}
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func NewModel(store Lister) Model {
	t := table.New(
		table.WithColumns(Columns()),
		table.WithFocused(true),
		table.WithHeight(10), // Will resize
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.ColorPrimary)
	s.Selected = s.Selected.
		Foreground(styles.ColorBg).
		Background(styles.ColorPrimary).
		Bold(true)
	t.SetStyles(s)

	m := Model{
		Store: store,
		Table: t,
	}
	m.Refresh()
	return m
}

// Refresh reloads the runs, newest first.
func (m *Model) Refresh() {
	if m.Store == nil {
		return
	}
	items, err := m.Store.List()
	m.Items, m.Err = items, err
	m.Table.SetRows(Rows(items))
}

// Selected returns the highlighted run, if any.
func (m Model) Selected() *storage.RunRecord {
	idx := m.Table.Cursor()
	if idx >= 0 && idx < len(m.Items) {
		return &m.Items[idx]
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 4)
		m.Table.SetHeight(msg.Height - 6)
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	s := strings.Builder{}
	s.WriteString(styles.Title.Render("Past Runs"))
	s.WriteString("\n\n")

	switch {
	case m.Store == nil:
		s.WriteString(styles.Subtle.Render("History is disabled. Start with --history to record runs."))
	case m.Err != nil:
		s.WriteString(styles.Error.Render(m.Err.Error()))
	case len(m.Items) == 0:
		s.WriteString(styles.Subtle.Render("No runs recorded yet."))
	default:
		s.WriteString(styles.Box.Render(m.Table.View()))
	}
	s.WriteString("\n\n")
	s.WriteString(styles.Subtle.Render("[ctrl+p] Export selected"))
	return s.String()
}
