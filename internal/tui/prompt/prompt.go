package prompt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"steadyudp/internal/command"
	"steadyudp/internal/tui/styles"
)

// maxLog is the number of sent lines kept on screen.
const maxLog = 12

// OpenFIFO opens the command FIFO for appending. The open blocks until the
// generator holds the read end.
func OpenFIFO(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return nil, fmt.Errorf("open command fifo %s: %w", path, err)
	}
	return f, nil
}

// SentMsg reports the outcome of one submitted line.
type SentMsg struct {
	Line string
	Err  error
}

// Model is a one-line command prompt writing to the command channel.
// Lines are checked locally before sending; rejected lines never reach the
// generator.
type Model struct {
	Input textinput.Model
	Out   io.Writer

	// Standalone prompts quit on ctrl+d or an empty ctrl+c.
	Standalone bool

	Log []string
	Err string

	Width int
}

func New(out io.Writer, standalone bool) Model {
	ti := textinput.New()
	ti.Placeholder = "load mid | range 0 100 | server add 127.0.0.1 9000"
	ti.Prompt = "» "
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()

	return Model{
		Input:      ti,
		Out:        out,
		Standalone: standalone,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Submit validates and writes one line.
func (m Model) Submit(line string) SentMsg {
	line = strings.TrimSpace(line)
	if line == "" {
		return SentMsg{}
	}
	if !strings.HasPrefix(line, "#") {
		if _, err := command.Parse(line); err != nil {
			return SentMsg{Line: line, Err: err}
		}
	}
	if _, err := io.WriteString(m.Out, line+"\n"); err != nil {
		return SentMsg{Line: line, Err: err}
	}
	return SentMsg{Line: line}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			res := m.Submit(m.Input.Value())
			m.Input.SetValue("")
			m.record(res)
			return m, nil
		case "ctrl+d":
			if m.Standalone {
				return m, tea.Quit
			}
		case "ctrl+c", "esc":
			if m.Standalone {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Input.Width = msg.Width - 10
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m *Model) record(res SentMsg) {
	if res.Line == "" {
		return
	}
	if res.Err != nil {
		m.Err = fmt.Sprintf("%s: %v", res.Line, res.Err)
		return
	}
	m.Err = ""
	m.Log = append(m.Log, res.Line)
	if len(m.Log) > maxLog {
		m.Log = m.Log[len(m.Log)-maxLog:]
	}
}

func (m Model) View() string {
	s := strings.Builder{}
	s.WriteString(styles.Title.Render("Commands"))
	s.WriteString("\n\n")

	for _, l := range m.Log {
		s.WriteString(styles.Subtle.Render("  sent ") + l + "\n")
	}
	if len(m.Log) > 0 {
		s.WriteString("\n")
	}

	s.WriteString(styles.InputActive.Render(m.Input.View()))
	s.WriteString("\n")
	if m.Err != "" {
		s.WriteString(styles.Error.Render(m.Err))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(styles.Subtle.Render(command.Usage))
	return s.String()
}
