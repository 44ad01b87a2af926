package app

import (
	"bytes"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"steadyudp/internal/runner"
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_NavigationAndCommands(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	stopped := false
	var mod tea.Model = NewModel(make(runner.StatsUpdateChan, 1), func() { stopped = true }, nil, &out, nil)

	mod, _ = mod.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	mod, _ = mod.Update(keys("2"))
	if v := mod.(Model).CurrentView; v != ViewCommands {
		t.Fatalf("view=%d", v)
	}

	// Plain keys are typed into the prompt, not treated as navigation.
	for _, k := range []string{"l", "o", "a", "d", " ", "h", "i", "g", "h", "q"} {
		mod, _ = mod.Update(keys(k))
	}
	if v := mod.(Model).CurrentView; v != ViewCommands {
		t.Fatalf("view=%d", v)
	}
	if stopped {
		t.Fatal("q inside the prompt must not stop the run")
	}
	m := mod.(Model)
	m.PromptView.Input.SetValue("load high")
	mod, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if out.String() != "load high\n" {
		t.Fatalf("out=%q", out.String())
	}

	mod, _ = mod.Update(tea.KeyMsg{Type: tea.KeyTab})
	if v := mod.(Model).CurrentView; v != ViewHistory {
		t.Fatalf("view=%d", v)
	}

	_, cmd := mod.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !stopped || cmd == nil {
		t.Fatalf("stopped=%v cmd=%v", stopped, cmd)
	}
}

func TestModel_StatsReachDashboard(t *testing.T) {
	t.Parallel()

	updates := make(runner.StatsUpdateChan, 1)
	var mod tea.Model = NewModel(updates, nil, nil, &bytes.Buffer{}, nil)

	mod, cmd := mod.Update(StatsMsg{Sent: 7, Received: 3})
	if cmd == nil {
		t.Fatal("expected resubscribe command")
	}
	if got := mod.(Model).DashView.Stats.Sent; got != 7 {
		t.Fatalf("sent=%d", got)
	}
}

func TestModel_RunDoneQuits(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	close(done)
	m := NewModel(make(runner.StatsUpdateChan), nil, done, &bytes.Buffer{}, nil)
	if msg := waitForDone(m.Done)(); msg != (RunDoneMsg{}) {
		t.Fatalf("msg=%v", msg)
	}
	if _, cmd := m.Update(RunDoneMsg{}); cmd == nil {
		t.Fatal("expected quit")
	}
}
