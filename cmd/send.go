package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"steadyudp/internal/cli"
	"steadyudp/internal/tui/prompt"
)

// --- Send Subcommand ---
var sendCmd = &cobra.Command{
	Use:   "send [command...]",
	Short: "Write commands to a running generator's FIFO",
	Long: `Without arguments an interactive prompt is opened; every line entered is
checked and appended to the command FIFO. ctrl+d ends the session.
With arguments, they are sent as a single command line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := commandFIFO()
		if err != nil {
			return err
		}

		out, err := prompt.OpenFIFO(path)
		if err != nil {
			return err
		}
		defer out.Close()

		m := prompt.New(out, true)
		if len(args) > 0 {
			res := m.Submit(strings.Join(args, " "))
			if res.Err != nil {
				return res.Err
			}
			fmt.Printf("sent %q to %s\n", res.Line, path)
			return nil
		}

		_, err = tea.NewProgram(promptProgram{m}).Run()
		return err
	},
}

// promptProgram adapts prompt.Model, whose Update returns its concrete type,
// to the tea.Model interface for use as a standalone program.
type promptProgram struct{ prompt.Model }

func (p promptProgram) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := p.Model.Update(msg)
	return promptProgram{m}, cmd
}

func commandFIFO() (string, error) {
	if fifoPath != "" {
		return fifoPath, nil
	}
	cfg, err := cli.LoadConfig(cli.Options{
		ConfigPath:  viper.GetString("config"),
		MessagePath: viper.GetString("message-config"),
	})
	if err != nil {
		return "", err
	}
	if cfg.UsesStdin() {
		return "", fmt.Errorf("generator reads commands from stdin, nothing to send to")
	}
	return cfg.FIFOPath, nil
}
