package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"

	"steadyudp/internal/report"
	"steadyudp/internal/storage"
	"steadyudp/internal/tui/history"
	"steadyudp/internal/tui/styles"
)

// --- History Subcommands ---
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and export recorded runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.List()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println(styles.Subtle.Render("No runs recorded yet."))
			return nil
		}

		t := table.New(
			table.WithColumns(history.Columns()),
			table.WithRows(history.Rows(items)),
			table.WithHeight(len(items)+1),
		)
		fmt.Println(styles.Box.Render(t.View()))
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a recorded run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := getRun(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a recorded run to CSV and JSON files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := getRun(args[0])
		if err != nil {
			return err
		}
		prefix, _ := cmd.Flags().GetString("out")
		if prefix == "" {
			prefix = "steadyudp_run_" + rec.ID
		}
		if err := report.Export(prefix, rec); err != nil {
			return err
		}
		fmt.Printf("Reports saved to %s{.csv,_summary.json,_timeline.json}\n", prefix)
		return nil
	},
}

func init() {
	historyExportCmd.Flags().StringP("out", "o", "", "output filename prefix")
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd)
}

func openHistory() (*storage.Store, error) {
	path := historyFile
	if path == "" {
		p, err := storage.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return storage.Open(path)
}

func getRun(id string) (*storage.RunRecord, error) {
	store, err := openHistory()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Get(id)
}
