package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/zomer-g/hesdermutne/internal/config"
	"github.com/zomer-g/hesdermutne/internal/database"
)

// shortIDLen is how much of a run ID the tables show. Any unique prefix is
// accepted wherever a run ID is expected.
const shortIDLen = 8

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored scrape runs",
		Long: `History lists the runs stored in the history database, newest first.

Examples:
  # Show the last 20 runs
  hesdermutne history

  # Show every stored run
  hesdermutne history --limit 0`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of runs to show (0 = all)")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	return renderHistory(cmd.OutOrStdout(), runs)
}

// renderHistory prints the runs as a table.
func renderHistory(w io.Writer, runs []database.RunMetadata) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored yet.")
		fmt.Fprintln(w, "\nUse 'hesdermutne scrape' to collect the listing.")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Started", "Duration", "Pages", "Records", "Missing", "Stop"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Duration().Round(time.Second),
			r.Pages,
			r.Records,
			r.Missing,
			string(r.StopReason),
		})
	}
	t.Render()

	fmt.Fprintln(w, "\nUse 'hesdermutne compare' to compare the latest two runs.")
	return nil
}

// newTable creates a table writer in the CLI style.
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
