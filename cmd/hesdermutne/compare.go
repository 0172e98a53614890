package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/zomer-g/hesdermutne/internal/config"
	"github.com/zomer-g/hesdermutne/internal/database"
	"github.com/zomer-g/hesdermutne/internal/model"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [older-run] [newer-run]",
		Short: "Show cases added or removed between two runs",
		Long: `Compare lists the case numbers that appear in one stored run but not
the other, and the cases whose fields changed.

Without arguments the latest two runs are compared. With one argument that
run is compared against the latest other run. Run IDs may be abbreviated to any
unique prefix (see 'hesdermutne history').

Records without a recovered case number cannot be matched and are only
counted.

Examples:
  # Compare the latest two runs
  hesdermutne compare

  # Compare a specific run with the latest
  hesdermutne compare 3f2a9c1e

  # Output JSON
  hesdermutne compare --json 3f2a9c1e 77b0d2aa`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output the comparison as JSON")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
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

	ctx := context.Background()
	olderID, newerID, err := resolveComparedRuns(ctx, db, args)
	if err != nil {
		return err
	}

	older, err := db.GetRun(ctx, olderID)
	if err != nil {
		return err
	}
	newer, err := db.GetRun(ctx, newerID)
	if err != nil {
		return err
	}

	result := compareRuns(older, newer)
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderComparison(cmd.OutOrStdout(), result)
	return nil
}

// resolveComparedRuns picks the two run IDs to compare from the arguments.
func resolveComparedRuns(ctx context.Context, db *database.RunDB, args []string) (string, string, error) {
	switch len(args) {
	case 2:
		older, err := db.ResolveRunID(ctx, args[0])
		if err != nil {
			return "", "", err
		}
		newer, err := db.ResolveRunID(ctx, args[1])
		if err != nil {
			return "", "", err
		}
		return older, newer, nil
	case 1:
		older, err := db.ResolveRunID(ctx, args[0])
		if err != nil {
			return "", "", err
		}
		latest, err := db.LatestRunIDs(ctx, 2)
		if err != nil {
			return "", "", err
		}
		for _, id := range latest {
			if id != older {
				return older, id, nil
			}
		}
		return "", "", errors.New("no other run to compare with")
	default:
		latest, err := db.LatestRunIDs(ctx, 2)
		if err != nil {
			return "", "", err
		}
		if len(latest) < 2 {
			return "", "", fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(latest))
		}
		return latest[1], latest[0], nil
	}
}

// RunInfo identifies one side of a comparison.
type RunInfo struct {
	ID      string `json:"id"`
	Started string `json:"started_at"`
	Records int    `json:"records"`
	Missing int    `json:"missing_case_numbers"`
}

// Comparison is the difference between two runs by case number.
type Comparison struct {
	Older RunInfo `json:"older"`
	Newer RunInfo `json:"newer"`

	// Added are case numbers present only in the newer run.
	Added []string `json:"added"`

	// Removed are case numbers present only in the older run.
	Removed []string `json:"removed"`

	// Changed are case numbers present in both runs with different fields.
	Changed []CaseChange `json:"changed"`

	// Unchanged counts case numbers present in both runs with equal fields.
	Unchanged int `json:"unchanged"`
}

// CaseChange lists the fields of one case that differ between runs.
type CaseChange struct {
	CaseNumber string   `json:"case_number"`
	Fields     []string `json:"fields"`
}

// compareRuns compares two runs by case number. Records without a case
// number are left out. When a case number occurs more than once in a run
// its first record is used.
func compareRuns(older, newer *model.Run) *Comparison {
	result := &Comparison{
		Older:   runInfo(older),
		Newer:   runInfo(newer),
		Added:   make([]string, 0),
		Removed: make([]string, 0),
		Changed: make([]CaseChange, 0),
	}

	olderByCase := indexByCase(older.Records)
	newerByCase := indexByCase(newer.Records)

	for cn, rec := range newerByCase {
		prev, ok := olderByCase[cn]
		if !ok {
			result.Added = append(result.Added, cn)
			continue
		}
		if fields := changedFields(prev, rec); len(fields) > 0 {
			result.Changed = append(result.Changed, CaseChange{CaseNumber: cn, Fields: fields})
		} else {
			result.Unchanged++
		}
	}
	for cn := range olderByCase {
		if _, ok := newerByCase[cn]; !ok {
			result.Removed = append(result.Removed, cn)
		}
	}

	slices.Sort(result.Added)
	slices.Sort(result.Removed)
	slices.SortFunc(result.Changed, func(a, b CaseChange) int {
		return strings.Compare(a.CaseNumber, b.CaseNumber)
	})
	return result
}

func runInfo(run *model.Run) RunInfo {
	return RunInfo{
		ID:      run.ID,
		Started: run.StartedAt.Format("2006-01-02 15:04:05"),
		Records: len(run.Records),
		Missing: run.MissingCaseNumbers(),
	}
}

func indexByCase(records []model.Record) map[string]model.Record {
	out := make(map[string]model.Record, len(records))
	for _, rec := range records {
		if !rec.HasCaseNumber() {
			continue
		}
		if _, seen := out[rec.CaseNumber()]; !seen {
			out[rec.CaseNumber()] = rec
		}
	}
	return out
}

func changedFields(a, b model.Record) []string {
	var fields []string
	for _, f := range model.Fields() {
		if a.Get(f) != b.Get(f) {
			fields = append(fields, f.Key())
		}
	}
	return fields
}

// renderComparison prints the comparison as tables.
func renderComparison(w io.Writer, c *Comparison) {
	t := newTable(w)
	t.AppendHeader(table.Row{"", "Run", "Started", "Records", "Missing"})
	t.AppendRow(table.Row{"older", shortID(c.Older.ID), c.Older.Started, c.Older.Records, c.Older.Missing})
	t.AppendRow(table.Row{"newer", shortID(c.Newer.ID), c.Newer.Started, c.Newer.Records, c.Newer.Missing})
	t.Render()

	fmt.Fprintf(w, "\nAdded: %d  Removed: %d  Changed: %d  Unchanged: %d\n",
		len(c.Added), len(c.Removed), len(c.Changed), c.Unchanged)

	if len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0 {
		fmt.Fprintln(w, "\nNo differences.")
		return
	}

	t = newTable(w)
	t.AppendHeader(table.Row{"Change", "Case number", "Fields"})
	for _, cn := range c.Added {
		t.AppendRow(table.Row{"+ added", cn, ""})
	}
	for _, cn := range c.Removed {
		t.AppendRow(table.Row{"- removed", cn, ""})
	}
	for _, ch := range c.Changed {
		t.AppendRow(table.Row{"~ changed", ch.CaseNumber, fmt.Sprint(ch.Fields)})
	}
	fmt.Fprintln(w)
	t.Render()
}
