package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	applog "github.com/zomer-g/hesdermutne/internal/log"
)

// NewRootCmd creates the root command for hesdermutne.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hesdermutne",
		Short: "Collect conditional arrangement decisions into a CSV file",
		Long: `hesdermutne walks the paginated listing of conditional arrangements
(הסדר מותנה), expands every collapsed case card, extracts the case fields
and writes them to a UTF-8 CSV file.

Each run is also stored in a local history database so runs can be listed
and compared.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored log output")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag reads a bool flag from the command or its persistent parents.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// newLogger creates the logger selected by the global flags.
func newLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	noColor := getBoolFlag(cmd, "no-color")
	if f, ok := w.(*os.File); !ok || !isTerminal(f) {
		noColor = true
	}
	return applog.NewLogger(w, applog.Options{
		Verbose: getBoolFlag(cmd, "verbose"),
		JSON:    getBoolFlag(cmd, "log-json"),
		NoColor: noColor,
	})
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
