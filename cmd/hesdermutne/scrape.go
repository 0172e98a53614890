package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zomer-g/hesdermutne/internal/config"
	"github.com/zomer-g/hesdermutne/internal/crawler"
	"github.com/zomer-g/hesdermutne/internal/database"
	"github.com/zomer-g/hesdermutne/internal/model"
	"github.com/zomer-g/hesdermutne/internal/render"
	"github.com/zomer-g/hesdermutne/internal/report"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [listing-url]",
		Short: "Collect all cases from the listing into a CSV file",
		Long: `Scrape walks the listing one page at a time. On every page it expands
the collapsed case cards, extracts the case fields and appends the records.
The walk ends at the first page without records (or at --end-page).

Records are written to a UTF-8 CSV file with Hebrew column names, in the
order they were found. The run is also stored in the history database.

Examples:
  # Scrape the listing with headless Chromium
  hesdermutne scrape "https://listing.example/arrangements?lang=he"

  # Use the URL and layout from a config file, stop after 20 pages
  hesdermutne scrape -c site.yaml --end-page 20

  # Fetch a pre-rendered mirror without a browser
  hesdermutne scrape --renderer static http://localhost:8080/list

  # Keep the raw markup of every page and write a Markdown summary
  hesdermutne scrape --dump-dir pages --summary run.md <url>`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScrapeCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"CSV output path (creates directories if needed)")
	cmd.Flags().Int("start-page", config.DefaultStartPage,
		"First listing page to request (1-based)")
	cmd.Flags().Int("end-page", 0,
		"Last listing page to request (0 = until a page has no records)")
	cmd.Flags().Int("page-size", config.DefaultPageSize,
		"Records per listing page; the skip parameter advances by this amount")

	cmd.Flags().StringP("renderer", "r", config.DefaultRenderer,
		"Page renderer: browser or static")
	cmd.Flags().Bool("headed", false,
		"Show the browser window")
	cmd.Flags().Bool("install-driver", false,
		"Download the Playwright driver and Chromium before starting")
	cmd.Flags().String("user-agent", "",
		"User-Agent header to send")

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Navigation timeout per page")
	cmd.Flags().Duration("ready-timeout", config.DefaultReadyTimeout,
		"Wait up to this long for the first case card (0 = use --settle-delay)")
	cmd.Flags().Duration("settle-delay", config.DefaultSettleDelay,
		"Fixed wait after navigation when --ready-timeout is 0")
	cmd.Flags().Duration("expand-delay", config.DefaultExpandDelay,
		"Pause after each collapsed-card toggle")
	cmd.Flags().Duration("click-timeout", config.DefaultClickTimeout,
		"Time limit for each collapsed-card toggle click")

	cmd.Flags().String("dump-dir", "",
		"Write the raw markup of every page into this directory")
	cmd.Flags().String("summary", "",
		"Write a run summary to this file (.md, .json or text)")
	cmd.Flags().Bool("no-history", false,
		"Do not store the run in the history database")
	cmd.Flags().Bool("no-bom", false,
		"Omit the UTF-8 byte order mark from the CSV")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .hesdermutne in current or home directory)")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd, os.Stderr)
	slog.SetDefault(logger)

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := newRenderer(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Error("failed to release renderer", "error", err)
		}
	}()

	return runScrape(ctx, cfg, renderer, logger, cmd.OutOrStdout())
}

// buildConfig layers defaults, the config file and the flags the user set.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit config path must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if len(args) > 0 {
		cfg.BaseURL = args[0]
	}

	stringFlags := map[string]*string{
		"output":     &cfg.OutputFile,
		"renderer":   &cfg.Renderer,
		"user-agent": &cfg.UserAgent,
		"dump-dir":   &cfg.DumpDir,
		"summary":    &cfg.SummaryFile,
	}
	for name, dst := range stringFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetString(name); err != nil {
				return nil, err
			}
		}
	}

	intFlags := map[string]*int{
		"start-page": &cfg.StartPage,
		"end-page":   &cfg.EndPage,
		"page-size":  &cfg.PageSize,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetInt(name); err != nil {
				return nil, err
			}
		}
	}

	durationFlags := map[string]*time.Duration{
		"timeout":       &cfg.Timeout,
		"ready-timeout": &cfg.ReadyTimeout,
		"settle-delay":  &cfg.SettleDelay,
		"expand-delay":  &cfg.ExpandDelay,
		"click-timeout": &cfg.ClickTimeout,
	}
	for name, dst := range durationFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetDuration(name); err != nil {
				return nil, err
			}
		}
	}

	headed, err := flags.GetBool("headed")
	if err != nil {
		return nil, err
	}
	cfg.Headless = !headed

	if cfg.InstallDriver, err = flags.GetBool("install-driver"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	noBOM, err := flags.GetBool("no-bom")
	if err != nil {
		return nil, err
	}
	cfg.BOM = !noBOM

	cfg.Verbose = getBoolFlag(cmd, "verbose")

	return cfg, nil
}

// newRenderer acquires the renderer selected in cfg.
// The caller owns the result and must Close it.
func newRenderer(cfg *config.Config, logger *slog.Logger) (render.Renderer, error) {
	kind, err := render.ParseKind(cfg.Renderer)
	if err != nil {
		return nil, err
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = render.DefaultUserAgent
	}

	switch kind {
	case render.KindStatic:
		return render.NewStatic(
			render.WithTimeout(cfg.Timeout),
			render.WithUserAgent(userAgent),
			render.WithStaticLogger(logger),
		), nil
	default:
		if cfg.InstallDriver {
			logger.Info("installing browser driver, this may take a few minutes")
		}
		b, err := render.NewBrowser(
			render.WithHeadless(cfg.Headless),
			render.WithInstallDriver(cfg.InstallDriver),
			render.WithBrowserUserAgent(userAgent),
			render.WithNavigationTimeout(cfg.Timeout),
			render.WithBrowserLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("%w (run with --install-driver on first use)", err)
		}
		return b, nil
	}
}

// runScrape walks the listing with renderer and writes every output.
// Records gathered before a cancellation are still written; the
// cancellation is then returned.
func runScrape(ctx context.Context, cfg *config.Config, renderer render.Renderer, logger *slog.Logger, out io.Writer) error {
	walker, err := crawler.NewWalker(renderer, cfg.BaseURL,
		crawler.WithSchema(cfg.Schema),
		crawler.WithStartPage(cfg.StartPage),
		crawler.WithEndPage(cfg.EndPage),
		crawler.WithPageSize(cfg.PageSize),
		crawler.WithReadyTimeout(cfg.ReadyTimeout),
		crawler.WithSettleDelay(cfg.SettleDelay),
		crawler.WithExpandDelay(cfg.ExpandDelay),
		crawler.WithClickTimeout(cfg.ClickTimeout),
		crawler.WithDumpDir(cfg.DumpDir),
		crawler.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	run, walkErr := walker.Walk(ctx)
	if run == nil {
		return walkErr
	}
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return walkErr
	}
	if walkErr != nil {
		logger.Warn("scrape interrupted, writing records gathered so far",
			"records", len(run.Records),
		)
	}

	if err := report.SaveCSV(cfg.OutputFile, run.Records, report.WithBOM(cfg.BOM)); err != nil {
		return err
	}
	logger.Info("records written", "file", cfg.OutputFile, "records", len(run.Records))

	if _, err := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)).Write(run); err != nil {
		return err
	}

	if cfg.SummaryFile != "" {
		if err := writeSummaryFile(cfg.SummaryFile, run); err != nil {
			logger.Error("failed to write summary", "file", cfg.SummaryFile, "error", err)
		}
	}

	if cfg.SaveToDB {
		// History is saved even when the run was cancelled.
		if err := saveRun(context.WithoutCancel(ctx), cfg.DBDir, run, logger); err != nil {
			logger.Error("failed to save run history", "error", err)
		}
	}

	if walkErr != nil {
		return fmt.Errorf("scrape cancelled after %d records: %w", len(run.Records), walkErr)
	}
	return nil
}

// writeSummaryFile writes the run summary in the format implied by path.
func writeSummaryFile(path string, run *model.Run) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // summary path is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = report.NewWriter(report.FormatFromPath(path), f).Write(run)
	return err
}

// saveRun stores the run in the history database.
func saveRun(ctx context.Context, dbDir string, run *model.Run, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.SaveRun(ctx, run); err != nil {
		return err
	}
	logger.Info("run saved to history", "run", run.ID, "db", db.Path())
	return nil
}
