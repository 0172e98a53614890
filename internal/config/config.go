package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/zomer-g/hesdermutne/internal/extract"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "hesdermutne"

	// DefaultOutputFile is the CSV written when no output path is given.
	DefaultOutputFile = "hesder_mutne.csv"

	// DefaultStartPage is the first listing page requested (1-based).
	DefaultStartPage = 1

	// DefaultPageSize is the number of cases per listing page. The skip
	// parameter advances by this amount.
	DefaultPageSize = 10

	// DefaultRenderer renders pages in headless Chromium.
	DefaultRenderer = "browser"

	// DefaultTimeout bounds page navigation and HTTP requests.
	// The listing is slow to build on cold caches.
	DefaultTimeout = 60 * time.Second

	// DefaultReadyTimeout bounds the wait for the first content block.
	DefaultReadyTimeout = 15 * time.Second

	// DefaultSettleDelay is the fixed wait after navigation, used only when
	// the ready timeout is zero.
	DefaultSettleDelay = 5 * time.Second

	// DefaultExpandDelay is the pause after each collapsed-content toggle.
	DefaultExpandDelay = 500 * time.Millisecond

	// DefaultClickTimeout bounds each toggle click.
	DefaultClickTimeout = 5 * time.Second
)

// Config holds all options of a scrape run.
// It is populated from defaults, then the config file, then CLI flags.
type Config struct {
	// BaseURL is the listing URL. The skip parameter is added per page;
	// other query parameters are preserved.
	BaseURL string

	// OutputFile is the CSV destination. Parent directories are created.
	OutputFile string

	// StartPage is the first page index (1-based).
	StartPage int

	// EndPage is the last page to request. 0 means no bound: the run ends
	// on the first page without records.
	EndPage int

	// PageSize is the number of records per listing page.
	PageSize int

	// Renderer selects the page renderer: "browser" or "static".
	Renderer string

	// Headless runs the browser without a window.
	Headless bool

	// InstallDriver downloads the Playwright driver and Chromium first.
	InstallDriver bool

	// Timeout bounds navigation (browser) or each request (static).
	Timeout time.Duration

	// ReadyTimeout bounds the wait for the first block. 0 falls back to
	// the fixed SettleDelay.
	ReadyTimeout time.Duration

	// SettleDelay is the fixed wait after navigation when ReadyTimeout is 0.
	SettleDelay time.Duration

	// ExpandDelay is the pause after each toggle click.
	ExpandDelay time.Duration

	// ClickTimeout bounds each toggle click.
	ClickTimeout time.Duration

	// DumpDir, when set, receives the raw markup of every visited page.
	DumpDir string

	// SummaryFile, when set, receives a Markdown summary of the run.
	SummaryFile string

	// DBDir is the directory of the run history database.
	DBDir string

	// SaveToDB stores the run and its records in the history database.
	SaveToDB bool

	// BOM prefixes the CSV with a UTF-8 byte order mark so spreadsheet
	// tools detect the Hebrew text correctly.
	BOM bool

	// UserAgent is sent with every request.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the configuration file path. If empty, the tool
	// searches for .hesdermutne in the current and home directories.
	ConfigFilePath string

	// Schema describes the listing layout.
	Schema extract.Schema
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputFile:   DefaultOutputFile,
		StartPage:    DefaultStartPage,
		PageSize:     DefaultPageSize,
		Renderer:     DefaultRenderer,
		Headless:     true,
		Timeout:      DefaultTimeout,
		ReadyTimeout: DefaultReadyTimeout,
		SettleDelay:  DefaultSettleDelay,
		ExpandDelay:  DefaultExpandDelay,
		ClickTimeout: DefaultClickTimeout,
		DBDir:        XDGDataDir(),
		SaveToDB:     true,
		BOM:          true,
		Schema:       extract.DefaultSchema(),
	}
}

// XDGDataDir returns the XDG data directory of the application.
// On Linux: ~/.local/share/hesdermutne
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory of the application.
// On Linux: ~/.config/hesdermutne
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	if c.OutputFile == "" {
		return ErrNoOutputFile
	}

	if c.StartPage < 1 {
		return ErrInvalidStartPage
	}
	if c.EndPage < 0 || (c.EndPage > 0 && c.EndPage < c.StartPage) {
		return ErrInvalidEndPage
	}
	if c.PageSize <= 0 {
		return ErrInvalidPageSize
	}

	switch c.Renderer {
	case "browser", "static":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRenderer, c.Renderer)
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ReadyTimeout < 0 || c.SettleDelay < 0 || c.ExpandDelay < 0 || c.ClickTimeout < 0 {
		return ErrInvalidDelay
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return c.Schema.Validate()
}
