package config

import (
	"time"

	"github.com/zomer-g/hesdermutne/internal/extract"
)

// File represents the structure of the .hesdermutne configuration file.
// Every key is optional; unset keys keep the built-in defaults.
type File struct {
	// BaseURL is the listing URL.
	BaseURL string `yaml:"baseURL,omitempty"`

	// Output is the CSV destination.
	Output string `yaml:"output,omitempty"`

	// StartPage, EndPage and PageSize control pagination.
	StartPage int `yaml:"startPage,omitempty"`
	EndPage   int `yaml:"endPage,omitempty"`
	PageSize  int `yaml:"pageSize,omitempty"`

	// Renderer is "browser" or "static".
	Renderer string `yaml:"renderer,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Waits, written as Go durations ("15s", "500ms"). An explicit 0 is
	// kept: readyTimeout 0 selects the fixed settle delay.
	Timeout      *time.Duration `yaml:"timeout,omitempty"`
	ReadyTimeout *time.Duration `yaml:"readyTimeout,omitempty"`
	SettleDelay  *time.Duration `yaml:"settleDelay,omitempty"`
	ExpandDelay  *time.Duration `yaml:"expandDelay,omitempty"`
	ClickTimeout *time.Duration `yaml:"clickTimeout,omitempty"`

	// Schema overrides selectors, labels, section markers and known years.
	Schema extract.Schema `yaml:"schema,omitempty"`
}

// Apply copies every value set in the file onto c.
// Schema values are merged over the current schema.
func (cf *File) Apply(c *Config) {
	if cf == nil {
		return
	}
	if cf.BaseURL != "" {
		c.BaseURL = cf.BaseURL
	}
	if cf.Output != "" {
		c.OutputFile = cf.Output
	}
	if cf.StartPage != 0 {
		c.StartPage = cf.StartPage
	}
	if cf.EndPage != 0 {
		c.EndPage = cf.EndPage
	}
	if cf.PageSize != 0 {
		c.PageSize = cf.PageSize
	}
	if cf.Renderer != "" {
		c.Renderer = cf.Renderer
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	for dst, src := range map[*time.Duration]*time.Duration{
		&c.Timeout:      cf.Timeout,
		&c.ReadyTimeout: cf.ReadyTimeout,
		&c.SettleDelay:  cf.SettleDelay,
		&c.ExpandDelay:  cf.ExpandDelay,
		&c.ClickTimeout: cf.ClickTimeout,
	} {
		if src != nil {
			*dst = *src
		}
	}
	c.Schema = c.Schema.Merge(cf.Schema)
}
