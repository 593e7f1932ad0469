package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scholar-cv/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScrapeConfig holds settings for the scrape stage.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// UserID is the scholar profile identifier (e.g. "-VPPZ8YAAAAJ").
	UserID string `json:"user_id" yaml:"user_id"`

	// MaxRecords caps the number of publications collected; 0 means no cap.
	MaxRecords int `json:"max_records" yaml:"max_records"`

	// PageSize is the number of entries requested per batch (default 20,
	// upstream maximum 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// FetchRetries is the number of attempts for a failed batch fetch
	// before the run ends with partial results (default 3).
	FetchRetries int `json:"fetch_retries" yaml:"fetch_retries"`

	// StallLimit ends the run after this many consecutive batches with no
	// unseen entries (default 3).
	StallLimit int `json:"stall_limit" yaml:"stall_limit"`

	// BatchDelay is the pause between consecutive batch fetches (default 1s).
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay"`

	// Engine selects the page client: "browser" (headless Chrome) or
	// "http" (plain requests).
	Engine string `json:"engine" yaml:"engine"`

	// Details loads each entry's detail page for the untruncated author
	// list and per-year citation counts, when the page client supports
	// it (default true). One extra request per new entry.
	Details bool `json:"details" yaml:"details"`
}

// BrowserConfig holds settings for the headless-browser page client.
type BrowserConfig struct {
	// Headless runs the browser without a window (default true).
	Headless bool `json:"headless" yaml:"headless"`

	// NavTimeout bounds page navigation and load waits (default 30s).
	NavTimeout time.Duration `json:"nav_timeout" yaml:"nav_timeout"`

	// ShowMoreDelay is the settle time after clicking "Show more"
	// before reading newly rendered rows (default 2s).
	ShowMoreDelay time.Duration `json:"show_more_delay" yaml:"show_more_delay"`
}

// OutputFormat selects the report output format.
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputLaTeX    OutputFormat = "latex"
)

// ReportConfig holds settings for report assembly and rendering.
type ReportConfig struct {
	// Format selects the output format: markdown or latex.
	Format OutputFormat `json:"format" yaml:"format"`

	// TrackedJournals lists journal names (display spelling) whose counts
	// appear in the report's statistics paragraph.
	TrackedJournals []string `json:"tracked_journals,omitempty" yaml:"tracked_journals,omitempty"`
}

// StoreConfig holds settings for the run archive.
type StoreConfig struct {
	// ArchiveDir is the directory holding the SQLite archive (default
	// "archive/").
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Scrape  ScrapeConfig  `json:"scrape" yaml:"scrape"`
	Browser BrowserConfig `json:"browser" yaml:"browser"`
	Profile VariantSet    `json:"profile" yaml:"profile"`
	Report  ReportConfig  `json:"report" yaml:"report"`
	Store   StoreConfig   `json:"store" yaml:"store"`
}
