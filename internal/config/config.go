package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "seocheck"

	// DefaultDebounce is the quiet period after the last document change
	// before the recompute loop re-evaluates. Typing bursts shorter than
	// this collapse into one evaluation.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultWorkers is the number of outbound links verified at the same
	// time. Small on purpose: the verifier probes third-party sites.
	DefaultWorkers = 5

	// DefaultLinkTimeout bounds one link verification, HEAD and the GET
	// fallback included.
	DefaultLinkTimeout = 10 * time.Second

	// DefaultLinkCacheTTL is how long a persisted link result is trusted
	// before the link is probed again.
	DefaultLinkCacheTTL = 24 * time.Hour

	// DefaultBackendTimeout is the HTTP timeout for REST backend calls.
	DefaultBackendTimeout = 30 * time.Second

	// DefaultHistoryLimit is how many evaluations `seocheck history` lists.
	DefaultHistoryLimit = 20

	// DefaultUserAgent identifies seocheck in HTTP requests.
	DefaultUserAgent = "seocheck/1.0 (+https://github.com/nao1215/seocheck)"
)

// Config holds all configuration options for seocheck.
// It is populated from CLI flags, merged with the site section of the
// configuration file, and passed down explicitly.
type Config struct {
	// Target is the HTML file to evaluate or watch.
	Target string

	// URL is the public URL of the document. When empty, the canonical
	// link of the HTML file is used.
	URL string

	// Keyword is the focus keyword. Empty disables keyword checks.
	Keyword string

	// TitleOverride and DescriptionOverride replace the document title and
	// meta description in the checks, like an SEO plugin's custom fields.
	TitleOverride       string
	DescriptionOverride string

	// PostID and EntityType identify the document for the ignore list
	// and the server-side checks.
	PostID     int64
	EntityType string

	// Debounce is the recompute loop's quiet period.
	Debounce time.Duration

	// CheckLinks enables outbound link verification.
	CheckLinks bool

	// Workers is the link verifier's concurrency limit.
	Workers int

	// LinkTimeout bounds a single link verification.
	LinkTimeout time.Duration

	// LinkCacheTTL is the maximum age of a persisted link result that is
	// reused instead of probing again. Zero disables reuse.
	LinkCacheTTL time.Duration

	// LinkExcludes are URL path patterns skipped by the link verifier
	// (e.g. "/wp-admin/*", "*.pdf").
	LinkExcludes []string

	// BackendURL is the REST base URL of the override and server-check
	// backend, e.g. "https://example.com/wp-json/seocheck/v1".
	// When empty, the local SQLite database is used instead.
	BackendURL string

	// Nonce is sent as X-WP-Nonce on backend requests.
	Nonce string

	// Username and AppPassword authenticate against the backend with an
	// application password.
	Username    string
	AppPassword string

	// BackendTimeout is the HTTP timeout for backend requests.
	BackendTimeout time.Duration

	// ServerChecks fetches the server-computed page checks from the
	// backend and merges them into the page group.
	ServerChecks bool

	// DBDir is the directory of the SQLite database holding the local
	// ignore lists, evaluation history and link results.
	// Defaults to the XDG data directory (~/.local/share/seocheck on Linux).
	DBDir string

	// SaveToDB stores each evaluation in the history table.
	SaveToDB bool

	// UserAgent is the User-Agent header of outbound requests.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .seocheck is searched in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds the per-site sections of the configuration file.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects GitHub Flavored Markdown output.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// FailOn makes `check` exit non-zero when the overall status is at
	// least this severe: "error", "warning" or "suggestion". Empty never fails.
	FailOn string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		EntityType:     "post",
		Debounce:       DefaultDebounce,
		Workers:        DefaultWorkers,
		LinkTimeout:    DefaultLinkTimeout,
		LinkCacheTTL:   DefaultLinkCacheTTL,
		BackendTimeout: DefaultBackendTimeout,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
		UserAgent:      DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for seocheck.
// On Linux: ~/.local/share/seocheck
// On macOS: ~/Library/Application Support/seocheck
// On Windows: %LOCALAPPDATA%\seocheck
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for seocheck.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrNoTarget
	}
	return c.validateCommon()
}

// ValidateBackend checks the settings needed by the override commands,
// which do not evaluate a file.
func (c *Config) ValidateBackend() error {
	if c.PostID <= 0 {
		return ErrInvalidPostID
	}
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	if c.Debounce <= 0 {
		return ErrInvalidDebounce
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.LinkTimeout <= 0 || c.BackendTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.LinkCacheTTL < 0 {
		return ErrInvalidLinkCacheTTL
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	switch c.EntityType {
	case "post", "taxonomy":
	default:
		return ErrInvalidEntityType
	}

	switch c.FailOn {
	case "", "error", "warning", "suggestion":
	default:
		return ErrInvalidFailOn
	}

	if c.ServerChecks && c.BackendURL == "" {
		return ErrServerChecksWithoutBackend
	}

	if (c.Username == "") != (c.AppPassword == "") {
		return ErrIncompleteCredentials
	}

	return nil
}

// ApplySite merges the configuration file section for host into c.
// CLI flags win: a field already set from a flag is not overwritten.
// setByFlag reports whether a flag was given explicitly.
func (c *Config) ApplySite(host string, setByFlag func(name string) bool) {
	if c.SiteConfigs == nil {
		return
	}
	site := c.SiteConfigs.GetSiteConfig(host)

	if site.Keyword != "" && !setByFlag("keyword") {
		c.Keyword = site.Keyword
	}
	if site.Workers > 0 && !setByFlag("workers") {
		c.Workers = site.Workers
	}
	if site.Backend != "" && !setByFlag("backend") {
		c.BackendURL = site.Backend
	}
	if len(site.LinkExcludes) > 0 {
		c.LinkExcludes = append(c.LinkExcludes, site.LinkExcludes...)
	}
}
