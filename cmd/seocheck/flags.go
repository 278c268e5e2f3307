package main

import (
	"fmt"
	"time"

	"github.com/nao1215/seocheck/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addDocumentFlags registers the flags describing the checked document.
func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("keyword", "k", "",
		"Focus keyword (default: the site keyword from the configuration file)")
	cmd.Flags().StringP("url", "u", "",
		"Public URL of the document (default: the canonical link of the file)")
	cmd.Flags().String("seo-title", "",
		"SEO title override used instead of the document title")
	cmd.Flags().String("seo-description", "",
		"SEO description override used instead of the meta description")
	addEntityFlags(cmd)
}

// addEntityFlags registers the flags identifying the ignore list.
func addEntityFlags(cmd *cobra.Command) {
	cmd.Flags().Int64P("post-id", "p", 0,
		"Post or term id the ignore list belongs to")
	cmd.Flags().StringP("type", "t", "post",
		"Entity type: post or taxonomy")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .seocheck in current or home directory)")
}

// addBackendFlags registers the flags selecting where ignore lists live.
func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("backend", "b", "",
		"WordPress REST base URL (default: local SQLite database)")
	cmd.Flags().String("nonce", "",
		"X-WP-Nonce header sent to the backend")
	cmd.Flags().String("user", "",
		"Backend user name for application password authentication")
	cmd.Flags().String("app-password", "",
		"Backend application password")
	cmd.Flags().Duration("backend-timeout", config.DefaultBackendTimeout,
		"HTTP timeout for backend requests")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the local SQLite database")
	cmd.Flags().Bool("no-db", false,
		"Do not open the local database (no local ignore lists, history or link cache)")
}

// addLinkFlags registers the link verifier flags.
func addLinkFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of links verified at the same time")
	cmd.Flags().Duration("link-timeout", config.DefaultLinkTimeout,
		"Timeout for one link verification")
	cmd.Flags().Duration("link-cache-ttl", config.DefaultLinkCacheTTL,
		"Reuse stored link results younger than this (0 disables)")
	cmd.Flags().StringSlice("exclude", nil,
		"URL path patterns the link verifier skips (e.g. \"/wp-admin/*\", \"*.pdf\")")
}

// addReportFlags registers the report output flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// flagReader reads the flags a command defines into a Config. Flags the
// command does not define are skipped, so every command shares one reader.
// The first error is kept and later reads become no-ops.
type flagReader struct {
	fs  *pflag.FlagSet
	err error
}

func (r *flagReader) has(name string) bool {
	return r.err == nil && r.fs.Lookup(name) != nil
}

func (r *flagReader) stringVar(name string, dst *string) {
	if r.has(name) {
		*dst, r.err = r.fs.GetString(name)
	}
}

func (r *flagReader) boolVar(name string, dst *bool) {
	if r.has(name) {
		*dst, r.err = r.fs.GetBool(name)
	}
}

func (r *flagReader) intVar(name string, dst *int) {
	if r.has(name) {
		*dst, r.err = r.fs.GetInt(name)
	}
}

func (r *flagReader) int64Var(name string, dst *int64) {
	if r.has(name) {
		*dst, r.err = r.fs.GetInt64(name)
	}
}

func (r *flagReader) durationVar(name string, dst *time.Duration) {
	if r.has(name) {
		*dst, r.err = r.fs.GetDuration(name)
	}
}

func (r *flagReader) stringSliceVar(name string, dst *[]string) {
	if r.has(name) {
		*dst, r.err = r.fs.GetStringSlice(name)
	}
}

// buildConfig creates a Config from the command's flags and the
// configuration file. The first positional argument is the target file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	r := &flagReader{fs: cmd.Flags()}
	r.stringVar("keyword", &cfg.Keyword)
	r.stringVar("url", &cfg.URL)
	r.stringVar("seo-title", &cfg.TitleOverride)
	r.stringVar("seo-description", &cfg.DescriptionOverride)
	r.int64Var("post-id", &cfg.PostID)
	r.stringVar("type", &cfg.EntityType)
	r.stringVar("config", &cfg.ConfigFilePath)

	r.stringVar("backend", &cfg.BackendURL)
	r.stringVar("nonce", &cfg.Nonce)
	r.stringVar("user", &cfg.Username)
	r.stringVar("app-password", &cfg.AppPassword)
	r.durationVar("backend-timeout", &cfg.BackendTimeout)
	r.boolVar("server-checks", &cfg.ServerChecks)
	r.stringVar("db-dir", &cfg.DBDir)
	var noDB bool
	r.boolVar("no-db", &noDB)

	r.boolVar("links", &cfg.CheckLinks)
	r.intVar("workers", &cfg.Workers)
	r.durationVar("link-timeout", &cfg.LinkTimeout)
	r.durationVar("link-cache-ttl", &cfg.LinkCacheTTL)
	r.stringSliceVar("exclude", &cfg.LinkExcludes)
	r.durationVar("debounce", &cfg.Debounce)

	r.boolVar("json", &cfg.JSONReport)
	r.boolVar("markdown", &cfg.MarkdownReport)
	r.stringVar("output", &cfg.ReportFile)
	r.stringVar("fail-on", &cfg.FailOn)
	if r.err != nil {
		return nil, r.err
	}

	cfg.SaveToDB = !noDB
	cfg.Verbose = getVerboseFlag(cmd)
	if len(args) > 0 {
		cfg.Target = args[0]
	}

	// An explicit --config must exist; the default locations are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		var err error
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
