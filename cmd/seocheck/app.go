package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/nao1215/seocheck/internal/backend"
	"github.com/nao1215/seocheck/internal/config"
	"github.com/nao1215/seocheck/internal/database"
	"github.com/nao1215/seocheck/internal/engine"
	"github.com/nao1215/seocheck/internal/linkcheck"
	seolog "github.com/nao1215/seocheck/internal/log"
	"github.com/nao1215/seocheck/internal/model"
	"github.com/nao1215/seocheck/internal/override"
	"github.com/nao1215/seocheck/internal/report"
	"github.com/nao1215/seocheck/internal/source"
	"github.com/spf13/cobra"
)

// errNoOverrideBackend is returned by the override commands when neither
// a REST backend nor the local database is available.
var errNoOverrideBackend = errors.New("no ignore list storage: use --backend or drop --no-db")

// app holds the components shared by the commands of one invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	key    model.EntityKey

	// db is nil with --no-db.
	db *database.CheckDB

	// client is nil without --backend.
	client *backend.Client

	// store is nil when there is nowhere to keep ignore lists.
	store *override.Store

	// verifier is nil unless link verification is enabled.
	verifier *linkcheck.Verifier
}

// newApp wires the database, the backend client, the override store and,
// when withLinks is set, the link verifier.
func newApp(cfg *config.Config, logger *slog.Logger, withLinks bool) (*app, error) {
	entityType, err := model.ParseEntityType(cfg.EntityType)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:    cfg,
		logger: logger,
		key:    model.EntityKey{ID: cfg.PostID, Type: entityType},
	}

	if cfg.SaveToDB {
		a.db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		logger.Debug("database opened", "path", a.db.Path())
	}

	if cfg.BackendURL != "" {
		opts := []backend.Option{
			backend.WithHTTPClient(&http.Client{Timeout: cfg.BackendTimeout}),
			backend.WithUserAgent(cfg.UserAgent),
			backend.WithLogger(logger),
		}
		if cfg.Nonce != "" {
			opts = append(opts, backend.WithNonce(cfg.Nonce))
		}
		if cfg.Username != "" {
			opts = append(opts, backend.WithBasicAuth(cfg.Username, cfg.AppPassword))
		}
		a.client, err = backend.NewClient(cfg.BackendURL, opts...)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	// Ignore lists need a real entity; post id 0 is an unsaved document.
	if cfg.PostID > 0 {
		switch {
		case a.client != nil:
			a.store = override.NewStore(a.client, override.WithLogger(logger))
		case a.db != nil:
			a.store = override.NewStore(a.db, override.WithLogger(logger))
		}
	}

	if withLinks {
		a.verifier = linkcheck.NewVerifier(
			&http.Client{Timeout: cfg.LinkTimeout},
			linkcheck.WithWorkers(cfg.Workers),
			linkcheck.WithTimeout(cfg.LinkTimeout),
			linkcheck.WithUserAgent(cfg.UserAgent),
			linkcheck.WithLogger(logger),
		)
	}

	return a, nil
}

// Close releases the database.
func (a *app) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

// evaluator builds an Evaluator from the wired components.
func (a *app) evaluator(opts ...engine.Option) *engine.Evaluator {
	base := []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithLinkExcludes(a.cfg.LinkExcludes),
	}
	if a.store != nil {
		base = append(base, engine.WithOverrides(a.store))
	}
	if a.verifier != nil {
		base = append(base, engine.WithLinkVerifier(a.verifier))
	}
	if a.cfg.ServerChecks && a.client != nil && a.cfg.PostID > 0 {
		base = append(base, engine.WithServerChecks(a.client))
	}
	return engine.NewEvaluator(a.key, append(base, opts...)...)
}

// baseMetadata returns the evaluation input given on the command line.
func (a *app) baseMetadata() model.Metadata {
	return model.Metadata{
		Keyword:             a.cfg.Keyword,
		TitleOverride:       a.cfg.TitleOverride,
		DescriptionOverride: a.cfg.DescriptionOverride,
	}
}

// loadIgnored fetches the ignore list into the store. A failure is logged
// and the evaluation runs without overrides.
func (a *app) loadIgnored(ctx context.Context) {
	if a.store == nil {
		return
	}
	if _, err := a.store.Ignored(ctx, a.key); err != nil {
		a.logger.Warn("failed to load ignored checks", "entity", a.key.String(), "error", err)
	}
}

// seedLinkCache loads stored link results younger than the cache TTL into
// the verifier cache.
func (a *app) seedLinkCache(ctx context.Context) {
	if a.db == nil || a.verifier == nil || a.cfg.LinkCacheTTL <= 0 {
		return
	}
	records, err := a.db.LinkRecords(ctx, a.cfg.LinkCacheTTL)
	if err != nil {
		a.logger.Warn("failed to load stored link results", "error", err)
		return
	}
	cache := a.verifier.Cache()
	for _, r := range records {
		cache.Put(r)
	}
	a.logger.Debug("link cache seeded", "records", len(records))
}

// saveLinks stores the settled records of a link report.
func (a *app) saveLinks(ctx context.Context, records []model.LinkRecord) {
	if a.db == nil || len(records) == 0 {
		return
	}
	if err := a.db.SaveLinkRecords(ctx, records); err != nil {
		a.logger.Warn("failed to save link results", "error", err)
	}
}

// saveEvaluation appends ev to the evaluation history.
func (a *app) saveEvaluation(ctx context.Context, ev *engine.Evaluation) {
	if a.db == nil {
		return
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		a.logger.Warn("failed to serialize evaluation", "error", err)
		return
	}
	id, err := a.db.SaveEvaluation(ctx, &database.EvaluationRecord{
		Entity:  ev.Entity,
		URL:     ev.URL,
		Keyword: ev.Keyword,
		Summary: ev.Summary,
		Report:  raw,
	})
	if err != nil {
		a.logger.Warn("failed to save evaluation", "error", err)
		return
	}
	a.logger.Debug("evaluation saved", "id", id, "entity", ev.Entity.String())
}

// setupLogger creates the secure structured logger on the command's
// error stream.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	return seolog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// loadSnapshot reads the target file once.
func loadSnapshot(cfg *config.Config) (model.Snapshot, error) {
	src, err := source.NewFileSource(cfg.Target, source.WithPageURL(cfg.URL))
	if err != nil {
		return model.Snapshot{}, err
	}
	return src.Snapshot()
}

// siteHost returns the host used to select the per-site configuration.
func siteHost(cfg *config.Config, snap model.Snapshot) string {
	for _, raw := range []string{cfg.URL, snap.URL, snap.Permalink} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return ""
}

// prepareDocument loads the target, applies the per-site configuration
// and validates the result.
func prepareDocument(cmd *cobra.Command, cfg *config.Config) (model.Snapshot, error) {
	if cfg.Target == "" {
		return model.Snapshot{}, fmt.Errorf("configuration error: %w", config.ErrNoTarget)
	}
	snap, err := loadSnapshot(cfg)
	if err != nil {
		return model.Snapshot{}, err
	}
	cfg.ApplySite(siteHost(cfg, snap), cmd.Flags().Changed)
	if err := cfg.Validate(); err != nil {
		return model.Snapshot{}, fmt.Errorf("configuration error: %w", err)
	}
	return snap, nil
}

// newReportWriter selects the report format.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// openOutput returns the report destination: cfg.ReportFile when set,
// else stdout. The returned close function is never nil.
func openOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// progressPrinter reports link verification progress on w.
func progressPrinter(w io.Writer) func(model.Progress) {
	return func(p model.Progress) {
		if p.Total == 0 {
			return
		}
		fmt.Fprintf(w, "\rVerifying links %d/%d", p.Current, p.Total)
		if p.Current == p.Total {
			fmt.Fprintln(w)
		}
	}
}
