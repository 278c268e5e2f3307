package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/nao1215/seocheck/internal/aggregate"
	"github.com/nao1215/seocheck/internal/checker"
	"github.com/nao1215/seocheck/internal/linkcheck"
	"github.com/nao1215/seocheck/internal/model"
	"github.com/nao1215/seocheck/internal/override"
	"github.com/nao1215/seocheck/internal/queue"
)

// ServerChecks supplies checks computed by the CMS for an entity.
type ServerChecks interface {
	PageChecks(ctx context.Context, key model.EntityKey) ([]model.Check, error)
}

// Evaluator evaluates snapshots of one entity.
type Evaluator struct {
	entity   model.EntityKey
	store    *override.Store
	verifier *linkcheck.Verifier
	tasks    *queue.TaskQueue
	server   ServerChecks
	excludes []string
	onLinks  func()
	progress func(model.Progress)
	logger   *slog.Logger

	// scheduled is set while a background verification pass is queued.
	scheduled atomic.Bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithOverrides makes the Evaluator read the confirmed ignore list from store.
func WithOverrides(store *override.Store) Option {
	return func(e *Evaluator) {
		e.store = store
	}
}

// WithLinkVerifier enables the broken link check.
func WithLinkVerifier(v *linkcheck.Verifier) Option {
	return func(e *Evaluator) {
		e.verifier = v
	}
}

// WithTaskQueue verifies links in the background on q. Without a queue,
// Evaluate only reports what the verifier cache already knows and callers
// run VerifyLinks themselves.
func WithTaskQueue(q *queue.TaskQueue) Option {
	return func(e *Evaluator) {
		e.tasks = q
	}
}

// WithServerChecks merges server-computed checks into the page group.
func WithServerChecks(s ServerChecks) Option {
	return func(e *Evaluator) {
		e.server = s
	}
}

// WithLinkExcludes skips links whose path matches one of the patterns.
func WithLinkExcludes(patterns []string) Option {
	return func(e *Evaluator) {
		e.excludes = patterns
	}
}

// WithLinksSettled sets a callback run after a background verification
// pass finished.
func WithLinksSettled(fn func()) Option {
	return func(e *Evaluator) {
		e.onLinks = fn
	}
}

// WithProgress reports link verification progress.
func WithProgress(fn func(model.Progress)) Option {
	return func(e *Evaluator) {
		e.progress = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates an Evaluator for entity.
func NewEvaluator(entity model.EntityKey, opts ...Option) *Evaluator {
	e := &Evaluator{entity: entity}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Entity returns the evaluated entity.
func (e *Evaluator) Entity() model.EntityKey {
	return e.entity
}

// Metadata returns base with the confirmed ignore list of the entity,
// when the override store has it loaded.
func (e *Evaluator) Metadata(base model.Metadata) model.Metadata {
	m := base.Clone()
	if e.store == nil {
		return m
	}
	if ids, ok := e.store.Cached(e.entity); ok {
		m.Ignored = ids
	}
	return m
}

// Links returns the verifiable links of snap after exclusions.
func (e *Evaluator) Links(snap model.Snapshot) []string {
	content := snap.HTML
	if content == "" {
		content = snap.Content
	}
	return linkcheck.Filter(linkcheck.Extract(content), e.excludes)
}

// VerifyLinks verifies the links of snap and returns their records. It is
// a no-op returning nil when no verifier is configured.
func (e *Evaluator) VerifyLinks(ctx context.Context, snap model.Snapshot, force bool) ([]model.LinkRecord, error) {
	if e.verifier == nil {
		return nil, nil
	}
	records, err := e.verifier.Verify(ctx, e.Links(snap), linkcheck.VerifyOptions{
		Force:    force,
		Progress: e.progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify links: %w", err)
	}
	return records, nil
}

// Evaluate runs every check against snap and meta.
//
// The link report is read from the verifier cache. Links without a settled
// record are reported pending and, with a task queue configured, verified
// by a background pass that ends with the links-settled callback.
// A failing server check request degrades the evaluation to local checks
// and is reported in Warnings. Evaluate only fails when ctx is done.
func (e *Evaluator) Evaluate(ctx context.Context, snap model.Snapshot, meta model.Metadata) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}

	var warnings []string

	var links []model.LinkRecord
	if e.verifier != nil {
		urls := e.Links(snap)
		links = e.verifier.Cache().Records(urls)
		if hasPending(links) {
			e.schedule(ctx, urls)
		}
	}

	in := checker.Input{Snapshot: snap, Metadata: meta, Links: links}
	pageChecks := checker.Run(e.logger, checker.PageRules(in))
	keywordChecks := checker.Run(e.logger, checker.KeywordRules(in))

	if e.server != nil {
		serverChecks, err := e.server.PageChecks(ctx, e.entity)
		switch {
		case ctx.Err() != nil:
			return Evaluation{}, ctx.Err()
		case err != nil:
			e.logger.Warn("server checks unavailable", "entity", e.entity.String(), "error", err)
			warnings = append(warnings, fmt.Sprintf("server checks unavailable: %v", err))
		default:
			pageChecks = mergeChecks(pageChecks, serverChecks)
		}
	}

	ignored := aggregate.NewIgnoreSet(meta.Ignored...)
	page := aggregate.Categorize(pageChecks, ignored)
	keyword := aggregate.Categorize(keywordChecks, ignored)
	pageSummary := aggregate.Summarize(page)
	keywordSummary := aggregate.Summarize(keyword)

	url := snap.URL
	if url == "" {
		url = snap.Permalink
	}

	return Evaluation{
		Entity:         e.entity,
		URL:            url,
		Keyword:        meta.Keyword,
		Page:           page,
		PageSummary:    pageSummary,
		KeywordChecks:  keyword,
		KeywordSummary: keywordSummary,
		Summary:        aggregate.Combine(pageSummary, keywordSummary),
		Links:          links,
		Warnings:       warnings,
		EvaluatedAt:    time.Now(),
	}, nil
}

// schedule queues one background verification pass over urls unless one
// is already queued.
func (e *Evaluator) schedule(ctx context.Context, urls []string) {
	if e.tasks == nil || !e.scheduled.CompareAndSwap(false, true) {
		return
	}
	urls = slices.Clone(urls)
	err := e.tasks.Enqueue(func() error {
		defer e.scheduled.Store(false)
		_, err := e.verifier.Verify(ctx, urls, linkcheck.VerifyOptions{Progress: e.progress})
		if err != nil {
			return fmt.Errorf("background link verification: %w", err)
		}
		if e.onLinks != nil {
			e.onLinks()
		}
		return nil
	})
	if err != nil {
		e.scheduled.Store(false)
		e.logger.Debug("link verification not scheduled", "error", err)
	}
}

func hasPending(records []model.LinkRecord) bool {
	return slices.ContainsFunc(records, func(r model.LinkRecord) bool {
		return r.Status == model.LinkPending
	})
}

// mergeChecks appends server checks whose id is not produced locally.
func mergeChecks(local, server []model.Check) []model.Check {
	seen := make(map[string]struct{}, len(local))
	for _, c := range local {
		seen[c.ID] = struct{}{}
	}
	merged := slices.Clone(local)
	for _, c := range server {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		merged = append(merged, c)
	}
	return merged
}
