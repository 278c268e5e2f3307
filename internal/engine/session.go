package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/seocheck/internal/model"
	"github.com/nao1215/seocheck/internal/recompute"
)

// ErrNoOverrides is returned by Session.Ignore and Session.Restore when the
// Evaluator has no override store.
var ErrNoOverrides = errors.New("no override store configured")

// Session keeps the Evaluation of one document current while it is edited.
// Page and keyword consumers share its single loop.
type Session struct {
	evaluator *Evaluator
	base      model.Metadata
	loop      *recompute.Loop[Evaluation]
	logger    *slog.Logger

	unsubscribe func()
}

// NewSession creates a session for the document behind src. base carries
// the keyword and SEO overrides; the ignore list comes from the
// Evaluator's override store.
func NewSession(src recompute.Source, ev *Evaluator, base model.Metadata, opts ...recompute.Option) *Session {
	s := &Session{
		evaluator: ev,
		base:      base.Clone(),
		logger:    ev.logger,
	}
	opts = append([]recompute.Option{
		recompute.WithLogger(ev.logger),
	}, opts...)
	opts = append(opts, recompute.WithMetadata(func() model.Metadata {
		return ev.Metadata(s.base)
	}))
	s.loop = recompute.New(src, ev.Evaluate, opts...)
	return s
}

// Loop returns the underlying recompute loop.
func (s *Session) Loop() *recompute.Loop[Evaluation] {
	return s.loop
}

// Start loads the ignore list, subscribes to confirmed override changes
// and starts the loop.
func (s *Session) Start(ctx context.Context) error {
	ev := s.evaluator
	if ev.store != nil {
		if _, err := ev.store.Ignored(ctx, ev.entity); err != nil {
			// Evaluate without overrides rather than not at all.
			s.logger.Warn("failed to load ignored checks", "entity", ev.entity.String(), "error", err)
		}
		s.unsubscribe = ev.store.Subscribe(func(key model.EntityKey, _ []string) {
			if key == ev.entity {
				s.loop.Recompute()
			}
		})
	}
	if err := s.loop.Start(ctx); err != nil {
		if s.unsubscribe != nil {
			s.unsubscribe()
			s.unsubscribe = nil
		}
		return err
	}
	return nil
}

// Stop stops the loop and drops the override subscription.
func (s *Session) Stop() {
	s.loop.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Result returns the latest published evaluation.
func (s *Session) Result() (recompute.Result[Evaluation], bool) {
	return s.loop.Result()
}

// Ignore ignores checkID. When it returns nil the published result
// already reflects the change.
func (s *Session) Ignore(ctx context.Context, checkID string) error {
	if s.evaluator.store == nil {
		return ErrNoOverrides
	}
	return s.evaluator.store.Ignore(ctx, checkID, s.evaluator.entity)
}

// Restore restores checkID with the same guarantee as Ignore.
func (s *Session) Restore(ctx context.Context, checkID string) error {
	if s.evaluator.store == nil {
		return ErrNoOverrides
	}
	return s.evaluator.store.Restore(ctx, checkID, s.evaluator.entity)
}
