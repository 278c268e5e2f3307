package engine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/seocheck/internal/checker"
	"github.com/nao1215/seocheck/internal/model"
	"github.com/nao1215/seocheck/internal/override"
	"github.com/nao1215/seocheck/internal/recompute"
	"github.com/nao1215/seocheck/internal/source"
)

// memoryBackend is an override.Backend kept in a map.
type memoryBackend struct {
	mu    sync.Mutex
	lists map[model.EntityKey][]string
	fail  error
}

func (b *memoryBackend) IgnoredChecks(_ context.Context, key model.EntityKey) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.lists[key]), nil
}

func (b *memoryBackend) IgnoreCheck(_ context.Context, key model.EntityKey, id string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return nil, b.fail
	}
	if !slices.Contains(b.lists[key], id) {
		b.lists[key] = append(b.lists[key], id)
	}
	return slices.Clone(b.lists[key]), nil
}

func (b *memoryBackend) RestoreCheck(_ context.Context, key model.EntityKey, id string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return nil, b.fail
	}
	b.lists[key] = slices.DeleteFunc(b.lists[key], func(s string) bool { return s == id })
	return slices.Clone(b.lists[key]), nil
}

func newTestSession(t *testing.T, backend *memoryBackend, src recompute.Source) *Session {
	t.Helper()
	store := override.NewStore(backend, override.WithLogger(discard))
	ev := NewEvaluator(testEntity, WithOverrides(store), WithLogger(discard))
	s := NewSession(src, ev, model.Metadata{Keyword: "coffee beans"}, recompute.WithDebounce(20*time.Millisecond))
	t.Cleanup(s.Stop)
	return s
}

func currentEvaluation(t *testing.T, s *Session) Evaluation {
	t.Helper()
	res, ok := s.Result()
	if !ok {
		t.Fatal("no result published")
	}
	if res.NoData {
		t.Fatalf("result has no data: %v", res.Err)
	}
	return res.Value
}

func TestSessionStartLoadsIgnoreList(t *testing.T) {
	t.Parallel()

	backend := &memoryBackend{lists: map[model.EntityKey][]string{testEntity: {checker.RuleContent}}}
	s := newTestSession(t, backend, source.NewMemorySource(coffeeSnapshot()))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got := currentEvaluation(t, s)
	if len(got.Page.Ignored) != 1 || got.Page.Ignored[0].ID != checker.RuleContent {
		t.Errorf("page ignored = %+v", got.Page.Ignored)
	}
}

func TestSessionOverrideHappensBeforeRecompute(t *testing.T) {
	t.Parallel()

	backend := &memoryBackend{lists: map[model.EntityKey][]string{}}
	s := newTestSession(t, backend, source.NewMemorySource(coffeeSnapshot()))
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got := currentEvaluation(t, s); len(got.Page.Fair) != 1 {
		t.Fatalf("page fair before ignore = %+v", got.Page.Fair)
	}

	if err := s.Ignore(ctx, checker.RuleContent); err != nil {
		t.Fatalf("Ignore() error = %v", err)
	}
	got := currentEvaluation(t, s)
	if len(got.Page.Fair) != 0 || len(got.Page.Ignored) != 1 {
		t.Errorf("after ignore: fair=%+v ignored=%+v", got.Page.Fair, got.Page.Ignored)
	}
	if got.Summary.StatusOrEmpty() != model.StatusSuccess {
		t.Errorf("after ignore: status = %v, want success", got.Summary.StatusOrEmpty())
	}

	if err := s.Restore(ctx, checker.RuleContent); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	got = currentEvaluation(t, s)
	if len(got.Page.Fair) != 1 || len(got.Page.Ignored) != 0 {
		t.Errorf("after restore: fair=%+v ignored=%+v", got.Page.Fair, got.Page.Ignored)
	}
}

func TestSessionFailedOverrideKeepsResult(t *testing.T) {
	t.Parallel()

	backend := &memoryBackend{lists: map[model.EntityKey][]string{}, fail: errors.New("forbidden")}
	s := newTestSession(t, backend, source.NewMemorySource(coffeeSnapshot()))
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	before, _ := s.Result()

	if err := s.Ignore(ctx, checker.RuleContent); err == nil {
		t.Fatal("Ignore() error = nil, want backend failure")
	}
	after, _ := s.Result()
	if after.Seq != before.Seq {
		t.Errorf("result seq changed from %d to %d after failed ignore", before.Seq, after.Seq)
	}
	if len(after.Value.Page.Fair) != 1 {
		t.Errorf("check left its bucket after failed ignore: %+v", after.Value.Page)
	}
	if s.Loop().State() == recompute.Idle {
		t.Error("loop stopped after failed ignore")
	}
}

func TestSessionWithoutOverrides(t *testing.T) {
	t.Parallel()

	ev := NewEvaluator(testEntity, WithLogger(discard))
	s := NewSession(source.NewMemorySource(coffeeSnapshot()), ev, model.Metadata{})
	t.Cleanup(s.Stop)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Ignore(context.Background(), "x"); !errors.Is(err, ErrNoOverrides) {
		t.Errorf("Ignore() error = %v, want ErrNoOverrides", err)
	}
}
