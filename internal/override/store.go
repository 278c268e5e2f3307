package override

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/seocheck/internal/model"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrPending is returned when an ignore or restore for the same check
	// and entity is already in flight.
	ErrPending = errors.New("an ignore/restore request for this check is already pending")

	// ErrStale is returned when the entity was reset while a request was
	// in flight and the response was discarded.
	ErrStale = errors.New("response discarded: entity was reset while the request was in flight")
)

// Backend persists ignore lists. Every mutating call returns the list as
// confirmed by the backend after the change.
type Backend interface {
	// IgnoredChecks returns the ignored check ids of an entity.
	IgnoredChecks(ctx context.Context, key model.EntityKey) ([]string, error)

	// IgnoreCheck adds checkID to the entity's ignore list.
	IgnoreCheck(ctx context.Context, key model.EntityKey, checkID string) ([]string, error)

	// RestoreCheck removes checkID from the entity's ignore list.
	RestoreCheck(ctx context.Context, key model.EntityKey, checkID string) ([]string, error)
}

// DefaultFetchTimeout bounds a shared ignore-list fetch.
const DefaultFetchTimeout = 30 * time.Second

// Listener is notified after an entity's confirmed list changed.
type Listener func(key model.EntityKey, ignored []string)

type pendingKey struct {
	entity  model.EntityKey
	checkID string
}

// Store caches confirmed ignore lists per entity.
type Store struct {
	backend Backend

	mu         sync.Mutex
	lists      map[model.EntityKey][]string
	generation map[model.EntityKey]uint64
	pending    map[pendingKey]struct{}
	listeners  map[int]Listener
	nextID     int

	sf           singleflight.Group
	fetchTimeout time.Duration

	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithFetchTimeout sets how long a shared ignore-list fetch may take.
// Non-positive values are ignored.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// NewStore creates a Store backed by backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:      backend,
		lists:        make(map[model.EntityKey][]string),
		generation:   make(map[model.EntityKey]uint64),
		pending:      make(map[pendingKey]struct{}),
		listeners:    make(map[int]Listener),
		fetchTimeout: DefaultFetchTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Ignored returns the confirmed ignore list of key, fetching it on first
// access. Concurrent first reads of the same entity share one backend
// request. The returned slice is a copy.
//
// Design decision: the shared fetch runs detached from the caller that
// started it, bounded by the fetch timeout. A caller whose ctx ends stops
// waiting, while the other callers keep waiting on the same request.
func (s *Store) Ignored(ctx context.Context, key model.EntityKey) ([]string, error) {
	s.mu.Lock()
	if list, ok := s.lists[key]; ok {
		s.mu.Unlock()
		return slices.Clone(list), nil
	}
	gen := s.generation[key]
	s.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(key.String(), func() (any, error) {
		// An earlier flight may have finished between the cache miss and Do.
		s.mu.Lock()
		if cur, ok := s.lists[key]; ok {
			s.mu.Unlock()
			return cur, nil
		}
		s.mu.Unlock()

		fctx, cancel := context.WithTimeout(fetchCtx, s.fetchTimeout)
		defer cancel()
		list, err := s.backend.IgnoredChecks(fctx, key)
		if err != nil {
			return nil, err
		}
		list = normalize(list)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation[key] != gen {
			return nil, ErrStale
		}
		// A mutation may have confirmed a newer list while we were fetching.
		if cur, ok := s.lists[key]; ok {
			return cur, nil
		}
		s.lists[key] = list
		return list, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("fetch ignored checks for %s: %w", key, res.Err)
		}
		return slices.Clone(res.Val.([]string)), nil //nolint:forcetypeassert // always []string
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch ignored checks for %s: %w", key, ctx.Err())
	}
}

// Cached returns the confirmed list of key without fetching. ok is false
// when the list has not been loaded yet.
func (s *Store) Cached(key model.EntityKey) (ids []string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(list), true
}

// IsIgnored reports whether checkID is in the cached confirmed list.
// It never triggers a fetch.
func (s *Store) IsIgnored(key model.EntityKey, checkID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.lists[key], checkID)
}

// Ignore asks the backend to ignore checkID for key. On success the local
// list is replaced by the list the backend confirmed and listeners are
// notified before Ignore returns. On failure the local list is unchanged.
func (s *Store) Ignore(ctx context.Context, checkID string, key model.EntityKey) error {
	return s.mutate(ctx, "ignore", checkID, key, s.backend.IgnoreCheck)
}

// Restore asks the backend to stop ignoring checkID for key, with the same
// semantics as Ignore.
func (s *Store) Restore(ctx context.Context, checkID string, key model.EntityKey) error {
	return s.mutate(ctx, "restore", checkID, key, s.backend.RestoreCheck)
}

type mutation func(ctx context.Context, key model.EntityKey, checkID string) ([]string, error)

func (s *Store) mutate(ctx context.Context, op, checkID string, key model.EntityKey, call mutation) error {
	pk := pendingKey{entity: key, checkID: checkID}

	s.mu.Lock()
	if _, busy := s.pending[pk]; busy {
		s.mu.Unlock()
		return ErrPending
	}
	s.pending[pk] = struct{}{}
	gen := s.generation[key]
	s.mu.Unlock()

	list, err := call(ctx, key, checkID)

	s.mu.Lock()
	delete(s.pending, pk)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("override request failed", "op", op, "check", checkID, "entity", key.String(), "error", err)
		return fmt.Errorf("%s check %s for %s: %w", op, checkID, key, err)
	}
	if s.generation[key] != gen {
		s.mu.Unlock()
		return ErrStale
	}
	list = normalize(list)
	s.lists[key] = list
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.logger.Debug("override confirmed", "op", op, "check", checkID, "entity", key.String(), "ignored", list)
	for _, l := range listeners {
		l(key, slices.Clone(list))
	}
	return nil
}

// Pending reports whether an ignore or restore of checkID is in flight.
func (s *Store) Pending(key model.EntityKey, checkID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[pendingKey{entity: key, checkID: checkID}]
	return ok
}

// Reset forgets the cached list of key. Responses to requests issued
// before Reset are discarded.
func (s *Store) Reset(key model.EntityKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, key)
	s.generation[key]++
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// snapshotListeners must be called with s.mu held.
func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

// normalize sorts and de-duplicates a list so equal lists compare equal.
func normalize(list []string) []string {
	out := slices.Clone(list)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
