package recompute

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nao1215/seocheck/internal/model"
)

// DefaultDebounce is the quiet period after the last change signal before
// a snapshot is taken.
const DefaultDebounce = 300 * time.Millisecond

// ErrAlreadyStarted is returned by Start on a loop that is not idle.
var ErrAlreadyStarted = errors.New("recompute loop already started")

// Source supplies document snapshots and change signals.
type Source interface {
	// Snapshot captures the current document.
	Snapshot() (model.Snapshot, error)

	// OnChange registers fn to be called whenever the document may have
	// changed. Signals can be spurious. The returned function unregisters fn.
	OnChange(fn func()) (unsubscribe func())
}

// MetadataFunc returns the metadata to evaluate the next snapshot with.
type MetadataFunc func() model.Metadata

// EvaluateFunc derives a value from a snapshot and its metadata.
type EvaluateFunc[T any] func(ctx context.Context, snap model.Snapshot, meta model.Metadata) (T, error)

// State is the lifecycle state of a Loop.
type State int

const (
	// Idle means the loop is not subscribed.
	Idle State = iota
	// Watching means the loop is subscribed and no timer is armed.
	Watching
	// Debouncing means a change signal armed the timer.
	Debouncing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Watching:
		return "watching"
	case Debouncing:
		return "debouncing"
	default:
		return "unknown"
	}
}

// Result is what a Loop publishes.
type Result[T any] struct {
	// Value is the latest successful evaluation.
	Value T

	// NoData is set when the very first evaluation failed and there is
	// nothing to show yet.
	NoData bool

	// Err is the last evaluation error. A non-nil Err with NoData unset
	// means Value is stale but still the best available.
	Err error

	// Seq increases with every successful evaluation.
	Seq uint64

	// EvaluatedAt is when Value was computed.
	EvaluatedAt time.Time
}

// Stats counts what the loop did.
type Stats struct {
	Evaluations int64
	Skipped     int64
	Failures    int64
}

// Loop is one reactive recompute loop per document. Every consumer of the
// document's evaluation shares it.
//
// Design decision: We gate each debounced tick on deep equality of the
// (snapshot, metadata) pair rather than trusting change signals because:
//  1. Editors emit change events for selection and focus moves
//  2. File watchers report several writes for one save
//  3. An unchanged pair would re-run the link report for nothing
type Loop[T any] struct {
	source   Source
	evaluate EvaluateFunc[T]
	metadata MetadataFunc
	debounce time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	generation  uint64
	armSeq      uint64
	timer       *time.Timer
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
	force       bool

	hasLast  bool
	lastSnap model.Snapshot
	lastMeta model.Metadata

	// evalMu serializes evaluations.
	evalMu sync.Mutex

	result      atomic.Pointer[Result[T]]
	subscribers map[int]func(Result[T])
	nextSubID   int

	evaluations atomic.Int64
	skipped     atomic.Int64
	failures    atomic.Int64
}

// Option configures a Loop.
type Option func(*options)

type options struct {
	debounce time.Duration
	metadata MetadataFunc
	logger   *slog.Logger
}

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithMetadata sets the metadata provider. Without it every evaluation
// uses zero Metadata.
func WithMetadata(fn MetadataFunc) Option {
	return func(o *options) {
		o.metadata = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates an idle Loop.
func New[T any](source Source, evaluate EvaluateFunc[T], opts ...Option) *Loop[T] {
	o := options{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metadata == nil {
		o.metadata = func() model.Metadata { return model.Metadata{} }
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Loop[T]{
		source:      source,
		evaluate:    evaluate,
		metadata:    o.metadata,
		debounce:    o.debounce,
		logger:      o.logger,
		subscribers: make(map[int]func(Result[T])),
	}
}

// Start subscribes to the source and evaluates once before returning.
// The loop stops when ctx is done or Stop is called.
func (l *Loop[T]) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.state != Idle {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.generation++
	gen := l.generation
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.state = Watching
	l.unsubscribe = l.source.OnChange(l.signal)
	loopCtx := l.ctx
	l.mu.Unlock()

	context.AfterFunc(loopCtx, func() { l.stop(gen) })

	l.recompute(gen, true)
	return nil
}

// Stop cancels a pending timer and unsubscribes. An evaluation in flight
// runs to completion but its result is discarded. Stop is idempotent.
func (l *Loop[T]) Stop() {
	l.stop(0)
}

// stop stops the loop. A non-zero gen only stops the run it belongs to.
func (l *Loop[T]) stop(gen uint64) {
	l.mu.Lock()
	if l.state == Idle || (gen != 0 && gen != l.generation) {
		l.mu.Unlock()
		return
	}
	l.state = Idle
	l.generation++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	cancel := l.cancel
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	cancel()
}

// State returns the current lifecycle state.
func (l *Loop[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Trigger arms the debounce timer like a change signal, and makes the next
// evaluation run even if nothing changed.
func (l *Loop[T]) Trigger() {
	l.mu.Lock()
	l.force = true
	l.mu.Unlock()
	l.signal()
}

// Recompute evaluates immediately, bypassing the debounce window and the
// equality gate. It is a no-op on an idle loop.
func (l *Loop[T]) Recompute() {
	l.mu.Lock()
	if l.state == Idle {
		l.mu.Unlock()
		return
	}
	gen := l.generation
	l.mu.Unlock()
	l.recompute(gen, true)
}

// Result returns the latest published result. ok is false before the
// first evaluation finished.
func (l *Loop[T]) Result() (res Result[T], ok bool) {
	p := l.result.Load()
	if p == nil {
		return Result[T]{}, false
	}
	return *p, true
}

// Subscribe registers fn to receive every published result. fn runs on the
// evaluating goroutine and must not block.
func (l *Loop[T]) Subscribe(fn func(Result[T])) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subscribers, id)
	}
}

// Stats returns counters since creation.
func (l *Loop[T]) Stats() Stats {
	return Stats{
		Evaluations: l.evaluations.Load(),
		Skipped:     l.skipped.Load(),
		Failures:    l.failures.Load(),
	}
}

// signal (re)arms the debounce timer.
func (l *Loop[T]) signal() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Idle {
		return
	}
	if l.timer != nil {
		l.timer.Stop()
	}
	l.armSeq++
	gen, seq := l.generation, l.armSeq
	l.timer = time.AfterFunc(l.debounce, func() { l.fire(gen, seq) })
	l.state = Debouncing
}

func (l *Loop[T]) fire(gen, seq uint64) {
	l.mu.Lock()
	// A later signal re-armed the timer, or the loop was stopped.
	if l.state != Debouncing || gen != l.generation || seq != l.armSeq {
		l.mu.Unlock()
		return
	}
	l.state = Watching
	l.timer = nil
	l.mu.Unlock()

	l.recompute(gen, false)
}

var equateEmpty = cmpopts.EquateEmpty()

func (l *Loop[T]) recompute(gen uint64, force bool) {
	l.evalMu.Lock()
	defer l.evalMu.Unlock()

	snap, snapErr := l.source.Snapshot()
	meta := l.metadata().Clone()

	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		return
	}
	force = force || l.force
	if snapErr == nil && !force && l.hasLast &&
		cmp.Equal(snap, l.lastSnap) && cmp.Equal(meta, l.lastMeta, equateEmpty) {
		l.mu.Unlock()
		l.skipped.Add(1)
		l.logger.Debug("snapshot unchanged, skipping evaluation")
		return
	}
	l.force = false
	ctx := l.ctx
	l.mu.Unlock()

	var (
		value T
		err   = snapErr
	)
	if err == nil {
		value, err = l.evaluate(ctx, snap, meta)
	}

	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		l.logger.Debug("discarding evaluation of a stopped loop")
		return
	}

	prev := l.result.Load()
	var next Result[T]
	if err != nil {
		l.failures.Add(1)
		l.hasLast = false
		l.logger.Warn("evaluation failed", "error", err)
		if prev == nil || prev.NoData {
			next = Result[T]{NoData: true, Err: err}
		} else {
			next = *prev
			next.Err = err
		}
	} else {
		l.evaluations.Add(1)
		l.hasLast = true
		l.lastSnap = snap
		l.lastMeta = meta
		var seq uint64
		if prev != nil {
			seq = prev.Seq
		}
		next = Result[T]{Value: value, Seq: seq + 1, EvaluatedAt: time.Now()}
	}
	l.result.Store(&next)
	subs := make([]func(Result[T]), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
