package source

import (
	"sync"

	"github.com/nao1215/seocheck/internal/model"
)

// MemorySource is a Source whose snapshot is set by code. Editor adapters
// and tests drive it with Set and Signal.
type MemorySource struct {
	mu        sync.Mutex
	snap      model.Snapshot
	err       error
	listeners listeners
}

// NewMemorySource returns a source holding snap.
func NewMemorySource(snap model.Snapshot) *MemorySource {
	return &MemorySource{snap: snap}
}

// Snapshot returns the current snapshot, or the error set by SetError.
func (m *MemorySource) Snapshot() (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, m.err
}

// Set replaces the snapshot, clears any error and signals a change.
func (m *MemorySource) Set(snap model.Snapshot) {
	m.mu.Lock()
	m.snap = snap
	m.err = nil
	m.mu.Unlock()
	m.listeners.notify()
}

// Update applies fn to a copy of the snapshot and stores the result.
func (m *MemorySource) Update(fn func(*model.Snapshot)) {
	m.mu.Lock()
	snap := m.snap
	fn(&snap)
	m.snap = snap
	m.err = nil
	m.mu.Unlock()
	m.listeners.notify()
}

// SetError makes subsequent Snapshot calls fail with err until the next
// Set or Update.
func (m *MemorySource) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	m.listeners.notify()
}

// Signal fires a change signal without changing anything, the way editors
// do on cursor moves.
func (m *MemorySource) Signal() {
	m.listeners.notify()
}

// OnChange registers fn.
func (m *MemorySource) OnChange(fn func()) (unsubscribe func()) {
	return m.listeners.add(fn)
}

// listeners is a set of change callbacks safe for concurrent use.
type listeners struct {
	mu     sync.Mutex
	fns    map[int]func()
	nextID int
}

func (l *listeners) add(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

func (l *listeners) notify() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (l *listeners) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
