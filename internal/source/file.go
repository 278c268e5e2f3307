package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/nao1215/seocheck/internal/model"
)

// ErrNotWatching is returned by Stop on a FileSource that was not started.
var ErrNotWatching = errors.New("file source is not watching")

// FileSource reads an HTML file as a snapshot and signals a change whenever
// the file is written, created, renamed or removed.
//
// The parent directory is watched rather than the file itself, so editors
// that save by writing a temporary file and renaming it over the original
// keep producing signals.
type FileSource struct {
	path    string
	pageURL string
	logger  *slog.Logger

	listeners listeners

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithPageURL sets the URL reported in snapshots.
func WithPageURL(u string) FileOption {
	return func(f *FileSource) {
		f.pageURL = u
	}
}

// WithFileLogger sets the logger.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(f *FileSource) {
		f.logger = logger
	}
}

// NewFileSource returns a source for the HTML file at path. It does not
// watch until Start is called.
func NewFileSource(path string, opts ...FileOption) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	f := &FileSource{path: abs}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f, nil
}

// Path returns the absolute path of the watched file.
func (f *FileSource) Path() string {
	return f.path
}

// Snapshot reads and parses the file.
func (f *FileSource) Snapshot() (model.Snapshot, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close()
	return FromHTML(file, f.pageURL)
}

// OnChange registers fn.
func (f *FileSource) OnChange(fn func()) (unsubscribe func()) {
	return f.listeners.add(fn)
}

// Start begins watching. It is non-blocking and a no-op when already
// watching. Watching ends when ctx is done or Stop is called.
func (f *FileSource) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}

	f.watcher = watcher
	f.stopCh = make(chan struct{})
	f.doneCh = make(chan struct{})
	go f.run(ctx, watcher, f.stopCh, f.doneCh)

	f.logger.Debug("watching file", "path", f.path)
	return nil
}

// Stop stops watching and waits for the event goroutine to exit.
func (f *FileSource) Stop() error {
	f.mu.Lock()
	if f.watcher == nil {
		f.mu.Unlock()
		return ErrNotWatching
	}
	watcher, stopCh, doneCh := f.watcher, f.stopCh, f.doneCh
	f.watcher = nil
	f.mu.Unlock()

	close(stopCh)
	<-doneCh
	if err := watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (f *FileSource) run(ctx context.Context, watcher *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			f.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			f.listeners.notify()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("file watcher error", "error", err)
		}
	}
}
