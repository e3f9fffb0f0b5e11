package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce batches the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches a catalog directory and its templates/ and partials/
// subdirectories, calling onChange once per burst of changes.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange func(context.Context)
	log      zerolog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher creates a watcher for dir. Nothing is watched until Start.
func NewWatcher(dir string, debounce time.Duration, onChange func(context.Context), log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  fw,
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		log:      log.With().Str("component", "watcher").Str("dir", dir).Logger(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking; events are handled in a goroutine
// until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	for _, sub := range []string{templatesDir, partialsDir} {
		w.addDir(filepath.Join(w.dir, sub))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		w.log.Error().Err(err).Msg("close watcher")
	}
}

func (w *Watcher) addDir(path string) {
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("watch subdirectory")
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// fire is nil while no change is pending; each event pushes the deadline out.
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug().Str("event", event.Op.String()).Str("path", event.Name).Msg("catalog changed")
			fire = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watch error")
		case <-fire:
			fire = nil
			w.onChange(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if ignored(filepath.Base(event.Name)) {
		return false
	}
	if event.Op&fsnotify.Create != 0 {
		base := filepath.Base(event.Name)
		if filepath.Dir(event.Name) == filepath.Clean(w.dir) && (base == templatesDir || base == partialsDir) {
			w.addDir(event.Name)
		}
	}
	return !strings.HasSuffix(event.Name, ".tmp")
}
