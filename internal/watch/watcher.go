package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Evictor drops cached templates loaded from a file.
// *template.Cache implements it.
type Evictor interface {
	EvictPath(path string) int
}

// Watcher evicts cached templates when their source files change, so the
// next load parses the new version
type Watcher struct {
	cache   Evictor
	dirs    []string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	mu       sync.Mutex
	evicted  int
	onChange func(path string)
}

// NewWatcher creates a watcher for the given directories and all of their
// subdirectories
func NewWatcher(cache Evictor, logger *zap.Logger, dirs ...string) (*Watcher, error) {
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("at least one directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	abs := make([]string, 0, len(dirs))
	for _, d := range dirs {
		a, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", d, err)
		}
		abs = append(abs, a)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cache:  cache,
		dirs:   abs,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}, nil
}

// Start begins watching
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = fw

	for _, d := range w.dirs {
		if err := w.addTree(d); err != nil {
			_ = fw.Close()
			w.watcher = nil
			return err
		}
	}

	go w.run()

	w.logger.Info("template watcher started", zap.Strings("dirs", w.dirs))
	return nil
}

// Stop stops watching and waits for the event loop to exit
func (w *Watcher) Stop() error {
	w.cancel()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	w.logger.Info("template watcher stopped")
	if err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	return nil
}

// OnChange registers fn to be called, from the watcher goroutine, after a
// change evicted at least one template. It must be called before Start.
func (w *Watcher) OnChange(fn func(path string)) {
	w.onChange = fn
}

// Evicted returns the number of templates evicted so far
func (w *Watcher) Evicted() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.evicted
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("template watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) {
		if err := w.addTree(name); err != nil {
			w.logger.Debug("not watching new entry", zap.String("path", name), zap.Error(err))
		}
	}

	n := w.cache.EvictPath(name)
	if n == 0 {
		return
	}
	w.mu.Lock()
	w.evicted += n
	w.mu.Unlock()

	w.logger.Debug("template source changed",
		zap.String("path", name),
		zap.String("op", event.Op.String()),
		zap.Int("evicted", n),
	)
	if w.onChange != nil {
		w.onChange(name)
	}
}
