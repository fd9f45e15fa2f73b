package ingest

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/fetcher"
	"github.com/docentlabs/docent/pkg/index"
)

// DefaultDebounce is how long the watcher waits after the last filesystem
// event before rebuilding, so bulk copies trigger one rebuild.
const DefaultDebounce = 2 * time.Second

// Watcher rebuilds the index when the corpus directory changes. The old
// index keeps serving until the replacement is fully built; publication is a
// single handle swap.
type Watcher struct {
	dir        string
	pipeline   *Pipeline
	handle     *index.Handle
	persistDir string
	debounce   time.Duration
	logger     *zap.Logger

	fsw *fsnotify.Watcher
}

// WatcherConfig holds watcher construction parameters.
type WatcherConfig struct {
	// Dir is the corpus directory to watch. Required.
	Dir string

	// Pipeline builds replacement indexes. Required.
	Pipeline *Pipeline

	// Handle is where finished indexes are published. Required.
	Handle *index.Handle

	// PersistDir, when set, receives each rebuilt index on disk.
	PersistDir string

	// Debounce overrides DefaultDebounce.
	Debounce time.Duration

	// Logger is the zap logger. Required.
	Logger *zap.Logger
}

// NewWatcher creates a watcher over the corpus directory.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		dir:        cfg.Dir,
		pipeline:   cfg.Pipeline,
		handle:     cfg.Handle,
		persistDir: cfg.PersistDir,
		debounce:   debounce,
		logger:     cfg.Logger,
		fsw:        fsw,
	}, nil
}

// Run watches until the context is canceled. Each burst of filesystem
// events schedules one rebuild after the debounce window.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("corpus changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			timer = nil
			fire = nil
			w.rebuild(ctx)
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// rebuild constructs a fresh index from the corpus directory and swaps it
// in. Failures leave the serving index untouched.
func (w *Watcher) rebuild(ctx context.Context) {
	docs, err := fetcher.FromDir(w.dir)
	if err != nil {
		w.logger.Error("rebuild aborted: reading corpus", zap.Error(err))
		return
	}

	idx, err := w.pipeline.Build(ctx, docs)
	if err != nil {
		w.logger.Error("rebuild aborted: building index", zap.Error(err))
		return
	}

	if w.persistDir != "" {
		if err := idx.Persist(w.persistDir); err != nil {
			w.logger.Error("persisting rebuilt index", zap.Error(err))
			return
		}
	}

	w.handle.Swap(idx)
	w.logger.Info("index rebuilt",
		zap.Int("fragments", idx.Len()),
		zap.String("dir", w.dir),
	)
}
