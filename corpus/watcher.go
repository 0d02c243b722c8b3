package corpus

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Holder when its table files change on disk.
type Watcher struct {
	holder   *Holder
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	logger   *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher) error

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) error {
		if d <= 0 {
			return errors.New("debounce must be positive")
		}
		w.debounce = d
		return nil
	}
}

// NewWatcher watches the directories holding the holder's table files.
// Directories rather than files are watched so editors that replace files
// by rename are still seen.
func NewWatcher(holder *Holder, opts ...WatcherOption) (*Watcher, error) {
	questions, answers := holder.Paths()
	if questions == "" {
		return nil, errors.New("holder has no table paths")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		holder:   holder,
		watcher:  fw,
		files:    make(map[string]struct{}, 2),
		debounce: DefaultDebounce,
		logger:   holder.logger.With("subcomponent", "watcher"),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			fw.Close()
			return nil, err
		}
	}

	dirs := make(map[string]struct{}, 2)
	for _, path := range []string{questions, answers} {
		abs, err := filepath.Abs(path)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run processes file events until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("corpus file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case <-timer.C:
			if err := w.holder.Reload(); err == nil {
				w.logger.Info("corpus reloaded")
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
