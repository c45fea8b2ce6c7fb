package prompt

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"loom/internal/logging"
)

// Watcher reloads a Library when corpus files in its directory change.
// Events are debounced so an editor's write-then-rename shows up as one
// reload.
type Watcher struct {
	lib      *Library
	dir      string
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher creates a watcher for the library's templates directory.
func NewWatcher(lib *Library) *Watcher {
	return &Watcher{
		lib:      lib,
		dir:      lib.dir,
		debounce: 250 * time.Millisecond,
		logger:   logging.For(logging.CategoryPrompt),
	}
}

// Watch blocks until ctx is done, reloading the library on changes to
// yaml files in the watched directory.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.dir == "" {
		<-ctx.Done()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching templates dir", zap.String("dir", w.dir))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isCorpusFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.lib.Reload(); err != nil {
				w.logger.Warn("template reload failed", zap.Error(err))
				continue
			}
			w.logger.Info("templates reloaded", zap.Strings("names", w.lib.Names()))
		}
	}
}

func isCorpusFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
