package indexer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is used by WatchStore when debounce is not positive.
const DefaultWatchDebounce = 500 * time.Millisecond

// WatchStore watches the SQLite file at dbPath (and its WAL) and runs Sync
// once writes settle for debounce. It catches up rows written by other
// processes. cb, if non-nil, is called after each pass that changed the
// index. It blocks until ctx is cancelled.
func (ix *Indexer) WatchStore(ctx context.Context, dbPath string, debounce time.Duration, cb func(Report)) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// The WAL file comes and goes, so watch the directory and filter by name.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	watched := map[string]struct{}{
		abs:          {},
		abs + "-wal": {},
	}

	ix.logger.Info("watcher: started", slog.String("path", abs))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			ix.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			rep, err := ix.Sync(ctx)
			if err != nil {
				ix.logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
				continue
			}
			if cb != nil && rep.Indexed+rep.Removed > 0 {
				cb(rep)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, ok := watched[ev.Name]; !ok {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ix.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
