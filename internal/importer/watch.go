package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"deckforge/internal/stores"
)

// watchDebounce coalesces the event bursts editors produce when saving.
const watchDebounce = 200 * time.Millisecond

// Watch re-imports the decklist file whenever it changes, replacing the
// project slots. It watches the parent directory because most editors save
// by renaming a temp file over the target. Blocks until ctx is cancelled.
func (s *Service) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve decklist path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch decklist directory: %w", err)
	}
	base := filepath.Base(abs)
	s.logger.Info("watching decklist", zap.String("path", abs))

	var timer *time.Timer
	var timerC <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerC = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.logger.Info("decklist watch stopped")
			return nil

		case <-timerC:
			if _, _, err := s.ImportFile(abs, true); err != nil {
				s.stores.Errors.Report(stores.ErrKeyImport, "Import failed", err.Error())
				s.logger.Warn("decklist re-import failed", zap.Error(err))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			schedule()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("decklist watch error", zap.Error(err))
		}
	}
}
