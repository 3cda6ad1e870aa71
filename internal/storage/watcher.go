package storage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/anchor/internal/checksum"
)

const watchDebounce = 150 * time.Millisecond

// Watch observes the data file's directory and calls onChange after the file
// was modified by another process (an editor, a sync tool). Writes made by f
// itself are ignored. It blocks until ctx is cancelled.
func Watch(ctx context.Context, f *File, logger *slog.Logger, onChange func()) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	lastSeen := currentSum(f.path)
	logger.Info("watcher: started", slog.String("path", f.path))

	// Editors and atomic renames emit bursts; settle before reading.
	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerCh = timer.C
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
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			data, readErr := os.ReadFile(f.path)
			if readErr != nil && !errors.Is(readErr, fs.ErrNotExist) {
				logger.Warn("watcher: read failed", slog.String("path", f.path), slog.String("error", readErr.Error()))
				continue
			}
			sum := checksum.Sum(data)
			if sum == lastSeen {
				continue
			}
			lastSeen = sum
			if f.IsOwnWrite(data) {
				continue
			}
			logger.Info("watcher: data file changed externally", slog.String("path", f.path))
			if onChange != nil {
				onChange()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func currentSum(path string) string {
	sum, err := checksum.File(path)
	if err != nil {
		return checksum.Sum(nil)
	}
	return sum
}
