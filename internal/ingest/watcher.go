package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/carvtrainer/carvtrainer/internal/imagemeta"
	"github.com/carvtrainer/carvtrainer/internal/progress"
	"github.com/carvtrainer/carvtrainer/internal/storage"
)

// Callback is called with the library path after a screenshot is ingested.
type Callback func(path string)

// settleDelay is how long a file must be quiet before we pick it up.
// Screenshot drops arrive as a Create followed by one or more Writes.
const settleDelay = 300 * time.Millisecond

// Watch starts an fsnotify watcher on the inbox directory and ingests
// dropped screenshots until ctx is cancelled. It calls cb (if non-nil)
// after each successful ingest.
//
// New directories created at runtime are automatically added to the watch
// list. Pending files are debounced so partially written files are not
// picked up mid-transfer.
func Watch(ctx context.Context, log progress.Log, store storage.Provider, inboxRoot string, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, inboxRoot); err != nil {
		return err
	}

	logger.Info("inbox: watching", slog.String("root", inboxRoot))

	// Files already sitting in the inbox at startup.
	pending := make(map[string]struct{})
	_ = filepath.WalkDir(inboxRoot, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && imagemeta.Supported(d.Name()) {
			pending[path] = struct{}{}
		}
		return nil
	})

	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleFlush := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}
	if len(pending) > 0 {
		scheduleFlush()
	}

	flush := func() {
		for p := range pending {
			delete(pending, p)
			dest, err := ingestFile(log, store, p, logger)
			if err != nil {
				logger.Warn("inbox: ingest failed", slog.String("path", p), slog.String("error", err.Error()))
				continue
			}
			if dest != "" && cb != nil {
				cb(dest)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case <-settleCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("inbox: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					// Pick up files already in the new directory.
					_ = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
						if err == nil && !d.IsDir() && imagemeta.Supported(d.Name()) {
							pending[path] = struct{}{}
						}
						return nil
					})
					scheduleFlush()
					continue
				}
			}

			if !imagemeta.Supported(absPath) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[absPath] = struct{}{}
				scheduleFlush()

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, absPath)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
