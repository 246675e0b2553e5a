// Package ingest moves incoming Carv screenshots from the inbox into the
// library and keeps the screenshot records in sync with what is on disk.
package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
	"github.com/carvtrainer/carvtrainer/internal/checksum"
	"github.com/carvtrainer/carvtrainer/internal/imagemeta"
	"github.com/carvtrainer/carvtrainer/internal/models"
	"github.com/carvtrainer/carvtrainer/internal/progress"
	"github.com/carvtrainer/carvtrainer/internal/storage"
)

// Sync walks the library and brings the screenshot records up to date:
//   - new/changed files are registered with their capture date
//   - records whose files are gone from disk are deleted
func Sync(log progress.Log, store storage.Provider, logger *slog.Logger) error {
	files, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := log.AllScreenshotChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}

		if checksums[f.Path] == f.Checksum {
			continue
		}

		data, err := store.Read(f.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		takenAt, source := imagemeta.Datetime(filepath.Base(f.Path), data)
		rec := models.Screenshot{
			Path:     f.Path,
			Checksum: f.Checksum,
			TakenAt:  takenAt,
			Source:   source,
		}
		if err := log.UpsertScreenshot(rec); err != nil {
			if errors.Is(err, apperr.ErrAlreadyExists) {
				logger.Debug("sync: duplicate content", slog.String("path", f.Path))
				continue
			}
			logger.Warn("sync: register failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: registered", slog.String("path", f.Path))
		}
	}

	// Remove stale records.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := log.DeleteScreenshot(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// Store writes screenshot content into the library and registers it.
// Duplicate content (same checksum as an existing screenshot) is dropped
// and returns the empty path. The returned record is zero when skipped.
func Store(log progress.Log, store storage.Provider, name string, data []byte, logger *slog.Logger) (models.Screenshot, error) {
	if len(data) == 0 {
		return models.Screenshot{}, nil
	}

	cs := checksum.Sum(data)
	if existing, err := log.ScreenshotByChecksum(cs); err == nil {
		logger.Info("ingest: duplicate dropped",
			slog.String("name", name),
			slog.String("existing", existing.Path))
		return models.Screenshot{}, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return models.Screenshot{}, err
	}

	takenAt, source := imagemeta.Datetime(name, data)
	dest := destPath(name, takenAt)

	// Same file name, different content: disambiguate with a checksum prefix.
	if old, err := store.Read(dest); err == nil && checksum.Sum(old) != cs {
		dest = filepath.Join(filepath.Dir(dest), cs[:8]+"-"+name)
	}

	if err := store.Write(dest, data); err != nil {
		return models.Screenshot{}, err
	}

	rec := models.Screenshot{
		Path:     dest,
		Checksum: cs,
		TakenAt:  takenAt,
		Source:   source,
	}
	if err := log.UpsertScreenshot(rec); err != nil {
		return models.Screenshot{}, fmt.Errorf("ingest: register %s: %w", dest, err)
	}

	logger.Info("ingest: stored",
		slog.String("path", dest),
		slog.String("source", source))
	return rec, nil
}

// ingestFile moves one inbox file into the library and registers it.
// Returns the library path, or "" when the file was skipped.
func ingestFile(log progress.Log, store storage.Provider, absPath string, logger *slog.Logger) (string, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		// File may have been moved away before we got to it.
		return "", nil
	}
	if len(data) == 0 {
		// Possibly still being written; leave it for the next event.
		return "", nil
	}

	rec, err := Store(log, store, filepath.Base(absPath), data, logger)
	if err != nil {
		return "", err
	}
	if err := os.Remove(absPath); err != nil {
		logger.Warn("ingest: remove inbox file failed", slog.String("path", absPath), slog.String("error", err.Error()))
	}
	return rec.Path, nil
}

// destPath files screenshots under year/month when the capture date is
// known, and under undated/ otherwise.
func destPath(name string, takenAt time.Time) string {
	if takenAt.IsZero() {
		return filepath.Join("undated", name)
	}
	return filepath.Join(takenAt.Format("2006/01"), name)
}
