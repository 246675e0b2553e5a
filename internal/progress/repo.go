package progress

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
	"github.com/carvtrainer/carvtrainer/internal/models"
)

// AddEntry inserts a new progress entry. Entry IDs are unique; inserting a
// duplicate returns apperr.ErrAlreadyExists.
func (db *DB) AddEntry(e models.Entry) error {
	if e.ID == "" {
		return fmt.Errorf("progress: entry id is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	shots, _ := json.Marshal(nonNil(e.Screenshots))
	analysis := "{}"
	if len(e.Analysis) > 0 {
		analysis = string(e.Analysis)
	}
	_, err := db.conn.Exec(`
		INSERT INTO entries (id, recorded_at, source, ski_iq, analysis, plan, screenshots, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.RecordedAt, e.Source, e.SkiIQ, analysis, e.Plan, string(shots), e.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("progress: insert entry: %w", err)
	}
	return nil
}

// GetEntry returns one entry by ID.
func (db *DB) GetEntry(id string) (*models.Entry, error) {
	row := db.conn.QueryRow(`
		SELECT id, recorded_at, source, ski_iq, analysis, plan, screenshots, created_at
		FROM entries WHERE id = ?
	`, id)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("progress: get entry: %w", err)
	}
	return e, nil
}

// ListEntries returns entries newest first with the total count.
func (db *DB) ListEntries(limit, offset int) ([]models.Entry, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("progress: count entries: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, recorded_at, source, ski_iq, analysis, plan, screenshots, created_at
		FROM entries
		ORDER BY recorded_at DESC, created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("progress: list entries: %w", err)
	}
	defer rows.Close()

	out := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("progress: scan entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// DeleteEntry removes an entry by ID.
func (db *DB) DeleteEntry(id string) error {
	res, err := db.conn.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("progress: delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func scanEntry(scan func(...any) error) (*models.Entry, error) {
	var (
		e        models.Entry
		analysis string
		shots    string
	)
	if err := scan(&e.ID, &e.RecordedAt, &e.Source, &e.SkiIQ, &analysis, &e.Plan, &shots, &e.CreatedAt); err != nil {
		return nil, err
	}
	if analysis != "" && analysis != "{}" {
		e.Analysis = json.RawMessage(analysis)
	}
	_ = json.Unmarshal([]byte(shots), &e.Screenshots)
	return &e, nil
}

// UpsertScreenshot inserts or replaces a screenshot record keyed by path.
func (db *DB) UpsertScreenshot(s models.Screenshot) error {
	if s.AddedAt.IsZero() {
		s.AddedAt = time.Now()
	}
	var takenAt any
	if !s.TakenAt.IsZero() {
		takenAt = s.TakenAt
	}
	_, err := db.conn.Exec(`
		INSERT INTO screenshots (path, checksum, taken_at, source, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum = excluded.checksum,
			taken_at = excluded.taken_at,
			source   = excluded.source
	`, s.Path, s.Checksum, takenAt, s.Source, s.AddedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("progress: upsert screenshot: %w", err)
	}
	return nil
}

// ScreenshotByChecksum finds a screenshot by content checksum (dedup).
func (db *DB) ScreenshotByChecksum(checksum string) (*models.Screenshot, error) {
	row := db.conn.QueryRow(`
		SELECT path, checksum, taken_at, source, added_at
		FROM screenshots WHERE checksum = ?
	`, checksum)
	s, err := scanScreenshot(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("progress: screenshot by checksum: %w", err)
	}
	return s, nil
}

// ScreenshotByPath finds a screenshot record by library path.
func (db *DB) ScreenshotByPath(path string) (*models.Screenshot, error) {
	row := db.conn.QueryRow(`
		SELECT path, checksum, taken_at, source, added_at
		FROM screenshots WHERE path = ?
	`, path)
	s, err := scanScreenshot(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("progress: screenshot by path: %w", err)
	}
	return s, nil
}

// ListScreenshots returns every known screenshot, newest capture first.
func (db *DB) ListScreenshots() ([]models.Screenshot, error) {
	rows, err := db.conn.Query(`
		SELECT path, checksum, taken_at, source, added_at
		FROM screenshots
		ORDER BY taken_at DESC, added_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("progress: list screenshots: %w", err)
	}
	defer rows.Close()

	out := []models.Screenshot{}
	for rows.Next() {
		s, err := scanScreenshot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("progress: scan screenshot: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// DeleteScreenshot removes a screenshot record by path.
func (db *DB) DeleteScreenshot(path string) error {
	_, err := db.conn.Exec(`DELETE FROM screenshots WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("progress: delete screenshot: %w", err)
	}
	return nil
}

// AllScreenshotChecksums returns path → checksum for reconciliation.
func (db *DB) AllScreenshotChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM screenshots`)
	if err != nil {
		return nil, fmt.Errorf("progress: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, fmt.Errorf("progress: scan checksum: %w", err)
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func scanScreenshot(scan func(...any) error) (*models.Screenshot, error) {
	var (
		s       models.Screenshot
		takenAt sql.NullTime
	)
	if err := scan(&s.Path, &s.Checksum, &takenAt, &s.Source, &s.AddedAt); err != nil {
		return nil, err
	}
	if takenAt.Valid {
		s.TakenAt = takenAt.Time
	}
	return &s, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
