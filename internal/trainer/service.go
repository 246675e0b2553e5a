// Package trainer coordinates the vision model, the plan parser, the
// screenshot library, and the progress log behind the API and MCP surfaces.
package trainer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
	"github.com/carvtrainer/carvtrainer/internal/imagemeta"
	"github.com/carvtrainer/carvtrainer/internal/ingest"
	"github.com/carvtrainer/carvtrainer/internal/llm"
	"github.com/carvtrainer/carvtrainer/internal/models"
	"github.com/carvtrainer/carvtrainer/internal/progress"
	"github.com/carvtrainer/carvtrainer/internal/report"
	"github.com/carvtrainer/carvtrainer/internal/storage"
)

// Events receives notifications about library and progress changes.
// *sse.Broker satisfies it; tests pass nil.
type Events interface {
	PublishScreenshotAdded(path string)
	PublishProgressEvent(kind, id string)
}

// AnalysisResult is the outcome of a screenshot analysis.
type AnalysisResult struct {
	Analysis       json.RawMessage `json:"analysis"`
	SkiIQ          string          `json:"ski_iq"`
	NumScreenshots int             `json:"num_screenshots"`
	Filenames      []string        `json:"filenames"`
	AnalyzedAt     time.Time       `json:"analyzed_at"`
}

// PlanResult is a generated training plan with its structured breakdown.
type PlanResult struct {
	Plan        string             `json:"plan"`
	Parsed      *report.ParsedPlan `json:"parsed"`
	SkiIQ       string             `json:"ski_iq"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Service coordinates model calls, storage, and the progress log.
type Service struct {
	vision llm.Vision
	log    progress.Log
	store  storage.Provider
	events Events
	logger *slog.Logger
}

// NewService creates a new trainer service. events may be nil.
func NewService(vision llm.Vision, log progress.Log, store storage.Provider, events Events, logger *slog.Logger) *Service {
	return &Service{vision: vision, log: log, store: store, events: events, logger: logger}
}

// Analyze runs all screenshots through the vision model in one request.
func (s *Service) Analyze(ctx context.Context, images []llm.Image) (*AnalysisResult, error) {
	analysis, err := s.vision.Analyze(ctx, images)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(images))
	for i, img := range images {
		names[i] = img.Filename
	}
	return &AnalysisResult{
		Analysis:       analysis,
		SkiIQ:          skiIQFromAnalysis(analysis),
		NumScreenshots: len(images),
		Filenames:      names,
		AnalyzedAt:     time.Now().UTC(),
	}, nil
}

// GeneratePlan turns an analysis into a Markdown plan and its structured form.
func (s *Service) GeneratePlan(ctx context.Context, analysis json.RawMessage, numRuns int) (*PlanResult, error) {
	skiIQ := skiIQFromAnalysis(analysis)
	plan, err := s.vision.GeneratePlan(ctx, analysis, skiIQ, numRuns)
	if err != nil {
		return nil, err
	}
	return &PlanResult{
		Plan:        plan,
		Parsed:      report.Parse(plan),
		SkiIQ:       skiIQ,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// ParsePlan breaks an existing Markdown plan into its structured form.
func (s *Service) ParsePlan(text string) *report.ParsedPlan {
	return report.Parse(text)
}

// CreateEntry saves a progress log entry. A missing ID gets a generated
// UUID. A missing recorded time is resolved by precedence: the session
// datetime the model read off the screenshots, then the capture time of a
// referenced screenshot, then now.
func (s *Service) CreateEntry(_ context.Context, e models.Entry) (*models.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		screenTime := sessionDatetimeFromAnalysis(e.Analysis)
		metaTime, metaSource := s.screenshotTakenAt(e.Screenshots)
		t, src := imagemeta.Resolve(screenTime, metaTime, metaSource, time.Now().UTC())
		e.RecordedAt = t
		if e.Source == "" {
			e.Source = src
		}
	}
	if e.Source == "" {
		e.Source = models.SourceUpload
	}
	if err := s.log.AddEntry(e); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.PublishProgressEvent("created", e.ID)
	}
	return s.log.GetEntry(e.ID)
}

// GetEntry returns one progress entry.
func (s *Service) GetEntry(_ context.Context, id string) (*models.Entry, error) {
	return s.log.GetEntry(id)
}

// ListEntries returns progress entries newest first.
func (s *Service) ListEntries(_ context.Context, limit, offset int) ([]models.Entry, int, error) {
	return s.log.ListEntries(limit, offset)
}

// DeleteEntry removes a progress entry.
func (s *Service) DeleteEntry(_ context.Context, id string) error {
	if err := s.log.DeleteEntry(id); err != nil {
		return err
	}
	if s.events != nil {
		s.events.PublishProgressEvent("deleted", id)
	}
	return nil
}

// UploadScreenshot stores one uploaded screenshot in the library.
// Content identical to an existing screenshot is rejected.
func (s *Service) UploadScreenshot(_ context.Context, name string, data []byte) (*models.Screenshot, error) {
	rec, err := ingest.Store(s.log, s.store, name, data, s.logger)
	if err != nil {
		return nil, err
	}
	if rec.Path == "" {
		return nil, fmt.Errorf("screenshot %s: %w", name, apperr.ErrAlreadyExists)
	}
	if s.events != nil {
		s.events.PublishScreenshotAdded(rec.Path)
	}
	return &rec, nil
}

// ListScreenshots returns all registered screenshots.
func (s *Service) ListScreenshots(_ context.Context) ([]models.Screenshot, error) {
	return s.log.ListScreenshots()
}

// DeleteScreenshot removes a screenshot from the library and its record.
func (s *Service) DeleteScreenshot(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.log.DeleteScreenshot(path)
}

// Metadata extracts the capture time of a screenshot without storing it.
func (s *Service) Metadata(name string, data []byte) (time.Time, string) {
	return imagemeta.Datetime(name, data)
}

// screenshotTakenAt returns the earliest known capture time among the
// referenced screenshots, with its source. Unknown paths are skipped.
func (s *Service) screenshotTakenAt(paths []string) (time.Time, string) {
	var (
		best    time.Time
		bestSrc string
	)
	for _, p := range paths {
		rec, err := s.log.ScreenshotByPath(p)
		if err != nil || rec.TakenAt.IsZero() {
			continue
		}
		if best.IsZero() || rec.TakenAt.Before(best) {
			best = rec.TakenAt
			bestSrc = rec.Source
		}
	}
	return best, bestSrc
}

// sessionDatetimeFromAnalysis pulls the session datetime the model read off
// the screenshots. Returns the zero time when absent or unparseable.
func sessionDatetimeFromAnalysis(analysis json.RawMessage) time.Time {
	var doc struct {
		SessionOverview struct {
			SessionDatetime string `json:"session_datetime"`
		} `json:"session_overview"`
	}
	if err := json.Unmarshal(analysis, &doc); err != nil {
		return time.Time{}
	}
	raw := doc.SessionOverview.SessionDatetime
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// skiIQFromAnalysis pulls the average Ski:IQ out of an analysis document.
// Returns "" when the document does not carry one.
func skiIQFromAnalysis(analysis json.RawMessage) string {
	var doc struct {
		SessionOverview struct {
			SkiIQRange struct {
				Average json.Number `json:"average"`
			} `json:"ski_iq_range"`
		} `json:"session_overview"`
	}
	if err := json.Unmarshal(analysis, &doc); err != nil {
		return ""
	}
	return doc.SessionOverview.SkiIQRange.Average.String()
}
