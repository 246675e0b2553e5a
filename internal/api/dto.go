package api

import (
	"encoding/json"
	"time"

	"github.com/carvtrainer/carvtrainer/internal/models"
	"github.com/carvtrainer/carvtrainer/internal/report"
	"github.com/carvtrainer/carvtrainer/internal/trainer"
)

// AnalyzeResponse is the analysis of one batch of screenshots.
type AnalyzeResponse = trainer.AnalysisResult

// PlanRequest is the request body for generating a training plan.
type PlanRequest struct {
	Analysis json.RawMessage `json:"analysis" validate:"required"`
	NumRuns  int             `json:"num_screenshots" example:"3"`
}

// PlanResponse is a generated plan with its structured breakdown.
type PlanResponse = trainer.PlanResult

// ParsePlanRequest is the request body for parsing an existing plan.
type ParsePlanRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// ParsedPlan is the structured form of a training plan.
type ParsedPlan = report.ParsedPlan

// CreateEntryRequest is the request body for recording a progress entry.
type CreateEntryRequest struct {
	RecordedAt  *time.Time      `json:"recorded_at"`
	Source      string          `json:"source" example:"upload"`
	SkiIQ       string          `json:"ski_iq" example:"121.5"`
	Analysis    json.RawMessage `json:"analysis"`
	Plan        string          `json:"plan"`
	Screenshots []string        `json:"screenshots"`
}

// EntryListResponse wraps paginated progress entries.
type EntryListResponse struct {
	Entries []models.Entry `json:"entries" validate:"required"`
	Total   int            `json:"total" example:"12" validate:"required"`
}

// FileMetadata is the extracted capture time of one uploaded image.
type FileMetadata struct {
	Filename string     `json:"filename" validate:"required"`
	Datetime *time.Time `json:"datetime"`
	Source   string     `json:"datetime_source,omitempty" example:"exif"`
}

// MetadataResponse wraps per-file metadata extraction results.
type MetadataResponse struct {
	Metadata    []FileMetadata `json:"metadata" validate:"required"`
	ExtractedAt time.Time      `json:"extracted_at" validate:"required"`
}

// ScreenshotListResponse wraps the registered screenshots.
type ScreenshotListResponse struct {
	Screenshots []models.Screenshot `json:"screenshots" validate:"required"`
}

// UploadResponse is returned after a screenshot upload.
type UploadResponse struct {
	Stored  []models.Screenshot `json:"stored" validate:"required"`
	Skipped []string            `json:"skipped" validate:"required"`
}
