// Package models defines the domain types for the CARV trainer backend.
package models

import (
	"encoding/json"
	"time"
)

// Entry is one record of the skier's progress log: the analysis of a batch
// of screenshots and, optionally, the training plan generated from it.
type Entry struct {
	ID          string          `json:"id"`
	RecordedAt  time.Time       `json:"recorded_at"`
	Source      string          `json:"source"` // screenshot, exif, filename or upload
	SkiIQ       string          `json:"ski_iq,omitempty"`
	Analysis    json.RawMessage `json:"analysis,omitempty"`
	Plan        string          `json:"plan,omitempty"`
	Screenshots []string        `json:"screenshots,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Screenshot is one image file known to the library, deduplicated by
// content checksum.
type Screenshot struct {
	Path     string    `json:"path"`
	Checksum string    `json:"checksum"`
	TakenAt  time.Time `json:"taken_at,omitempty"`
	Source   string    `json:"source"` // exif, filename or upload
	AddedAt  time.Time `json:"added_at"`
}

// Timestamp sources, in decreasing order of trust.
const (
	SourceScreenshot = "screenshot"
	SourceEXIF       = "exif"
	SourceFilename   = "filename"
	SourceUpload     = "upload"
)
