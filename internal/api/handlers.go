package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
	"github.com/carvtrainer/carvtrainer/internal/llm"
	"github.com/carvtrainer/carvtrainer/internal/trainer"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *trainer.Service
	maxBytes int64
	maxFiles int
}

// NewHandler creates a new Handler. maxBytes caps each uploaded file,
// maxFiles caps the number of files per request.
func NewHandler(svc *trainer.Service, maxBytes int64, maxFiles int) *Handler {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if maxFiles <= 0 {
		maxFiles = 10
	}
	return &Handler{svc: svc, maxBytes: maxBytes, maxFiles: maxFiles}
}

// writeModelError maps vision model failures onto HTTP statuses.
func writeModelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidAPIKey):
		writeJSON(w, http.StatusUnauthorized, errorBody("model API key is missing or invalid"))
	case errors.Is(err, apperr.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorBody("rate limited, try again shortly"))
	case errors.Is(err, apperr.ErrBadModelOutput):
		writeJSON(w, http.StatusBadGateway, errorBody("model returned an unusable response"))
	default:
		slog.Error("model call failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Analyze handles POST /api/analyze.
//
//	@Summary		Analyze CARV screenshots in one holistic pass
//	@Tags			analysis
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			images	formData	file	true	"CARV screenshots (repeatable)"
//	@Success		200		{object}	AnalyzeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	images, errMsg := h.readImages(w, r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, errorBody(errMsg))
		return
	}

	result, err := h.svc.Analyze(r.Context(), images)
	if err != nil {
		writeModelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GeneratePlan handles POST /api/plan.
//
//	@Summary		Generate a training plan from an analysis
//	@Tags			plan
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PlanRequest	true	"Analysis to plan from"
//	@Success		200		{object}	PlanResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plan [post]
func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Analysis) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("analysis is required"))
		return
	}
	numRuns := req.NumRuns
	if numRuns <= 0 {
		numRuns = 1
	}

	result, err := h.svc.GeneratePlan(r.Context(), req.Analysis, numRuns)
	if err != nil {
		writeModelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ParsePlan handles POST /api/plan/parse.
//
//	@Summary		Break an existing Markdown plan into structured fields
//	@Tags			plan
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParsePlanRequest	true	"Plan Markdown"
//	@Success		200		{object}	ParsedPlan
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plan/parse [post]
func (h *Handler) ParsePlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ParsePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Plan == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("plan is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ParsePlan(req.Plan))
}

// Metadata handles POST /api/metadata.
//
//	@Summary		Extract capture times from uploaded screenshots
//	@Tags			metadata
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			images	formData	file	true	"Images (repeatable)"
//	@Success		200		{object}	MetadataResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/metadata [post]
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	images, errMsg := h.readImages(w, r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, errorBody(errMsg))
		return
	}

	out := make([]FileMetadata, 0, len(images))
	for _, img := range images {
		taken, source := h.svc.Metadata(img.Filename, img.Data)
		m := FileMetadata{Filename: img.Filename}
		if !taken.IsZero() {
			t := taken
			m.Datetime = &t
			m.Source = source
		}
		out = append(out, m)
	}
	writeJSON(w, http.StatusOK, MetadataResponse{
		Metadata:    out,
		ExtractedAt: time.Now().UTC(),
	})
}

// readImages parses the multipart "images" field into model inputs.
// Returns a non-empty message on validation failure.
func (h *Handler) readImages(w http.ResponseWriter, r *http.Request) ([]llm.Image, string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*int64(h.maxFiles)+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "invalid or too large multipart form"
	}
	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		return nil, "no image files provided, upload at least one CARV screenshot"
	}
	if len(headers) > h.maxFiles {
		return nil, "too many files in one request"
	}

	var images []llm.Image
	for _, fh := range headers {
		if fh.Filename == "" {
			continue
		}
		if fh.Size > h.maxBytes {
			return nil, fh.Filename + " is too large"
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "failed to read " + fh.Filename
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > h.maxBytes {
			return nil, fh.Filename + " is too large"
		}
		if err := validateImage(fh.Filename, data); err != nil {
			return nil, err.Error()
		}
		images = append(images, llm.Image{
			Filename: fh.Filename,
			MIMEType: imageMediaType(fh.Filename),
			Data:     data,
		})
	}
	if len(images) == 0 {
		return nil, "no valid images, upload at least one valid image file"
	}
	return images, ""
}
