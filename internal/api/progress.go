package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
	"github.com/carvtrainer/carvtrainer/internal/models"
)

// ListEntries handles GET /api/progress.
//
//	@Summary		List progress entries newest first
//	@Tags			progress
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/progress [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	entries, total, err := h.svc.ListEntries(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list entries failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: total})
}

// CreateEntry handles POST /api/progress.
//
//	@Summary		Record a progress entry
//	@Tags			progress
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateEntryRequest	true	"Entry to record"
//	@Success		201		{object}	models.Entry
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/progress [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.SkiIQ == "" && len(req.Analysis) == 0 && req.Plan == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("entry needs at least a ski_iq, analysis, or plan"))
		return
	}

	e := models.Entry{
		Source:      req.Source,
		SkiIQ:       req.SkiIQ,
		Analysis:    req.Analysis,
		Plan:        req.Plan,
		Screenshots: req.Screenshots,
	}
	if req.RecordedAt != nil {
		e.RecordedAt = *req.RecordedAt
	}

	created, err := h.svc.CreateEntry(r.Context(), e)
	if err != nil {
		slog.Error("create entry failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetEntry handles GET /api/progress/{id}.
//
//	@Summary		Get one progress entry
//	@Tags			progress
//	@Produce		json
//	@Param			id	path		string	true	"Entry ID"
//	@Success		200	{object}	models.Entry
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/progress/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.svc.GetEntry(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("get entry failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/progress/{id}.
//
//	@Summary		Delete a progress entry
//	@Tags			progress
//	@Param			id	path	string	true	"Entry ID"
//	@Success		204	"Entry deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/progress/{id} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteEntry(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete entry failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
