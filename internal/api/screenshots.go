package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
	"github.com/carvtrainer/carvtrainer/internal/imagemeta"
	"github.com/carvtrainer/carvtrainer/internal/models"
)

// UploadScreenshots handles POST /api/screenshots (multipart, field "images").
//
//	@Summary		Upload screenshots straight into the library
//	@Tags			screenshots
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			images	formData	file	true	"Screenshots (repeatable)"
//	@Success		201		{object}	UploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/screenshots [post]
func (h *Handler) UploadScreenshots(w http.ResponseWriter, r *http.Request) {
	images, errMsg := h.readImages(w, r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, errorBody(errMsg))
		return
	}

	resp := UploadResponse{Stored: []models.Screenshot{}, Skipped: []string{}}
	for _, img := range images {
		rec, err := h.svc.UploadScreenshot(r.Context(), sanitizeFilename(img.Filename), img.Data)
		if err != nil {
			if errors.Is(err, apperr.ErrAlreadyExists) {
				resp.Skipped = append(resp.Skipped, img.Filename)
				continue
			}
			slog.Error("screenshot upload failed", slog.String("filename", img.Filename), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		resp.Stored = append(resp.Stored, *rec)
	}
	status := http.StatusCreated
	if len(resp.Stored) == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// ListScreenshots handles GET /api/screenshots.
//
//	@Summary		List registered screenshots
//	@Tags			screenshots
//	@Produce		json
//	@Success		200	{object}	ScreenshotListResponse
//	@Security		BearerAuth
//	@Router			/screenshots [get]
func (h *Handler) ListScreenshots(w http.ResponseWriter, r *http.Request) {
	shots, err := h.svc.ListScreenshots(r.Context())
	if err != nil {
		slog.Error("list screenshots failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ScreenshotListResponse{Screenshots: shots})
}

// DeleteScreenshot handles DELETE /api/screenshots/*.
//
//	@Summary		Delete a screenshot from the library
//	@Tags			screenshots
//	@Param			path	path	string	true	"Library path"
//	@Success		204		"Screenshot deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/screenshots/{path} [delete]
func (h *Handler) DeleteScreenshot(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteScreenshot(r.Context(), path); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete screenshot failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// wildcardPath extracts the path from the URL wildcard. Supports encoded
// slashes from OpenAPI clients (e.g. 2024%2F01%2Frun.png).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// sanitizeFilename strips any path components from an uploaded name.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return "upload.png"
	}
	return name
}

// validateImage verifies the file extension is supported and that the
// content actually looks like an image.
func validateImage(name string, data []byte) error {
	if !imagemeta.Supported(name) {
		return fmt.Errorf("%s: unsupported file type", name)
	}
	detected := http.DetectContentType(data)
	if !strings.HasPrefix(detected, "image/") {
		return fmt.Errorf("%s: content does not appear to be an image (detected %s)", name, detected)
	}
	return nil
}

// imageMediaType returns the MIME type to send to the model.
func imageMediaType(name string) string {
	return imagemeta.MediaType(name)
}
