package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/carvtrainer/carvtrainer/internal/trainer"
)

// RouterConfig carries the knobs the router needs from app config.
type RouterConfig struct {
	AuthEnabled bool
	Token       string
	CORSOrigins []string
	MaxBytes    int64
	MaxFiles    int
}

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *trainer.Service, cfg RouterConfig, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, cfg.MaxBytes, cfg.MaxFiles)

	r := chi.NewRouter()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Analysis and planning.
	r.Post("/analyze", h.Analyze)
	r.Post("/plan", h.GeneratePlan)
	r.Post("/plan/parse", h.ParsePlan)
	r.Post("/metadata", h.Metadata)

	// Progress log.
	r.Get("/progress", h.ListEntries)
	r.Post("/progress", h.CreateEntry)
	r.Get("/progress/{id}", h.GetEntry)
	r.Delete("/progress/{id}", h.DeleteEntry)

	// Screenshot library.
	r.Get("/screenshots", h.ListScreenshots)
	r.Post("/screenshots", h.UploadScreenshots)
	r.Delete("/screenshots/*", h.DeleteScreenshot)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
