// Package httpapi exposes the study pipeline over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/export"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/operations"
	"github.com/Epistemic-Technology/studysage/internal/storage"
)

// Handler serves the JSON API.
type Handler struct {
	pipeline *operations.Pipeline
	store    storage.Store
	exporter *export.Exporter
	cfg      *config.Config
	log      logger.Logger
}

func NewHandler(pipeline *operations.Pipeline, store storage.Store, exporter *export.Exporter, cfg *config.Config, log logger.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		store:    store,
		exporter: exporter,
		cfg:      cfg,
		log:      log,
	}
}

// NewRouter creates the API router with all routes configured.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(chimiddleware.Recoverer)
	if h.cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(h.cfg.Server.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "studysage"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/extract", h.Extract)
		r.Post("/summarize", h.Summarize)
		r.Post("/quiz", h.Quiz)
		r.Post("/process", h.Process)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Get("/export/{kind}", h.ExportSession)
			})
		})
	})

	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("%s %s -> %d (%d bytes, %s) [%s]", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
				time.Since(start).Round(time.Millisecond), chimiddleware.GetReqID(r.Context()))
		})
	}
}
