// Package server exposes the pipeline over HTTP: submit a resume, poll
// progress, fetch results. Auth, sessions, and payment are handled by
// collaborating services in front of this one.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/striver-24/ai-resume-analyzer-sub000/internal/async"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/export"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/kvstore"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/pipeline"
)

// Server wires the queue, orchestrator, and stores behind a chi router.
type Server struct {
	orch           *pipeline.Orchestrator
	queue          async.Queue
	kv             kvstore.Store
	export         *export.Service
	maxUploadBytes int64
	logger         *slog.Logger
}

func New(orch *pipeline.Orchestrator, queue async.Queue, kv kvstore.Store, exp *export.Service, maxUploadBytes int64, logger *slog.Logger) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		orch:           orch,
		queue:          queue,
		kv:             kv,
		export:         exp,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/export", s.handleExport)
		r.Route("/{jobID}", func(r chi.Router) {
			r.Get("/", s.handleGetJob)
			r.Get("/progress", s.handleProgress)
			r.Get("/text", s.handleSideKey(sideText))
			r.Get("/markdown", s.handleSideKey(sideMarkdown))
			r.Get("/raw", s.handleSideKey(sideRaw))
		})
	})
	return r
}
