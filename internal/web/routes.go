package web

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/expression-tracker/internal/constants"
	"github.com/kozaktomas/expression-tracker/internal/web/handlers"
	"github.com/kozaktomas/expression-tracker/internal/web/middleware"
	"github.com/kozaktomas/expression-tracker/internal/web/static"
)


func (s *Server) setupRoutes() {
	cfg := s.opts.Config
	detector := s.opts.Detector

	// Create handlers
	var ingest handlers.ProducerLister
	if s.opts.Ingest != nil {
		ingest = s.opts.Ingest
	}
	healthHandler := handlers.NewHealthHandler(detector, ingest)
	rulesHandler := handlers.NewRulesHandler(detector.Rules(), s.opts.Labels, s.opts.Logger)
	framesHandler := handlers.NewFramesHandler(detector, s.opts.Labels, s.opts.Metrics, s.opts.Logger)
	eventsHandler := handlers.NewEventsHandler(detector, s.opts.Labels, cfg.Tracker.QueueSize, s.opts.Logger)
	configHandler := handlers.NewConfigHandler(cfg)

	s.router.Get("/api/v1/health", healthHandler.Get)
	s.router.Handle("/metrics", s.opts.Metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		// Short-lived requests
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(constants.RequestTimeout))

			r.Get("/config", configHandler.Get)
			r.Get("/catalog", rulesHandler.Catalog)
			r.Get("/rules", rulesHandler.List)
			r.Get("/producers", healthHandler.Producers)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireToken(cfg.Web.APIToken))
				r.Post("/rules", rulesHandler.Create)
				r.Post("/frames", framesHandler.Push)
			})
		})

		// Streams
		r.Get("/expressions/events", eventsHandler.Stream)
		if s.opts.Ingest != nil {
			r.With(middleware.RequireToken(cfg.Web.APIToken)).Handle("/frames/ws", s.opts.Ingest)
		}
	})

	s.router.Get("/*", s.serveDashboard)
}

// serveDashboard serves the embedded live dashboard
func (s *Server) serveDashboard(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	name := r.URL.Path
	if name == "/" {
		name = "/index.html"
	}

	f, err := fs.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	contentType := "application/octet-stream"
	switch strings.ToLower(path.Ext(name)) {
	case ".html":
		contentType = "text/html; charset=utf-8"
	case ".css":
		contentType = "text/css; charset=utf-8"
	case ".js":
		contentType = "application/javascript; charset=utf-8"
	case ".svg":
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}
