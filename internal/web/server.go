package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/expression-tracker/internal/config"
	"github.com/kozaktomas/expression-tracker/internal/constants"
	"github.com/kozaktomas/expression-tracker/internal/expression"
	"github.com/kozaktomas/expression-tracker/internal/metrics"
	"github.com/kozaktomas/expression-tracker/internal/source"
	"github.com/kozaktomas/expression-tracker/internal/tracker"
	"github.com/kozaktomas/expression-tracker/internal/web/middleware"
)

// Options holds the server's collaborators.
type Options struct {
	Config   *config.Config
	Detector *tracker.Detector
	Labels   *expression.Labeler
	// Ingest is mounted at /api/v1/frames/ws when not nil.
	Ingest  *source.WebSocket
	Metrics *metrics.Metrics
	Logger  *logrus.Logger
}

// Server represents the web server
type Server struct {
	opts       Options
	router     *chi.Mux
	httpServer *http.Server
	origins    middleware.Origins
	log        *logrus.Entry
}

// NewServer creates a new web server
func NewServer(opts Options) *Server {
	if opts.Labels == nil {
		opts.Labels = expression.NewLabeler()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetOutput(io.Discard)
	}

	r := chi.NewRouter()
	s := &Server{
		opts:    opts,
		router:  r,
		origins: middleware.NewOrigins(opts.Config.Web.AllowedOrigins),
		log:     opts.Logger.WithField("component", "web"),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{
		Logger:  opts.Logger,
		NoColor: true,
	}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(s.origins))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         opts.Config.Web.Addr(),
		Handler:      r,
		ReadTimeout:  constants.ReadTimeout,
		WriteTimeout: 0, // event streams and WebSocket ingest are long-lived
		IdleTimeout:  constants.IdleTimeout,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("Starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
