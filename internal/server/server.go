// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/alnah/go-notetaker/internal/config"
	"github.com/alnah/go-notetaker/internal/metrics"
	"github.com/alnah/go-notetaker/internal/notes"
	"github.com/alnah/go-notetaker/internal/template"
)

// Server is the HTTP front end.
type Server struct {
	http         *http.Server
	proc         Processor
	summarizer   notes.Summarizer
	notesEnabled bool
	template     template.Name
	maxUpload    int64
	jwtSecret    string
	version      string
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSummarizer enables notes on /process-audio and the /notes endpoint.
func WithSummarizer(sum notes.Summarizer) Option {
	return func(s *Server) {
		s.summarizer = sum
		s.notesEnabled = sum != nil
	}
}

// WithMetrics exposes /metrics and instruments every route.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer builds the router and the underlying http.Server from cfg.
func NewServer(cfg *config.Config, proc Processor, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		proc:      proc,
		maxUpload: cfg.MaxUploadBytes(),
		jwtSecret: cfg.JWTSecret,
		version:   "dev",
		log:       log,
	}
	if tpl, err := template.ParseName(cfg.NotesTemplate); err == nil {
		s.template = tpl
	} else {
		log.Warn().Str("template", cfg.NotesTemplate).Msg("unknown notes template, using default")
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.jwtSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, authentication disabled")
	}

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(Logger(s.log))
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(s.metrics.InstrumentHandler)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(JWTAuth(s.jwtSecret))
		r.Post("/process-audio", s.processAudio)
		r.Post("/notes", s.notes)
	})

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
