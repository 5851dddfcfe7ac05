package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/pulsereport/internal/pipeline"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	pipe      *pipeline.Pipeline
	outputDir string
	log       *slog.Logger
	apiKey    string
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(pipe *pipeline.Pipeline, outputDir, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		pipe:      pipe,
		outputDir: outputDir,
		log:       log,
		apiKey:    apiKey,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(requestLogging(s.log))

	// Report generation (API key required)
	s.router.Route("/api/v1/reports", func(r chi.Router) {
		r.Use(apiKeyAuth(s.apiKey))
		r.Post("/daily/{date}", s.handleGenerateDaily)
		r.Post("/weekly/{date}", s.handleGenerateWeekly)
		r.Post("/monthly/{date}", s.handleGenerateMonthly)
	})

	// Read-only API (no auth — tsnet handles access)
	s.router.Get("/api/v1/days", s.handleListDays)
	s.router.Get("/api/v1/days/{date}", s.handleGetDay)
	s.router.Get("/api/v1/weekly/{date}", s.handleGetWeekly)
	s.router.Get("/api/v1/monthly/{date}", s.handleGetMonthly)

	// Generated reports (HTML and PDF)
	s.router.Handle("/reports/*", http.StripPrefix("/reports/", http.FileServer(http.Dir(s.outputDir))))
}
