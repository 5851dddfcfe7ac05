package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/pulsereport/internal/cache"
	"github.com/claude/pulsereport/internal/pipeline"
	"github.com/claude/pulsereport/internal/source"
)

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	dates, err := s.pipe.Store().Dates()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates, "count": len(dates)})
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	summary, err := s.pipe.Store().Get(date)
	if errors.Is(err, cache.ErrMiss) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cached summary for " + date})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetWeekly(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	summary, err := s.pipe.Weekly(date)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetMonthly(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	summary, err := s.pipe.Monthly(date)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGenerateDaily(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, s.pipe.DailyReport)
}

func (s *Server) handleGenerateWeekly(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, s.pipe.WeeklyReport)
}

func (s *Server) handleGenerateMonthly(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, s.pipe.MonthlyReport)
}

type reportFunc func(ctx context.Context, date string, htmlOnly bool) (*pipeline.Result, error)

func (s *Server) generate(w http.ResponseWriter, r *http.Request, run reportFunc) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	htmlOnly := r.URL.Query().Get("html_only") == "true"

	result, err := run(r.Context(), date, htmlOnly)
	if errors.Is(err, source.ErrNoData) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("report generation failed", "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return "", false
	}
	return date, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
