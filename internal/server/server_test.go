package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/pulsereport/internal/config"
	"github.com/claude/pulsereport/internal/models"
	"github.com/claude/pulsereport/internal/pipeline"
)

const testKey = "test-key"

func newTestServer(t *testing.T) (*Server, *pipeline.Pipeline, *config.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		TimezoneOffsetHours: 8,
		Paths: config.PathsConfig{
			HealthDir:  filepath.Join(root, "Health Data"),
			WorkoutDir: filepath.Join(root, "Workout Data"),
			OutputDir:  filepath.Join(root, "reports"),
			CacheDir:   filepath.Join(root, "cache"),
		},
	}
	for _, dir := range []string{cfg.Paths.HealthDir, cfg.Paths.WorkoutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	pipe := pipeline.New(cfg, log)
	return New(pipe, cfg.Paths.OutputDir, testKey, log), pipe, cfg
}

func seedDay(t *testing.T, pipe *pipeline.Pipeline, date string) {
	t.Helper()
	s := &models.DailySummary{
		Date:    date,
		Metrics: map[models.CanonicalMetric]models.MetricValue{},
	}
	for _, m := range models.CanonicalMetrics() {
		s.Metrics[m] = models.MetricValue{}
	}
	if err := pipe.Store().Put(s); err != nil {
		t.Fatal(err)
	}
}

func TestAPIKeyAuthRejectsMissingAndWrongKey(t *testing.T) {
	handler := apiKeyAuth(testKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", rec.Code)
	}
}

// No configured key disables the guarded routes entirely, even with a
// matching header.
func TestAPIKeyAuthFailsClosedWithoutConfiguredKey(t *testing.T) {
	handler := apiKeyAuth("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-API-Key", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("no configured key: status = %d, want 503", rec.Code)
	}
}

func TestListDays(t *testing.T) {
	srv, pipe, _ := newTestServer(t)
	seedDay(t, pipe, "2025-11-18")
	seedDay(t, pipe, "2025-11-19")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/days", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var body struct {
		Dates []string `json:"dates"`
		Count int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 || len(body.Dates) != 2 || body.Dates[0] != "2025-11-18" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestGetDayNotCached(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/days/2025-11-19", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestBadDateRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/days/not-a-date", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWeeklySummaryFromCache(t *testing.T) {
	srv, pipe, _ := newTestServer(t)
	seedDay(t, pipe, "2025-11-19")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weekly/2025-11-19", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var summary models.PeriodSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.ExpectedDays != 7 || summary.ObservedDays != 1 {
		t.Errorf("expected/observed = %d/%d, want 7/1", summary.ExpectedDays, summary.ObservedDays)
	}
	if summary.DataStatus != models.StatusPartial {
		t.Errorf("status = %q, want partial", summary.DataStatus)
	}
}

func TestGenerateDailyRequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/daily/2025-11-19", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGenerateDailyMissingSource(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/daily/2025-11-19", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", rec.Code, rec.Body)
	}
}

func TestGenerateDailyHTMLOnly(t *testing.T) {
	srv, _, cfg := newTestServer(t)

	payload := `{"data":{"metrics":[{"name":"step_count","units":"count","data":[{"date":"2025-11-19 08:00:00","qty":8200}]}]}}`
	path := filepath.Join(cfg.Paths.HealthDir, "HealthAutoExport-2025-11-19.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/daily/2025-11-19?html_only=true", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var result pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(result.HTMLPath, "2025-11-19_report.html") {
		t.Errorf("html path = %q", result.HTMLPath)
	}
	if result.PDFPath != "" {
		t.Errorf("html-only run should not report a pdf, got %q", result.PDFPath)
	}
	data, err := os.ReadFile(result.HTMLPath)
	if err != nil {
		t.Fatalf("generated html missing: %v", err)
	}
	if !strings.Contains(string(data), "8,200") {
		t.Error("generated html should carry the step count")
	}
}
