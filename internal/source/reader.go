// Package source locates and decodes Health Auto Export dump files. Exports
// arrive as two parallel directories, one for the health metric stream and
// one for the workout stream, each holding one JSON file per day.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/pulsereport/internal/models"
)

// ErrNoData marks a requested day with no export file on disk. Daily report
// generation treats it as fatal; period rollups treat the day as unobserved.
var ErrNoData = errors.New("no export file for date")

// Reader resolves per-date export files under the configured directories.
type Reader struct {
	healthDir  string
	workoutDir string
	logger     *slog.Logger
}

func NewReader(healthDir, workoutDir string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{healthDir: healthDir, workoutDir: workoutDir, logger: logger}
}

// FileName returns the export file name for a date, e.g.
// "HealthAutoExport-2026-01-15.json".
func FileName(date string) string {
	return fmt.Sprintf("HealthAutoExport-%s.json", date)
}

// HealthPath returns the metric-stream file path for a date.
func (r *Reader) HealthPath(date string) string {
	return filepath.Join(r.healthDir, FileName(date))
}

// WorkoutPath returns the workout-stream file path for a date.
func (r *Reader) WorkoutPath(date string) string {
	return filepath.Join(r.workoutDir, FileName(date))
}

// Health decodes the metric-stream export for a date. Returns ErrNoData when
// the file does not exist.
func (r *Reader) Health(date string) (*models.HAEPayload, error) {
	return r.read(r.HealthPath(date), date)
}

// Workouts decodes the workout-stream export for a date. Returns ErrNoData
// when the file does not exist.
func (r *Reader) Workouts(date string) (*models.HAEPayload, error) {
	return r.read(r.WorkoutPath(date), date)
}

func (r *Reader) read(path, date string) (*models.HAEPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", date, ErrNoData)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var payload models.HAEPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	r.logger.Debug("decoded export file",
		"path", path,
		"metrics", len(payload.Data.Metrics),
		"workouts", len(payload.Data.Workouts))

	return &payload, nil
}

// Metric returns the named metric entry from a payload, or nil when absent.
func Metric(payload *models.HAEPayload, name string) *models.HAEMetric {
	for i := range payload.Data.Metrics {
		if payload.Data.Metrics[i].Name == name {
			return &payload.Data.Metrics[i]
		}
	}
	return nil
}

// ListDates returns the dates (YYYY-MM-DD) that have a metric-stream export
// on disk, sorted ascending. Used by the viewer and MCP surfaces.
func (r *Reader) ListDates() ([]string, error) {
	entries, err := os.ReadDir(r.healthDir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.healthDir, err)
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "HealthAutoExport-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, "HealthAutoExport-"), ".json")
		if _, err := time.Parse(models.HAEDateOnlyLayout, date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}
