package aggregate

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/pulsereport/internal/cache"
	"github.com/claude/pulsereport/internal/models"
	"github.com/claude/pulsereport/internal/source"
)

var testZone = time.FixedZone("UTC+8", 8*3600)

func ptr(v float64) *float64 { return &v }

func summaryWith(metrics map[models.CanonicalMetric]models.MetricValue, sleep *models.SleepEpisode, workouts []models.Workout) *models.DailySummary {
	full := make(map[models.CanonicalMetric]models.MetricValue)
	for _, m := range models.CanonicalMetrics() {
		full[m] = models.MetricValue{}
	}
	for m, v := range metrics {
		full[m] = v
	}
	return &models.DailySummary{Date: "2026-02-18", Metrics: full, Sleep: sleep, Workouts: workouts}
}

func TestRecoveryScoreComposition(t *testing.T) {
	s := summaryWith(map[models.CanonicalMetric]models.MetricValue{
		models.MetricHRV:       {Value: ptr(52.8), PointCount: 3},
		models.MetricRestingHR: {Value: ptr(57), PointCount: 2},
	}, &models.SleepEpisode{TotalHours: 2.82}, nil)
	scores := Score(s)
	if scores.Recovery != 90 {
		t.Errorf("recovery = %d, want 90", scores.Recovery)
	}
	if models.BadgeForScore(scores.Recovery) != models.BadgeExcellent {
		t.Errorf("badge = %s, want excellent", models.BadgeForScore(scores.Recovery))
	}
}

func TestSleepScorePiecewise(t *testing.T) {
	tests := []struct {
		hours float64
		want  int
	}{
		{2.82, 14}, // 20·2.82/4 = 14.1, floored
		{0, 0},
		{4, 20},
		{5, 35},
		{6, 50},
		{6.5, 60},
		{7, 70},
		{7.5, 80},
		{8, 90},
		{9, 100},
		{10.5, 100},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2fh", tt.hours), func(t *testing.T) {
			s := summaryWith(nil, &models.SleepEpisode{TotalHours: tt.hours}, nil)
			if got := Score(s).Sleep; got != tt.want {
				t.Errorf("sleep score for %.2fh = %d, want %d", tt.hours, got, tt.want)
			}
		})
	}
}

func TestSleepScoreNullEpisode(t *testing.T) {
	s := summaryWith(nil, nil, nil)
	if got := Score(s).Sleep; got != 0 {
		t.Errorf("sleep score = %d, want 0 without an episode", got)
	}
}

func TestExerciseScoreSteps(t *testing.T) {
	tests := []struct {
		steps   float64
		energy  float64
		workout bool
		want    int
	}{
		{3000, 0, false, 50},
		{5500, 0, false, 60},
		{8200, 0, false, 70},
		{12000, 0, false, 80},
		{12000, 600, true, 100}, // 50+30+15+10 = 105, clamped
		{6000, 520, false, 70},
		{0, 0, true, 65},
	}
	for _, tt := range tests {
		metrics := map[models.CanonicalMetric]models.MetricValue{
			models.MetricSteps:        {Value: ptr(tt.steps), PointCount: 1},
			models.MetricActiveEnergy: {Value: ptr(tt.energy), PointCount: 1},
		}
		var workouts []models.Workout
		if tt.workout {
			workouts = []models.Workout{{Name: "Run"}}
		}
		s := summaryWith(metrics, nil, workouts)
		if got := Score(s).Exercise; got != tt.want {
			t.Errorf("exercise(steps=%.0f energy=%.0f workout=%v) = %d, want %d",
				tt.steps, tt.energy, tt.workout, got, tt.want)
		}
	}
}

func TestScoresAlwaysInRange(t *testing.T) {
	for _, hours := range []float64{0, 1, 3.99, 4, 5.5, 6.99, 7.5, 8.99, 9, 20} {
		s := summaryWith(nil, &models.SleepEpisode{TotalHours: hours}, nil)
		scores := Score(s)
		for name, v := range map[string]int{"recovery": scores.Recovery, "sleep": scores.Sleep, "exercise": scores.Exercise} {
			if v < 0 || v > 100 {
				t.Errorf("%s score %d out of range at %.2fh", name, v, hours)
			}
		}
	}
}

func writeExport(t *testing.T, dir, date, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, source.FileName(date)), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildEndToEnd(t *testing.T) {
	healthDir := t.TempDir()
	workoutDir := t.TempDir()
	cacheDir := filepath.Join(t.TempDir(), "daily")

	writeExport(t, healthDir, "2026-02-18", `{"data": {"metrics": [
		{"name": "step_count", "units": "count", "data": [
			{"date": "2026-02-18 09:00:00 +0800", "qty": 4000},
			{"date": "2026-02-18 15:00:00 +0800", "qty": 4200}
		]},
		{"name": "heart_rate_variability", "units": "ms", "data": [
			{"date": "2026-02-18 07:00:00 +0800", "qty": 52.8}
		]},
		{"name": "resting_heart_rate", "units": "bpm", "data": [
			{"date": "2026-02-18 07:00:00 +0800", "qty": 57}
		]}
	]}}`)
	writeExport(t, healthDir, "2026-02-19", `{"data": {"metrics": [
		{"name": "sleep_analysis", "units": "hr", "data": [
			{"date": "2026-02-19 09:17:04 +0800", "sleepStart": "2026-02-19 06:28:03 +0800",
			 "sleepEnd": "2026-02-19 09:17:04 +0800", "asleep": 2.82, "source": "Watch"}
		]}
	]}}`)
	writeExport(t, workoutDir, "2026-02-18", `{"data": {"workouts": [
		{"name": "Outdoor Run", "start": "2026-02-18 18:00:00 +0800",
		 "end": "2026-02-18 18:40:00 +0800", "duration": 2400,
		 "activeEnergy": {"qty": 320.5}, "heartRate": {"avg": {"qty": 152}, "max": {"qty": 176}}}
	]}}`)

	reader := source.NewReader(healthDir, workoutDir, nil)
	store := cache.NewStore(cacheDir)
	agg := NewDailyAggregator(reader, testZone, store, nil)

	summary, err := agg.Build("2026-02-18")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := summary.Float(models.MetricSteps); got != 8200 {
		t.Errorf("steps = %.0f, want 8200", got)
	}
	if summary.Sleep == nil || summary.Sleep.TotalHours != 2.82 {
		t.Errorf("sleep = %+v, want attributed 2.82h", summary.Sleep)
	}
	if len(summary.Workouts) != 1 {
		t.Fatalf("workouts = %d, want 1", len(summary.Workouts))
	}
	if summary.Scores.Recovery != 90 {
		t.Errorf("recovery = %d, want 90", summary.Scores.Recovery)
	}
	if summary.Scores.Sleep != 14 {
		t.Errorf("sleep score = %d, want 14", summary.Scores.Sleep)
	}
	// steps 8200 > 5000, > 8000; workout present: 50+20+15 = 85.
	if summary.Scores.Exercise != 85 {
		t.Errorf("exercise = %d, want 85", summary.Scores.Exercise)
	}

	// The build also populated the cache.
	cached, err := store.Get("2026-02-18")
	if err != nil {
		t.Fatalf("cache Get: %v", err)
	}
	if cached.Scores != summary.Scores {
		t.Errorf("cached scores = %+v", cached.Scores)
	}
}

func TestBuildMissingHealthFileFatal(t *testing.T) {
	reader := source.NewReader(t.TempDir(), t.TempDir(), nil)
	agg := NewDailyAggregator(reader, testZone, cache.NewStore(t.TempDir()), nil)
	if _, err := agg.Build("2026-02-18"); err == nil {
		t.Fatal("expected error for missing health file")
	}
}
