package cache

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/pulsereport/internal/models"
)

func ptr(v float64) *float64 { return &v }

func sampleSummary() *models.DailySummary {
	loc := time.FixedZone("UTC+8", 8*3600)
	metrics := make(map[models.CanonicalMetric]models.MetricValue)
	for _, m := range models.CanonicalMetrics() {
		metrics[m] = models.MetricValue{}
	}
	metrics[models.MetricSteps] = models.MetricValue{Value: ptr(8200), PointCount: 14, Source: "step_count"}
	metrics[models.MetricHRV] = models.MetricValue{Value: ptr(52.8), PointCount: 3, Source: "heart_rate_variability"}
	metrics[models.MetricHeartRate] = models.MetricValue{
		Value: ptr(66.5), PointCount: 120, Source: "heart_rate", Min: ptr(48), Max: ptr(152),
	}
	return &models.DailySummary{
		Date:    "2026-02-18",
		Metrics: metrics,
		Sleep: &models.SleepEpisode{
			BedTime:     time.Date(2026, 2, 18, 23, 30, 0, 0, loc),
			WakeTime:    time.Date(2026, 2, 19, 7, 0, 0, 0, loc),
			TotalHours:  7.1,
			DeepHours:   1.2,
			CoreHours:   4.0,
			RemHours:    1.5,
			AwakeHours:  0.4,
			NumSegments: 1,
			SourceFiles: []string{"HealthAutoExport-2026-02-19.json"},
		},
		Workouts: []models.Workout{{
			ID:              uuid.NewSHA1(uuid.NameSpaceOID, []byte("run")),
			Name:            "Outdoor Run",
			Start:           time.Date(2026, 2, 18, 18, 0, 0, 0, loc),
			End:             time.Date(2026, 2, 18, 18, 40, 0, 0, loc),
			DurationMinutes: 40,
			EnergyKcal:      ptr(320.5),
			AvgHR:           ptr(152),
			MaxHR:           ptr(176),
			HRTimeline: []models.HRSample{
				{Time: time.Date(2026, 2, 18, 18, 5, 0, 0, loc), Avg: 148, Max: 160, Min: 120},
			},
		}},
		Scores:  models.Scores{Recovery: 90, Sleep: 72, Exercise: 85},
		Dropped: 2,
	}
}

func TestRoundTripLossless(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "daily"))
	want := sampleSummary()
	if err := store.Put(want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get("2026-02-18")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Date != want.Date || got.Scores != want.Scores || got.Dropped != want.Dropped {
		t.Errorf("scalar fields differ: %+v", got)
	}
	for _, m := range models.CanonicalMetrics() {
		a, b := want.Metrics[m], got.Metrics[m]
		if (a.Value == nil) != (b.Value == nil) {
			t.Errorf("metric %s nil-ness differs", m)
			continue
		}
		if a.Value != nil && *a.Value != *b.Value {
			t.Errorf("metric %s = %v, want %v", m, *b.Value, *a.Value)
		}
		if a.PointCount != b.PointCount {
			t.Errorf("metric %s point_count = %d, want %d", m, b.PointCount, a.PointCount)
		}
	}
	if got.Sleep == nil || !got.Sleep.BedTime.Equal(want.Sleep.BedTime) || got.Sleep.TotalHours != want.Sleep.TotalHours {
		t.Errorf("sleep = %+v", got.Sleep)
	}
	if !reflect.DeepEqual(got.Sleep.SourceFiles, want.Sleep.SourceFiles) {
		t.Errorf("source_files = %v", got.Sleep.SourceFiles)
	}
	if len(got.Workouts) != 1 {
		t.Fatalf("workouts = %d", len(got.Workouts))
	}
	gw, ww := got.Workouts[0], want.Workouts[0]
	if gw.ID != ww.ID || gw.Name != ww.Name || !gw.Start.Equal(ww.Start) {
		t.Errorf("workout identity differs: %+v", gw)
	}
	if gw.EnergyKcal == nil || *gw.EnergyKcal != *ww.EnergyKcal {
		t.Errorf("energy = %v", gw.EnergyKcal)
	}
	if len(gw.HRTimeline) != 1 || gw.HRTimeline[0].Avg != 148 {
		t.Errorf("hr_timeline = %+v", gw.HRTimeline)
	}
}

func TestMissIsErrMiss(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Get("2026-02-18"); !errors.Is(err, ErrMiss) {
		t.Fatalf("got %v, want ErrMiss", err)
	}
}

func TestPutOverwritesLastWriterWins(t *testing.T) {
	store := NewStore(t.TempDir())
	first := sampleSummary()
	if err := store.Put(first); err != nil {
		t.Fatal(err)
	}
	second := sampleSummary()
	second.Scores.Exercise = 95
	if err := store.Put(second); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get("2026-02-18")
	if err != nil {
		t.Fatal(err)
	}
	if got.Scores.Exercise != 95 {
		t.Errorf("exercise = %d, want 95", got.Scores.Exercise)
	}
}

func TestDatesSortedAndFiltered(t *testing.T) {
	store := NewStore(t.TempDir())
	for _, date := range []string{"2026-02-19", "2026-02-17", "2026-02-18"} {
		s := sampleSummary()
		s.Date = date
		if err := store.Put(s); err != nil {
			t.Fatal(err)
		}
	}
	dates, err := store.Dates()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2026-02-17", "2026-02-18", "2026-02-19"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("dates = %v, want %v", dates, want)
	}
}

func TestDatesMissingDirIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"))
	dates, err := store.Dates()
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 0 {
		t.Errorf("dates = %v, want empty", dates)
	}
}
