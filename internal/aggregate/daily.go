// Package aggregate reduces extracted streams into daily summaries and rolls
// cached summaries up into weekly and monthly periods.
package aggregate

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/claude/pulsereport/internal/cache"
	"github.com/claude/pulsereport/internal/extract"
	"github.com/claude/pulsereport/internal/models"
	"github.com/claude/pulsereport/internal/source"
)

// DailyAggregator builds a DailySummary for one date from the raw exports
// and writes it to the cache.
type DailyAggregator struct {
	reader   *source.Reader
	metrics  *extract.MetricExtractor
	sleep    *extract.SleepAttributor
	workouts *extract.WorkoutExtractor
	store    *cache.Store
	logger   *slog.Logger
}

func NewDailyAggregator(reader *source.Reader, loc *time.Location, store *cache.Store, logger *slog.Logger) *DailyAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyAggregator{
		reader:   reader,
		metrics:  extract.NewMetricExtractor(logger),
		sleep:    extract.NewSleepAttributor(reader, loc, logger),
		workouts: extract.NewWorkoutExtractor(loc, logger),
		store:    store,
		logger:   logger,
	}
}

// Build produces the summary for a date and persists it. A missing
// metric-stream file is fatal for a daily report; a missing workout-stream
// file only means no workouts.
func (a *DailyAggregator) Build(date string) (*models.DailySummary, error) {
	payload, err := a.reader.Health(date)
	if err != nil {
		return nil, fmt.Errorf("health stream: %w", err)
	}

	values, dropped, err := a.metrics.Values(a.metrics.Streams(payload))
	if err != nil {
		return nil, err
	}

	episode, err := a.sleep.Attribute(date)
	if err != nil {
		return nil, fmt.Errorf("sleep attribution: %w", err)
	}

	var workouts []models.Workout
	workoutPayload, err := a.reader.Workouts(date)
	switch {
	case err == nil:
		var wDropped int
		workouts, wDropped = a.workouts.Extract(workoutPayload)
		dropped += wDropped
	case errors.Is(err, source.ErrNoData):
		a.logger.Info("no workout file", "date", date)
	default:
		return nil, fmt.Errorf("workout stream: %w", err)
	}

	summary := &models.DailySummary{
		Date:     date,
		Metrics:  values,
		Sleep:    episode,
		Workouts: workouts,
		Dropped:  dropped,
	}
	summary.Scores = Score(summary)

	if err := a.store.Put(summary); err != nil {
		return nil, fmt.Errorf("caching summary: %w", err)
	}
	a.logger.Info("built daily summary",
		"date", date,
		"sleep_hours", summary.SleepHours(),
		"workouts", len(workouts),
		"dropped", dropped)
	return summary, nil
}

// Score computes the three daily scores. The formulas are fixed so scores
// reproduce bit-for-bit across runs.
func Score(s *models.DailySummary) models.Scores {
	return models.Scores{
		Recovery: recoveryScore(s),
		Sleep:    sleepScore(s),
		Exercise: exerciseScore(s),
	}
}

func recoveryScore(s *models.DailySummary) int {
	score := 70
	if v := s.Metric(models.MetricHRV); v.Value != nil && *v.Value >= 50 {
		score += 10
	}
	if v := s.Metric(models.MetricRestingHR); v.Value != nil && *v.Value < 65 {
		score += 10
	}
	if s.SleepHours() >= 7 {
		score += 10
	}
	return clamp(score)
}

func sleepScore(s *models.DailySummary) int {
	if s.Sleep == nil {
		return 0
	}
	h := s.Sleep.TotalHours
	var score float64
	switch {
	case h < 4:
		score = 20 * h / 4
	case h < 6:
		score = 20 + 30*(h-4)/2
	case h < 7:
		score = 50 + 20*(h-6)
	case h < 8:
		score = 70 + 20*(h-7)
	case h <= 9:
		score = 90 + 10*(h-8)
	default:
		score = 100
	}
	return clamp(int(math.Floor(score)))
}

func exerciseScore(s *models.DailySummary) int {
	score := 50
	steps := s.Float(models.MetricSteps)
	if steps > 5000 {
		score += 10
	}
	if steps > 8000 {
		score += 10
	}
	if steps > 10000 {
		score += 10
	}
	if s.HasWorkout() {
		score += 15
	}
	if s.Float(models.MetricActiveEnergy) > 500 {
		score += 10
	}
	return clamp(score)
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
