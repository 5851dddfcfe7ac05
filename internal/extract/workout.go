package extract

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/pulsereport/internal/models"
)

// WorkoutExtractor parses workout sessions from the workout stream,
// accepting both heart-rate conventions seen across export versions.
type WorkoutExtractor struct {
	loc    *time.Location
	logger *slog.Logger
}

func NewWorkoutExtractor(loc *time.Location, logger *slog.Logger) *WorkoutExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkoutExtractor{loc: loc, logger: logger}
}

// Extract converts every parseable workout in the payload, sorted by start
// time. Sessions missing start or end are dropped and counted.
func (w *WorkoutExtractor) Extract(payload *models.HAEPayload) ([]models.Workout, int) {
	var out []models.Workout
	dropped := 0
	for i := range payload.Data.Workouts {
		raw := &payload.Data.Workouts[i]
		if raw.Start.IsZero() || raw.End.IsZero() {
			w.logger.Warn("dropping workout without start/end", "name", raw.Name)
			dropped++
			continue
		}
		out = append(out, w.convert(raw))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, dropped
}

func (w *WorkoutExtractor) convert(raw *models.HAEWorkout) models.Workout {
	wk := models.Workout{
		ID:              workoutID(raw),
		Name:            raw.Name,
		Start:           w.rezone(raw.Start.Time),
		End:             w.rezone(raw.End.Time),
		DurationMinutes: raw.Duration / 60,
	}
	if wk.DurationMinutes == 0 {
		wk.DurationMinutes = wk.End.Sub(wk.Start).Minutes()
	}

	if raw.ActiveEnergy.Recorded {
		kcal := raw.ActiveEnergy.Total
		switch strings.ToLower(raw.ActiveEnergy.Units) {
		case "kj":
			kcal /= kjPerKcal
		case "kcal":
		default:
			if kcal > energyKJThreshold {
				kcal /= kjPerKcal
			}
		}
		wk.EnergyKcal = &kcal
	}

	if raw.Distance != nil {
		meters := raw.Distance.Qty
		if raw.Distance.Units == "km" || (raw.Distance.Units == "" && meters < 200) {
			meters *= 1000
		}
		wk.DistanceM = &meters
	}

	w.fillHeartRate(raw, &wk)

	for _, p := range raw.HeartRateData {
		if p.Date.IsZero() {
			continue
		}
		wk.HRTimeline = append(wk.HRTimeline, models.HRSample{
			Time: w.rezone(p.Date.Time),
			Avg:  p.Avg,
			Max:  p.Max,
			Min:  p.Min,
		})
	}
	sort.Slice(wk.HRTimeline, func(i, j int) bool { return wk.HRTimeline[i].Time.Before(wk.HRTimeline[j].Time) })

	// Summary fields absent but a timeline present: derive the summary.
	if wk.AvgHR == nil && len(wk.HRTimeline) > 0 {
		w.deriveHRSummary(&wk)
	}
	return wk
}

// fillHeartRate reads whichever heart-rate convention the session uses: the
// nested heartRate dict or the flat heart_rate_avg / heart_rate_max fields.
func (w *WorkoutExtractor) fillHeartRate(raw *models.HAEWorkout, wk *models.Workout) {
	if hr := raw.HeartRate; hr != nil {
		if hr.Avg != nil {
			v := hr.Avg.Qty
			wk.AvgHR = &v
		}
		if hr.Max != nil {
			v := hr.Max.Qty
			wk.MaxHR = &v
		}
		if hr.Min != nil {
			v := hr.Min.Qty
			wk.MinHR = &v
		}
		return
	}
	if raw.FlatAvgHR != nil {
		v := *raw.FlatAvgHR
		wk.AvgHR = &v
	}
	if raw.FlatMaxHR != nil {
		v := *raw.FlatMaxHR
		wk.MaxHR = &v
	}
}

func (w *WorkoutExtractor) deriveHRSummary(wk *models.Workout) {
	var total float64
	min := wk.HRTimeline[0].Min
	max := wk.HRTimeline[0].Max
	for _, p := range wk.HRTimeline {
		total += p.Avg
		if p.Min > 0 && p.Min < min {
			min = p.Min
		}
		if p.Max > max {
			max = p.Max
		}
	}
	avg := total / float64(len(wk.HRTimeline))
	wk.AvgHR = &avg
	if max > 0 {
		wk.MaxHR = &max
	}
	if min > 0 {
		wk.MinHR = &min
	}
}

func (w *WorkoutExtractor) rezone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, w.loc)
}

// workoutID keeps the exporter's UUID when it carries one, otherwise derives
// a stable ID from the session identity so cache round trips agree.
func workoutID(raw *models.HAEWorkout) uuid.UUID {
	if raw.ID != "" {
		if id, err := uuid.Parse(raw.ID); err == nil {
			return id
		}
	}
	seed := raw.Name + "|" + raw.Start.Format(models.HAEWallClockLayout) + "|" + raw.End.Format(models.HAEWallClockLayout)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))
}
