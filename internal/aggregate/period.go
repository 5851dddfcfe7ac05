package aggregate

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/pulsereport/internal/cache"
	"github.com/claude/pulsereport/internal/models"
)

// PeriodAggregator rolls cached daily summaries into weekly and monthly
// summaries. It only reads the cache; raw exports are never touched here.
type PeriodAggregator struct {
	store  *cache.Store
	logger *slog.Logger
}

func NewPeriodAggregator(store *cache.Store, logger *slog.Logger) *PeriodAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeriodAggregator{store: store, logger: logger}
}

// Weekly builds the 7-day rollup ending on the given date.
func (p *PeriodAggregator) Weekly(endDate string, loc *time.Location) (*models.PeriodSummary, error) {
	end, err := time.ParseInLocation(models.HAEDateOnlyLayout, endDate, loc)
	if err != nil {
		return nil, fmt.Errorf("bad end date %q: %w", endDate, err)
	}
	start := end.AddDate(0, 0, -6)
	return p.Range(start.Format(models.HAEDateOnlyLayout), endDate, loc)
}

// Monthly builds the calendar-month rollup containing the given date.
func (p *PeriodAggregator) Monthly(date string, loc *time.Location) (*models.PeriodSummary, error) {
	d, err := time.ParseInLocation(models.HAEDateOnlyLayout, date, loc)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, -1)
	return p.Range(start.Format(models.HAEDateOnlyLayout), end.Format(models.HAEDateOnlyLayout), loc)
}

// Range builds the rollup for an inclusive date range. Missing days reduce
// observed_days; they are never errors.
func (p *PeriodAggregator) Range(startDate, endDate string, loc *time.Location) (*models.PeriodSummary, error) {
	start, err := time.ParseInLocation(models.HAEDateOnlyLayout, startDate, loc)
	if err != nil {
		return nil, fmt.Errorf("bad start date %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation(models.HAEDateOnlyLayout, endDate, loc)
	if err != nil {
		return nil, fmt.Errorf("bad end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s before start %s", endDate, startDate)
	}

	summary := &models.PeriodSummary{
		StartDate:  startDate,
		EndDate:    endDate,
		Aggregates: make(map[models.CanonicalMetric]models.PeriodAggregate),
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		summary.ExpectedDays++
		date := d.Format(models.HAEDateOnlyLayout)
		day, err := p.store.Get(date)
		if err != nil {
			if errors.Is(err, cache.ErrMiss) {
				continue
			}
			return nil, err
		}
		summary.Days = append(summary.Days, *day)
		summary.ObservedDays++
	}

	summary.Completeness = float64(summary.ObservedDays) / float64(summary.ExpectedDays)
	summary.DataStatus = models.StatusForCompleteness(summary.Completeness)

	p.aggregateMetrics(summary)
	p.aggregateSleepAndWorkouts(summary)

	p.logger.Info("built period summary",
		"start", startDate,
		"end", endDate,
		"observed", summary.ObservedDays,
		"expected", summary.ExpectedDays,
		"status", summary.DataStatus)
	return summary, nil
}

// aggregateMetrics computes per-metric stats over observed days only. Days
// with no data for a metric do not dilute its mean.
func (p *PeriodAggregator) aggregateMetrics(summary *models.PeriodSummary) {
	for _, metric := range models.CanonicalMetrics() {
		agg := models.PeriodAggregate{}
		for _, day := range summary.Days {
			mv := day.Metric(metric)
			if mv.Value == nil {
				continue
			}
			v := *mv.Value
			if agg.ObservedDays == 0 || v < agg.Min {
				agg.Min = v
			}
			if agg.ObservedDays == 0 || v > agg.Max {
				agg.Max = v
				agg.BestDay = day.Date
			}
			agg.Total += v
			agg.ObservedDays++
		}
		if agg.ObservedDays == 0 {
			summary.Aggregates[metric] = agg
			continue
		}
		agg.Mean = agg.Total / float64(agg.ObservedDays)
		if !metric.IsSum() {
			agg.Total = 0
		}
		summary.Aggregates[metric] = agg
	}
}

func (p *PeriodAggregator) aggregateSleepAndWorkouts(summary *models.PeriodSummary) {
	var sleepTotal, bestSleep float64
	for _, day := range summary.Days {
		if day.HasWorkout() {
			summary.WorkoutDays++
		}
		if day.Sleep == nil {
			continue
		}
		summary.SleepDays++
		sleepTotal += day.Sleep.TotalHours
		if day.Sleep.TotalHours > bestSleep {
			bestSleep = day.Sleep.TotalHours
			summary.BestSleepDay = day.Date
		}
	}
	if summary.SleepDays > 0 {
		summary.AvgSleep = sleepTotal / float64(summary.SleepDays)
	}
}

// Projection scales a period total to the full expected length. Only valid
// when the period's data status permits projections (preview or full).
func Projection(summary *models.PeriodSummary, metric models.CanonicalMetric) (float64, bool) {
	if summary.DataStatus == models.StatusPartial || summary.ObservedDays == 0 {
		return 0, false
	}
	agg, ok := summary.Aggregates[metric]
	if !ok || agg.ObservedDays == 0 || !metric.IsSum() {
		return 0, false
	}
	return agg.Total * float64(summary.ExpectedDays) / float64(summary.ObservedDays), true
}
