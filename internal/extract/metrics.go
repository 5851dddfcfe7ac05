// Package extract turns raw export payloads into typed per-day streams:
// canonical metric streams, the attributed nightly sleep episode, and
// workout sessions.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/claude/pulsereport/internal/models"
)

// ErrUnitAmbiguity marks a stream whose values fit none of the declared
// auto-detect branches. The pipeline refuses to invent a conversion.
var ErrUnitAmbiguity = errors.New("unit ambiguity")

// energyKJThreshold is the day-sum above which an energy stream with no
// recognized declared unit is read as kilojoules. Single samples are never
// enough to branch on; the sum is.
const energyKJThreshold = 2000.0

const kjPerKcal = 4.184

// synonyms maps every source spelling seen across export versions to its
// canonical metric. Unknown names are logged and skipped, never fatal.
var synonyms = map[string]models.CanonicalMetric{
	"heart_rate_variability":      models.MetricHRV,
	"heart_rate_variability_sdnn": models.MetricHRV,
	"resting_heart_rate":          models.MetricRestingHR,
	"step_count":                  models.MetricSteps,
	"walking_running_distance":    models.MetricDistanceWalkRun,
	"distance_walking_running":    models.MetricDistanceWalkRun,
	"active_energy":               models.MetricActiveEnergy,
	"active_energy_burned":        models.MetricActiveEnergy,
	"basal_energy_burned":         models.MetricBasalEnergy,
	"flights_climbed":             models.MetricFlightsClimbed,
	"apple_stand_time":            models.MetricStandTime,
	"apple_stand_hour":            models.MetricStandHours,
	"apple_exercise_time":         models.MetricExerciseTime,
	"oxygen_saturation":           models.MetricSpO2,
	"blood_oxygen_saturation":     models.MetricSpO2,
	"respiratory_rate":            models.MetricRespiratoryRate,
	"heart_rate":                  models.MetricHeartRate,
}

// CanonicalName resolves a source metric name to its canonical identifier.
func CanonicalName(raw string) (models.CanonicalMetric, bool) {
	m, ok := synonyms[strings.ToLower(raw)]
	return m, ok
}

// MetricExtractor parses metric entries into canonical streams and reduces
// them to daily values.
type MetricExtractor struct {
	logger *slog.Logger
}

func NewMetricExtractor(logger *slog.Logger) *MetricExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricExtractor{logger: logger}
}

// Streams parses every recognized metric in a payload. Sleep analysis is not
// a metric stream; the sleep attributor consumes it separately.
func (e *MetricExtractor) Streams(payload *models.HAEPayload) map[models.CanonicalMetric]*models.MetricStream {
	out := make(map[models.CanonicalMetric]*models.MetricStream)
	for i := range payload.Data.Metrics {
		m := &payload.Data.Metrics[i]
		if m.Name == "sleep_analysis" {
			continue
		}
		canonical, ok := CanonicalName(m.Name)
		if !ok {
			e.logger.Info("ignoring unknown metric", "name", m.Name)
			continue
		}
		stream := e.parseStream(canonical, m)
		if existing, ok := out[canonical]; ok {
			// Two source spellings mapping to one canonical metric; merge.
			existing.Samples = append(existing.Samples, stream.Samples...)
			existing.PointCount += stream.PointCount
			existing.Dropped += stream.Dropped
			continue
		}
		out[canonical] = stream
	}
	for _, s := range out {
		sort.Slice(s.Samples, func(i, j int) bool { return s.Samples[i].Time.Before(s.Samples[j].Time) })
	}
	return out
}

func (e *MetricExtractor) parseStream(canonical models.CanonicalMetric, m *models.HAEMetric) *models.MetricStream {
	stream := &models.MetricStream{Metric: canonical, Source: m.Name}
	for _, raw := range m.Data {
		if canonical == models.MetricHeartRate {
			var p models.HAEHeartRateDataPoint
			if err := json.Unmarshal(raw, &p); err != nil || p.Date.IsZero() {
				e.dropPoint(stream, m.Name, err)
				continue
			}
			stream.Samples = append(stream.Samples, models.Sample{Time: p.Date.Time, Value: p.Avg, Unit: m.Units})
			stream.PointCount++
			if stream.Min == nil || p.Min < *stream.Min {
				min := p.Min
				stream.Min = &min
			}
			if stream.Max == nil || p.Max > *stream.Max {
				max := p.Max
				stream.Max = &max
			}
			continue
		}
		var p models.HAEMetricDataPoint
		if err := json.Unmarshal(raw, &p); err != nil || p.Date.IsZero() {
			e.dropPoint(stream, m.Name, err)
			continue
		}
		stream.Samples = append(stream.Samples, models.Sample{Time: p.Date.Time, Value: p.Qty, Unit: m.Units})
		stream.PointCount++
	}
	return stream
}

func (e *MetricExtractor) dropPoint(stream *models.MetricStream, name string, err error) {
	stream.Dropped++
	e.logger.Warn("dropping malformed data point", "metric", name, "error", err)
}

// Reduce normalizes units and applies the metric's aggregation rule,
// producing the value carried in the daily summary. A nil Value means the
// stream had no samples.
func (e *MetricExtractor) Reduce(stream *models.MetricStream) (models.MetricValue, error) {
	mv := models.MetricValue{PointCount: stream.PointCount, Source: stream.Source}
	if stream.PointCount == 0 {
		return mv, nil
	}

	values := make([]float64, len(stream.Samples))
	for i, s := range stream.Samples {
		values[i] = s.Value
	}

	switch stream.Metric {
	case models.MetricActiveEnergy, models.MetricBasalEnergy:
		total, err := normalizeEnergy(values, declaredUnit(stream), stream.Metric)
		if err != nil {
			return mv, err
		}
		mv.Value = &total
		return mv, nil
	case models.MetricSpO2:
		if err := normalizeSpO2(values, stream.Metric); err != nil {
			return mv, err
		}
	case models.MetricStandTime:
		unit := declaredUnit(stream)
		if unit == "s" || unit == "sec" || unit == "seconds" {
			for i := range values {
				values[i] /= 60
			}
		}
	case models.MetricDistanceWalkRun:
		if declaredUnit(stream) == "m" {
			for i := range values {
				values[i] /= 1000
			}
		}
	case models.MetricHeartRate:
		mv.Min, mv.Max = stream.Min, stream.Max
	}

	switch stream.Metric.Info().Aggregation {
	case models.AggSum:
		total := sum(values)
		mv.Value = &total
	case models.AggCountQualifying:
		n := 0.0
		for _, v := range values {
			if v > 0 {
				n++
			}
		}
		mv.Value = &n
	default:
		mean := sum(values) / float64(len(values))
		mv.Value = &mean
	}
	return mv, nil
}

// Values reduces every stream, returning a complete map where each canonical
// metric appears as a key, nil-valued when no data was seen. The second
// return is the total count of dropped records.
func (e *MetricExtractor) Values(streams map[models.CanonicalMetric]*models.MetricStream) (map[models.CanonicalMetric]models.MetricValue, int, error) {
	out := make(map[models.CanonicalMetric]models.MetricValue, len(models.CanonicalMetrics()))
	dropped := 0
	for _, canonical := range models.CanonicalMetrics() {
		stream, ok := streams[canonical]
		if !ok {
			out[canonical] = models.MetricValue{}
			continue
		}
		dropped += stream.Dropped
		mv, err := e.Reduce(stream)
		if err != nil {
			return nil, dropped, fmt.Errorf("metric %s: %w", canonical, err)
		}
		out[canonical] = mv
	}
	return out, dropped, nil
}

// normalizeEnergy sums the stream and converts to kcal. A recognized declared
// unit wins: kJ converts unconditionally, kcal never does. Only streams with
// no recognized unit fall back to the day-sum magnitude heuristic.
func normalizeEnergy(values []float64, unit string, metric models.CanonicalMetric) (float64, error) {
	total := sum(values)
	if total < 0 {
		return 0, fmt.Errorf("%w: %s day sum %.1f is negative", ErrUnitAmbiguity, metric, total)
	}
	switch unit {
	case "kj":
		return total / kjPerKcal, nil
	case "kcal":
		return total, nil
	}
	if total > energyKJThreshold {
		return total / kjPerKcal, nil
	}
	return total, nil
}

// normalizeSpO2 rescales fraction-encoded streams to percent in place. A
// stream mixing fraction and percent samples fits neither branch.
func normalizeSpO2(values []float64, metric models.CanonicalMetric) error {
	fraction := false
	for _, v := range values {
		if v <= 1.0 {
			fraction = true
			break
		}
	}
	if !fraction {
		return nil
	}
	for i, v := range values {
		if v > 1.5 {
			return fmt.Errorf("%w: %s mixes fraction and percent samples (%.3f)", ErrUnitAmbiguity, metric, v)
		}
		values[i] = v * 100
	}
	return nil
}

func declaredUnit(stream *models.MetricStream) string {
	if len(stream.Samples) == 0 {
		return ""
	}
	return strings.ToLower(stream.Samples[0].Unit)
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
