package models

import (
	"time"

	"github.com/google/uuid"
)

// CanonicalMetric identifies a health quantity independent of the
// source-device spelling.
type CanonicalMetric string

const (
	MetricHRV             CanonicalMetric = "hrv"
	MetricRestingHR       CanonicalMetric = "resting_hr"
	MetricSteps           CanonicalMetric = "steps"
	MetricDistanceWalkRun CanonicalMetric = "distance_walk_run"
	MetricActiveEnergy    CanonicalMetric = "active_energy"
	MetricBasalEnergy     CanonicalMetric = "basal_energy"
	MetricFlightsClimbed  CanonicalMetric = "flights_climbed"
	MetricStandTime       CanonicalMetric = "stand_time"
	MetricStandHours      CanonicalMetric = "stand_hours"
	MetricExerciseTime    CanonicalMetric = "exercise_time"
	MetricSpO2            CanonicalMetric = "spo2"
	MetricRespiratoryRate CanonicalMetric = "respiratory_rate"
	MetricHeartRate       CanonicalMetric = "heart_rate"
)

// Aggregation is the rule that reduces a day's samples to one value.
type Aggregation int

const (
	AggMean Aggregation = iota
	AggSum
	AggCountQualifying // count of samples with a positive quantity
)

func (a Aggregation) String() string {
	switch a {
	case AggSum:
		return "sum"
	case AggCountQualifying:
		return "count_qualifying"
	default:
		return "mean"
	}
}

// MetricInfo declares the canonical unit and aggregation rule for a metric.
type MetricInfo struct {
	Unit        string
	Aggregation Aggregation
}

var metricTable = map[CanonicalMetric]MetricInfo{
	MetricHRV:             {Unit: "ms", Aggregation: AggMean},
	MetricRestingHR:       {Unit: "bpm", Aggregation: AggMean},
	MetricSteps:           {Unit: "count", Aggregation: AggSum},
	MetricDistanceWalkRun: {Unit: "km", Aggregation: AggSum},
	MetricActiveEnergy:    {Unit: "kcal", Aggregation: AggSum},
	MetricBasalEnergy:     {Unit: "kcal", Aggregation: AggSum},
	MetricFlightsClimbed:  {Unit: "count", Aggregation: AggSum},
	MetricStandTime:       {Unit: "min", Aggregation: AggSum},
	MetricStandHours:      {Unit: "count", Aggregation: AggCountQualifying},
	MetricExerciseTime:    {Unit: "min", Aggregation: AggSum},
	MetricSpO2:            {Unit: "%", Aggregation: AggMean},
	MetricRespiratoryRate: {Unit: "breaths/min", Aggregation: AggMean},
	MetricHeartRate:       {Unit: "bpm", Aggregation: AggMean},
}

// canonicalOrder fixes iteration order for summaries and reports.
var canonicalOrder = []CanonicalMetric{
	MetricHRV, MetricRestingHR, MetricSteps, MetricDistanceWalkRun,
	MetricActiveEnergy, MetricBasalEnergy, MetricFlightsClimbed,
	MetricStandTime, MetricStandHours, MetricExerciseTime,
	MetricSpO2, MetricRespiratoryRate, MetricHeartRate,
}

// CanonicalMetrics returns all canonical metrics in report order.
func CanonicalMetrics() []CanonicalMetric {
	out := make([]CanonicalMetric, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

// Info returns the metric's declared unit and aggregation rule.
func (m CanonicalMetric) Info() MetricInfo {
	return metricTable[m]
}

// IsSum reports whether the metric totals across samples and days.
func (m CanonicalMetric) IsSum() bool {
	agg := metricTable[m].Aggregation
	return agg == AggSum || agg == AggCountQualifying
}

// Sample is one raw observation inside a MetricStream.
type Sample struct {
	Time  time.Time
	Value float64
	Unit  string // unit as received, before normalization
}

// MetricStream is the per-day, time-ordered samples of one canonical metric.
// Min and Max are populated for heart_rate, whose raw points carry per-point
// extremes that a mean-of-averages would lose.
type MetricStream struct {
	Metric     CanonicalMetric
	Samples    []Sample
	PointCount int // non-null samples that contributed
	Dropped    int // malformed records discarded
	Source     string
	Min        *float64
	Max        *float64
}

// MetricValue is the reduced per-day value carried in a DailySummary.
// Value is nil iff PointCount is zero.
type MetricValue struct {
	Value      *float64 `json:"value"`
	PointCount int      `json:"point_count"`
	Source     string   `json:"source,omitempty"`
	Min        *float64 `json:"min,omitempty"` // retained for heart_rate
	Max        *float64 `json:"max,omitempty"`
}

// SleepEpisode is the merged nightly sleep session attributed to one report
// date. Stage hours are all zero when the source lacks stage classification.
type SleepEpisode struct {
	BedTime     time.Time `json:"bed_time"`
	WakeTime    time.Time `json:"wake_time"`
	TotalHours  float64   `json:"total_hours"`
	DeepHours   float64   `json:"deep_hours"`
	CoreHours   float64   `json:"core_hours"`
	RemHours    float64   `json:"rem_hours"`
	AwakeHours  float64   `json:"awake_hours"`
	NumSegments int       `json:"num_segments"`
	SourceFiles []string  `json:"source_files,omitempty"`
}

// HasStages reports whether any stage classification is present.
func (s *SleepEpisode) HasStages() bool {
	return s.DeepHours > 0 || s.CoreHours > 0 || s.RemHours > 0 || s.AwakeHours > 0
}

// StageSum returns deep + core + rem + awake hours.
func (s *SleepEpisode) StageSum() float64 {
	return s.DeepHours + s.CoreHours + s.RemHours + s.AwakeHours
}

// HRSample is one point of a workout heart-rate timeline.
type HRSample struct {
	Time time.Time `json:"time"`
	Avg  float64   `json:"avg"`
	Max  float64   `json:"max"`
	Min  float64   `json:"min"`
}

// Workout is one extracted workout session. Optional fields stay nil when the
// source did not record them; a nil EnergyKcal renders as unrecorded, not zero.
type Workout struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	DurationMinutes float64    `json:"duration_minutes"`
	EnergyKcal      *float64   `json:"energy_kcal"`
	AvgHR           *float64   `json:"avg_hr"`
	MaxHR           *float64   `json:"max_hr"`
	MinHR           *float64   `json:"min_hr"`
	DistanceM       *float64   `json:"distance_m"`
	HRTimeline      []HRSample `json:"hr_timeline,omitempty"`
}

// Badge is the qualitative band a score falls into.
type Badge string

const (
	BadgeExcellent Badge = "excellent"
	BadgeGood      Badge = "good"
	BadgeAverage   Badge = "average"
	BadgePoor      Badge = "poor"
)

// BadgeForScore maps a 0..100 score to its band.
func BadgeForScore(score int) Badge {
	switch {
	case score >= 80:
		return BadgeExcellent
	case score >= 60:
		return BadgeGood
	case score >= 40:
		return BadgeAverage
	default:
		return BadgePoor
	}
}

// CSSClass returns the badge class used by the report templates.
func (b Badge) CSSClass() string {
	return "badge-" + string(b)
}

// Label returns the badge text used by the report templates.
func (b Badge) Label() string {
	switch b {
	case BadgeExcellent:
		return "优秀"
	case BadgeGood:
		return "良好"
	case BadgeAverage:
		return "一般"
	default:
		return "需改善"
	}
}

// Scores holds the three computed daily scores, each in 0..100.
type Scores struct {
	Recovery int `json:"recovery"`
	Sleep    int `json:"sleep"`
	Exercise int `json:"exercise"`
}

// DailySummary is the reduced, normalized per-day record consumed by the
// composer and persisted to the daily cache. Every canonical metric appears
// as a key; a nil value means no data.
type DailySummary struct {
	Date     string                          `json:"date"` // YYYY-MM-DD
	Metrics  map[CanonicalMetric]MetricValue `json:"metrics"`
	Sleep    *SleepEpisode                   `json:"sleep"`
	Workouts []Workout                       `json:"workouts"`
	Scores   Scores                          `json:"scores"`
	Dropped  int                             `json:"dropped_records"`
}

// Metric returns the value for a canonical metric; the zero MetricValue when
// the summary predates the metric (cache written by an older build).
func (d *DailySummary) Metric(m CanonicalMetric) MetricValue {
	return d.Metrics[m]
}

// Float returns the metric value, or 0 when absent.
func (d *DailySummary) Float(m CanonicalMetric) float64 {
	if v := d.Metrics[m]; v.Value != nil {
		return *v.Value
	}
	return 0
}

// HasWorkout reports whether at least one workout was recorded.
func (d *DailySummary) HasWorkout() bool {
	return len(d.Workouts) > 0
}

// SleepHours returns the attributed sleep duration, or 0 without an episode.
func (d *DailySummary) SleepHours() float64 {
	if d.Sleep == nil {
		return 0
	}
	return d.Sleep.TotalHours
}

// DataStatus is the coarse completeness label for a period.
type DataStatus string

const (
	StatusPartial DataStatus = "partial"
	StatusPreview DataStatus = "preview"
	StatusFull    DataStatus = "full"
)

// StatusForCompleteness maps observed/expected to the period data status.
func StatusForCompleteness(completeness float64) DataStatus {
	switch {
	case completeness < 0.25:
		return StatusPartial
	case completeness < 0.50:
		return StatusPreview
	default:
		return StatusFull
	}
}

// PeriodAggregate holds per-metric aggregates across observed days.
type PeriodAggregate struct {
	Mean         float64 `json:"mean"`
	Total        float64 `json:"total,omitempty"` // only for sum-aggregated metrics
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	BestDay      string  `json:"best_day"` // date of the Max observation
	ObservedDays int     `json:"observed_days"`
}

// PeriodSummary is a weekly or monthly rollup built entirely from cached
// DailySummary records; it never touches raw source files.
type PeriodSummary struct {
	StartDate    string                              `json:"start_date"`
	EndDate      string                              `json:"end_date"`
	ExpectedDays int                                 `json:"expected_days"`
	ObservedDays int                                 `json:"observed_days"`
	Completeness float64                             `json:"completeness"`
	DataStatus   DataStatus                          `json:"data_status"`
	Days         []DailySummary                      `json:"days"`
	Aggregates   map[CanonicalMetric]PeriodAggregate `json:"aggregates"`

	WorkoutDays  int    `json:"workout_days"`
	SleepDays    int    `json:"sleep_days"`
	AvgSleep     float64 `json:"avg_sleep_hours"`
	BestSleepDay string `json:"best_sleep_day,omitempty"`
}
