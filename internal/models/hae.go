package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// HAETime handles the Health Auto Export date format: "2006-01-02 15:04:05 +0800".
// Only the leading 19 characters are kept; the zone suffix is stripped and the
// value is treated as wall-clock time in the configured report zone.
type HAETime struct {
	time.Time
}

const (
	HAEWallClockLayout = "2006-01-02 15:04:05"
	HAEDateOnlyLayout  = "2006-01-02"
)

func (t *HAETime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.Parse(s)
}

func (t HAETime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(HAEWallClockLayout))
}

// Parse parses an HAE time string, trying the wall-clock prefix first, then
// date-only. An empty string leaves the zero value (field absent in source).
func (t *HAETime) Parse(s string) error {
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if len(s) >= len(HAEWallClockLayout) {
		if parsed, err := time.Parse(HAEWallClockLayout, s[:len(HAEWallClockLayout)]); err == nil {
			t.Time = parsed
			return nil
		}
	}
	if parsed, err := time.Parse(HAEDateOnlyLayout, s); err == nil {
		t.Time = parsed
		return nil
	}
	return fmt.Errorf("cannot parse HAE time %q", s)
}

// ParseHAETime parses an HAE time string into a time.Time.
func ParseHAETime(s string) (time.Time, error) {
	var t HAETime
	if err := t.Parse(s); err != nil {
		return time.Time{}, err
	}
	return t.Time, nil
}

// HAEPayload is the top-level export file structure.
type HAEPayload struct {
	Data HAEData `json:"data"`
}

// HAEData contains the arrays of health data. Some workout-stream exports put
// a bare workout array under "data" instead of the {"workouts": [...]} object;
// both shapes are accepted.
type HAEData struct {
	Metrics  []HAEMetric  `json:"metrics"`
	Workouts []HAEWorkout `json:"workouts"`
}

func (d *HAEData) UnmarshalJSON(data []byte) error {
	type plain HAEData
	var obj plain
	if err := json.Unmarshal(data, &obj); err == nil {
		*d = HAEData(obj)
		return nil
	}
	var workouts []HAEWorkout
	if err := json.Unmarshal(data, &workouts); err != nil {
		return fmt.Errorf("data is neither an object nor a workout array: %w", err)
	}
	d.Metrics = nil
	d.Workouts = workouts
	return nil
}

// HAEMetric is a single metric entry with name, units, and data points.
// Points stay raw until the extractor decides the shape for the metric.
type HAEMetric struct {
	Name  string            `json:"name"`
	Units string            `json:"units"`
	Data  []json.RawMessage `json:"data"`
}

// HAEMetricDataPoint is a standard metric data point with qty.
type HAEMetricDataPoint struct {
	Date HAETime `json:"date"`
	Qty  float64 `json:"qty"`
}

// HAEHeartRateDataPoint has Min/Avg/Max fields (capitalized in HAE JSON).
type HAEHeartRateDataPoint struct {
	Date HAETime `json:"date"`
	Min  float64 `json:"Min"`
	Avg  float64 `json:"Avg"`
	Max  float64 `json:"Max"`
}

// HAESleepRecord is a nightly sleep entry from the sleep_analysis metric.
// Stage hours may all be zero when the source lacks stage classification.
type HAESleepRecord struct {
	Date       HAETime `json:"date"`
	SleepStart HAETime `json:"sleepStart"`
	SleepEnd   HAETime `json:"sleepEnd"`
	Asleep     float64 `json:"asleep"`
	TotalSleep float64 `json:"totalSleep"`
	Deep       float64 `json:"deep"`
	Core       float64 `json:"core"`
	REM        float64 `json:"rem"`
	Awake      float64 `json:"awake"`
	InBed      float64 `json:"inBed"`
	Source     string  `json:"source"`
}

// TotalHours returns the recorded sleep duration, preferring asleep/totalSleep
// and falling back to the stage sum when both are zero but stages carry data.
func (r *HAESleepRecord) TotalHours() float64 {
	if r.Asleep > 0 {
		return r.Asleep
	}
	if r.TotalSleep > 0 {
		return r.TotalSleep
	}
	return r.Deep + r.Core + r.REM + r.Awake
}

// HAEQuantity is the {"qty": N, "units": "..."} structure. A bare number is
// also accepted, since older exports flatten single quantities.
type HAEQuantity struct {
	Qty   float64 `json:"qty"`
	Units string  `json:"units"`
}

func (q *HAEQuantity) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		q.Qty = n
		q.Units = ""
		return nil
	}
	type plain HAEQuantity
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*q = HAEQuantity(obj)
	return nil
}

// HAEEnergy accepts the three observed activeEnergy encodings: a bare number,
// a {"qty": N} object, or an array of {"qty": N} samples (summed). A JSON null
// leaves Recorded false. The declared units survive so downstream conversion
// can honor them; a bare number has none.
type HAEEnergy struct {
	Total    float64
	Units    string
	Recorded bool
}

func (e *HAEEnergy) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = HAEEnergy{}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		e.Total = n
		e.Recorded = true
		return nil
	}
	var q HAEQuantity
	if err := json.Unmarshal(data, &q); err == nil {
		e.Total = q.Qty
		e.Units = q.Units
		e.Recorded = true
		return nil
	}
	var samples []HAEQuantity
	if err := json.Unmarshal(data, &samples); err != nil {
		return fmt.Errorf("activeEnergy is neither number, object, nor array: %w", err)
	}
	e.Total = 0
	for _, s := range samples {
		e.Total += s.Qty
		if e.Units == "" {
			e.Units = s.Units
		}
	}
	e.Recorded = len(samples) > 0
	return nil
}

// HAEWorkout is a workout session. Heart-rate summary appears in two
// conventions across export versions: a nested heartRate dict and flat
// heart_rate_avg / heart_rate_max fields. Both are modeled.
type HAEWorkout struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Start    HAETime `json:"start"`
	End      HAETime `json:"end"`
	Duration float64 `json:"duration"` // seconds

	ActiveEnergy HAEEnergy    `json:"activeEnergy"`
	Distance     *HAEQuantity `json:"distance,omitempty"`

	HeartRate *HAEWorkoutHRSummary `json:"heartRate,omitempty"`
	FlatAvgHR *float64             `json:"heart_rate_avg,omitempty"`
	FlatMaxHR *float64             `json:"heart_rate_max,omitempty"`

	HeartRateData []HAEWorkoutHRPoint `json:"heartRateData,omitempty"`
}

// HAEWorkoutHRSummary is the nested heartRate summary in workouts.
type HAEWorkoutHRSummary struct {
	Min *HAEQuantity `json:"min,omitempty"`
	Avg *HAEQuantity `json:"avg,omitempty"`
	Max *HAEQuantity `json:"max,omitempty"`
}

// HAEWorkoutHRPoint is a heart rate sample during a workout.
type HAEWorkoutHRPoint struct {
	Date HAETime `json:"date"`
	Min  float64 `json:"Min"`
	Avg  float64 `json:"Avg"`
	Max  float64 `json:"Max"`
}
