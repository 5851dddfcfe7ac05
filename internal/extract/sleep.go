package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/pulsereport/internal/models"
	"github.com/claude/pulsereport/internal/source"
)

// Attribution window bounds, relative to report date D in local time. A
// record belongs to D iff both sleepStart and sleepEnd fall inside
// [D 20:00, D+1 12:00).
const (
	windowStartHour = 20
	windowEndHour   = 12
)

// SleepAttributor reconstructs the nightly sleep episode that belongs to a
// report date. The export convention files a night's record under the
// morning it ended on, so both D's and D+1's files are scanned.
type SleepAttributor struct {
	reader *source.Reader
	loc    *time.Location
	logger *slog.Logger
}

func NewSleepAttributor(reader *source.Reader, loc *time.Location, logger *slog.Logger) *SleepAttributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SleepAttributor{reader: reader, loc: loc, logger: logger}
}

// Attribute returns the merged sleep episode for report date D, or nil when
// no in-window record exists. It never invents an episode.
func (a *SleepAttributor) Attribute(date string) (*models.SleepEpisode, error) {
	day, err := time.ParseInLocation(models.HAEDateOnlyLayout, date, a.loc)
	if err != nil {
		return nil, fmt.Errorf("bad report date %q: %w", date, err)
	}
	windowStart := time.Date(day.Year(), day.Month(), day.Day(), windowStartHour, 0, 0, 0, a.loc)
	next := day.AddDate(0, 0, 1)
	windowEnd := time.Date(next.Year(), next.Month(), next.Day(), windowEndHour, 0, 0, 0, a.loc)

	type key struct{ start, end int64 }
	seen := make(map[key]bool)
	var records []models.HAESleepRecord
	var files []string

	for _, d := range []string{date, next.Format(models.HAEDateOnlyLayout)} {
		payload, err := a.reader.Health(d)
		if err != nil {
			if errors.Is(err, source.ErrNoData) {
				continue
			}
			return nil, err
		}
		metric := source.Metric(payload, "sleep_analysis")
		if metric == nil {
			continue
		}
		contributed := false
		for _, raw := range metric.Data {
			var rec models.HAESleepRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				a.logger.Warn("dropping malformed sleep record", "file", d, "error", err)
				continue
			}
			if rec.SleepStart.IsZero() || rec.SleepEnd.IsZero() {
				a.logger.Warn("dropping sleep record without start/end", "file", d)
				continue
			}
			start := a.rezone(rec.SleepStart.Time)
			end := a.rezone(rec.SleepEnd.Time)
			if start.Before(windowStart) || end.Before(windowStart) || !end.Before(windowEnd) || !start.Before(windowEnd) {
				continue
			}
			k := key{start.Unix(), end.Unix()}
			if seen[k] {
				continue
			}
			seen[k] = true
			rec.SleepStart.Time = start
			rec.SleepEnd.Time = end
			records = append(records, rec)
			contributed = true
		}
		if contributed {
			files = append(files, source.FileName(d))
		}
	}

	if len(records) == 0 {
		return nil, nil
	}
	return merge(records, files), nil
}

// rezone reinterprets a stripped wall-clock timestamp in the report zone.
func (a *SleepAttributor) rezone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, a.loc)
}

// merge folds distinct in-window records (main night plus naps) into one
// episode: earliest start, latest end, element-wise summed hours.
func merge(records []models.HAESleepRecord, files []string) *models.SleepEpisode {
	ep := &models.SleepEpisode{
		BedTime:     records[0].SleepStart.Time,
		WakeTime:    records[0].SleepEnd.Time,
		NumSegments: len(records),
		SourceFiles: files,
	}
	for _, r := range records {
		if r.SleepStart.Time.Before(ep.BedTime) {
			ep.BedTime = r.SleepStart.Time
		}
		if r.SleepEnd.Time.After(ep.WakeTime) {
			ep.WakeTime = r.SleepEnd.Time
		}
		ep.TotalHours += r.TotalHours()
		ep.DeepHours += r.Deep
		ep.CoreHours += r.Core
		ep.RemHours += r.REM
		ep.AwakeHours += r.Awake
	}
	return ep
}
