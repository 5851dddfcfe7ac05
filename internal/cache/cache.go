// Package cache persists daily summaries as one JSON file per date so that
// period rollups never re-parse raw export files.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/pulsereport/internal/models"
)

// ErrMiss marks a date with no cached summary.
var ErrMiss = errors.New("no cached summary for date")

// Store is a directory of per-day summary files, cache/daily/<date>.json.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the cache file path for a date.
func (s *Store) Path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// Put writes the summary atomically: a temp file in the same directory is
// renamed over the target, so readers never see a partial write.
func (s *Store) Put(summary *models.DailySummary) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary %s: %w", summary.Date, err)
	}
	tmp, err := os.CreateTemp(s.dir, summary.Date+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(summary.Date)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publishing cache file: %w", err)
	}
	return nil
}

// Get loads the cached summary for a date. Returns ErrMiss when absent.
func (s *Store) Get(date string) (*models.DailySummary, error) {
	data, err := os.ReadFile(s.Path(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", date, ErrMiss)
		}
		return nil, fmt.Errorf("reading cache for %s: %w", date, err)
	}
	var summary models.DailySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decoding cache for %s: %w", date, err)
	}
	return &summary, nil
}

// Dates lists the cached dates, sorted ascending.
func (s *Store) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		date := strings.TrimSuffix(name, ".json")
		if _, err := time.Parse(models.HAEDateOnlyLayout, date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}
