package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/claude/pulsereport/internal/models"
)

func ptr(v float64) *float64 { return &v }

func fullSummary() *models.DailySummary {
	metrics := make(map[models.CanonicalMetric]models.MetricValue)
	for _, m := range models.CanonicalMetrics() {
		metrics[m] = models.MetricValue{}
	}
	metrics[models.MetricHRV] = models.MetricValue{Value: ptr(52.8), PointCount: 3}
	metrics[models.MetricSteps] = models.MetricValue{Value: ptr(8200), PointCount: 14}
	metrics[models.MetricActiveEnergy] = models.MetricValue{Value: ptr(563.7), PointCount: 30}
	metrics[models.MetricSpO2] = models.MetricValue{Value: ptr(96.1), PointCount: 2}
	return &models.DailySummary{
		Date:    "2026-02-18",
		Metrics: metrics,
		Sleep:   &models.SleepEpisode{TotalHours: 7.1, DeepHours: 1.2, CoreHours: 4.0, RemHours: 1.5, AwakeHours: 0.4},
		Workouts: []models.Workout{{
			Name: "Outdoor Run", DurationMinutes: 40, AvgHR: ptr(152), EnergyKcal: ptr(320),
		}},
		Scores: models.Scores{Recovery: 90, Sleep: 72, Exercise: 85},
	}
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func TestFitPadsToMinimum(t *testing.T) {
	got := Fit("短文本。", Budget{Min: 50, Max: 150})
	if runeLen(got) < 50 {
		t.Errorf("len = %d runes, want >= 50", runeLen(got))
	}
}

func TestFitTruncatesWithEllipsis(t *testing.T) {
	long := strings.Repeat("数据分析结果良好。", 40)
	got := Fit(long, Budget{Min: 100, Max: 150})
	if runeLen(got) != 150 {
		t.Errorf("len = %d runes, want exactly 150", runeLen(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated text must end with ellipsis: %q", got[len(got)-12:])
	}
}

func TestFitLeavesInBudgetTextAlone(t *testing.T) {
	text := strings.Repeat("好", 120)
	if got := Fit(text, Budget{Min: 100, Max: 150}); got != text {
		t.Error("in-budget text must pass through unchanged")
	}
}

func TestDailyNarrativeBudgets(t *testing.T) {
	g := NewGenerator(nil, nil)
	n := g.Daily(context.Background(), fullSummary())

	for _, m := range models.CanonicalMetrics() {
		text, ok := n.Metrics[m]
		if !ok {
			t.Errorf("metric %s has no narrative slot", m)
			continue
		}
		if text == "暂无数据" {
			continue
		}
		if l := runeLen(text); l < MetricBudget.Min || l > MetricBudget.Max {
			t.Errorf("metric %s narrative %d runes, want %d..%d", m, l, MetricBudget.Min, MetricBudget.Max)
		}
	}
	if l := runeLen(n.Sleep); l < SleepBudget.Min || l > SleepBudget.Max {
		t.Errorf("sleep narrative %d runes", l)
	}
	if l := runeLen(n.Workout); l < WorkoutBudget.Min || l > WorkoutBudget.Max {
		t.Errorf("workout narrative %d runes", l)
	}
	for name, text := range map[string]string{
		"problem":     n.Suggestions.Priority1.Problem,
		"action":      n.Suggestions.Priority1.Action,
		"expectation": n.Suggestions.Priority1.Expectation,
		"diet":        n.Suggestions.Diet,
		"conclusion":  n.Suggestions.Conclusion,
	} {
		if l := runeLen(text); l < AdviceBudget.Min || l > AdviceBudget.Max {
			t.Errorf("suggestion %s %d runes, want %d..%d", name, l, AdviceBudget.Min, AdviceBudget.Max)
		}
	}
}

func TestMissingMetricGetsSentinel(t *testing.T) {
	g := NewGenerator(nil, nil)
	n := g.Daily(context.Background(), fullSummary())
	if n.Metrics[models.MetricRestingHR] != "暂无数据" {
		t.Errorf("missing metric narrative = %q", n.Metrics[models.MetricRestingHR])
	}
}

func TestNoSleepNarrative(t *testing.T) {
	s := fullSummary()
	s.Sleep = nil
	g := NewGenerator(nil, nil)
	n := g.Daily(context.Background(), s)
	if !strings.Contains(n.Sleep, "未检测到有效睡眠数据") {
		t.Errorf("sleep narrative = %q", n.Sleep)
	}
}

func TestNoWorkoutNarrative(t *testing.T) {
	s := fullSummary()
	s.Workouts = nil
	g := NewGenerator(nil, nil)
	n := g.Daily(context.Background(), s)
	if !strings.Contains(n.Workout, "今日未记录到运动数据") {
		t.Errorf("workout narrative = %q", n.Workout)
	}
}

func TestNarrativeDescribesOnlyPresentValues(t *testing.T) {
	g := NewGenerator(nil, nil)
	n := g.Daily(context.Background(), fullSummary())
	if !strings.Contains(n.Metrics[models.MetricHRV], "52.8") {
		t.Errorf("hrv narrative lacks the measured value: %q", n.Metrics[models.MetricHRV])
	}
	if !strings.Contains(n.Metrics[models.MetricSteps], "8200") {
		t.Errorf("steps narrative lacks the measured value: %q", n.Metrics[models.MetricSteps])
	}
}

type fakeBackend struct {
	reply string
	err   error
	calls int
}

func (f *fakeBackend) Generate(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestLLMFailureFallsBack(t *testing.T) {
	backend := &fakeBackend{err: errors.New("network down")}
	g := NewGenerator(backend, nil)
	n := g.Daily(context.Background(), fullSummary())
	if backend.calls != 1 {
		t.Errorf("backend calls = %d, want 1", backend.calls)
	}
	if n.Suggestions.Priority1.Title != "关注睡眠质量和时长" {
		t.Errorf("fallback suggestion title = %q", n.Suggestions.Priority1.Title)
	}
}

func TestLLMGarbageFallsBack(t *testing.T) {
	backend := &fakeBackend{reply: "抱歉，我无法帮助。"}
	g := NewGenerator(backend, nil)
	n := g.Daily(context.Background(), fullSummary())
	if n.Suggestions.Priority1.Title != "关注睡眠质量和时长" {
		t.Errorf("fallback suggestion title = %q", n.Suggestions.Priority1.Title)
	}
}

func TestLLMSuggestionsAdopted(t *testing.T) {
	long := strings.Repeat("个性化建议内容。", 20)
	backend := &fakeBackend{reply: `{
		"priority1": {"title": "改善恢复", "problem": "` + long + `", "action": "` + long + `", "expectation": "` + long + `"},
		"priority2": {"title": "保持运动", "problem": "` + long + `", "action": "` + long + `", "expectation": "` + long + `"},
		"diet": "` + long + `", "routine": "` + long + `",
		"advantages": "` + long + `", "risks": "` + long + `",
		"conclusion": "` + long + `", "plan": "` + long + `"
	}`}
	g := NewGenerator(backend, nil)
	n := g.Daily(context.Background(), fullSummary())
	if n.Suggestions.Priority1.Title != "改善恢复" {
		t.Errorf("title = %q, want llm title", n.Suggestions.Priority1.Title)
	}
	if l := runeLen(n.Suggestions.Diet); l > AdviceBudget.Max {
		t.Errorf("llm diet text %d runes exceeds budget", l)
	}
}

// Titles share the advice cap but are never padded: a short heading stays
// short and a runaway heading is truncated.
func TestSuggestionTitleBudget(t *testing.T) {
	long := strings.Repeat("标题过长", 100)
	s := &Suggestions{
		Priority1: Recommendation{Title: "改善恢复"},
		Priority2: Recommendation{Title: long},
	}
	fitSuggestions(s)
	if s.Priority1.Title != "改善恢复" {
		t.Errorf("short title changed: %q", s.Priority1.Title)
	}
	if l := runeLen(s.Priority2.Title); l > AdviceBudget.Max {
		t.Errorf("long title %d runes exceeds cap %d", l, AdviceBudget.Max)
	}
}

func TestPeriodNarrativeBudgets(t *testing.T) {
	p := &models.PeriodSummary{
		StartDate: "2026-02-12", EndDate: "2026-02-18",
		ExpectedDays: 7, ObservedDays: 5,
		Aggregates: map[models.CanonicalMetric]models.PeriodAggregate{
			models.MetricHRV:   {Mean: 49.2, ObservedDays: 5},
			models.MetricSteps: {Mean: 7400, Total: 37000, ObservedDays: 5},
		},
		WorkoutDays: 2, SleepDays: 5, AvgSleep: 6.8,
	}
	g := NewGenerator(nil, nil)
	for _, monthly := range []bool{false, true} {
		n := g.Period(context.Background(), p, monthly)
		for name, text := range map[string]string{
			"hrv": n.HRVTrend, "activity": n.ActivityTrend,
			"sleep": n.SleepTrend, "workout": n.WorkoutTrend,
		} {
			if l := runeLen(text); l < TrendBudget.Min || l > TrendBudget.Max {
				t.Errorf("monthly=%v %s trend %d runes, want %d..%d", monthly, name, l, TrendBudget.Min, TrendBudget.Max)
			}
		}
	}
	weekly := g.Period(context.Background(), p, false)
	if weekly.Habits != "" {
		t.Error("weekly narrative must not carry the habits slot")
	}
	monthly := g.Period(context.Background(), p, true)
	if monthly.Habits == "" {
		t.Error("monthly narrative must carry the habits slot")
	}
}
