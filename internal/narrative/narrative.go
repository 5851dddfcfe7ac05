// Package narrative produces the commentary text bound into reports. A
// deterministic generator is the baseline; an optional LLM backend layers on
// top and silently falls back on any failure.
package narrative

import (
	"context"
	"log/slog"

	"github.com/claude/pulsereport/internal/models"
)

// Backend is the shared signature of narrative backends. A backend returns
// the generated text, or an error to trigger fallback; it never blocks past
// its configured deadline.
type Backend interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Budget bounds a narrative slot in runes. Under-length text is padded with
// a generic filler; over-length text is cut with an ellipsis.
type Budget struct {
	Min, Max int
}

var (
	MetricBudget  = Budget{Min: 100, Max: 150}
	SleepBudget   = Budget{Min: 100, Max: 200}
	WorkoutBudget = Budget{Min: 100, Max: 200}
	AdviceBudget  = Budget{Min: 100, Max: 300}
	TrendBudget   = Budget{Min: 200, Max: 250}
)

const filler = "建议继续保持良好的健康习惯，定期监测指标变化趋势，及时调整生活方式以达到最佳健康状态。"

// Fit enforces a slot budget on text, counting runes rather than bytes so
// CJK text is measured the way the templates expect.
func Fit(text string, b Budget) string {
	runes := []rune(text)
	for len(runes) < b.Min {
		runes = append(runes, []rune(filler)...)
	}
	if len(runes) > b.Max {
		runes = append(runes[:b.Max-3], '.', '.', '.')
	}
	return string(runes)
}

// Recommendation is one prioritized advice group.
type Recommendation struct {
	Title       string
	Problem     string
	Action      string
	Expectation string
}

// Suggestions is the four-part advice block of a daily report.
type Suggestions struct {
	Priority1 Recommendation
	Priority2 Recommendation

	Diet    string
	Routine string

	Advantages string
	Risks      string
	Conclusion string
	Plan       string
}

// DailyNarrative holds every daily text slot keyed for the composer.
type DailyNarrative struct {
	Metrics     map[models.CanonicalMetric]string
	Sleep       string
	Workout     string
	Suggestions Suggestions
}

// PeriodNarrative holds the trend analyses and advice of a period report.
type PeriodNarrative struct {
	HRVTrend      string
	ActivityTrend string
	SleepTrend    string
	WorkoutTrend  string
	Suggestions   Suggestions
	Habits        string // monthly only
}

// Generator builds narratives. llm may be nil; the deterministic texts are
// always computed first so fallback costs nothing.
type Generator struct {
	llm    Backend
	logger *slog.Logger
}

func NewGenerator(llm Backend, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: llm, logger: logger}
}

// Daily produces the full slot mapping for one daily summary.
func (g *Generator) Daily(ctx context.Context, s *models.DailySummary) *DailyNarrative {
	n := &DailyNarrative{
		Metrics:     metricAnalyses(s),
		Sleep:       Fit(sleepAnalysis(s.Sleep), SleepBudget),
		Workout:     Fit(workoutAnalysis(s), WorkoutBudget),
		Suggestions: dailySuggestions(s),
	}
	fitSuggestions(&n.Suggestions)

	if g.llm != nil {
		if sug, err := g.llmSuggestions(ctx, s); err != nil {
			g.logger.Warn("llm narrative unavailable, using deterministic texts", "error", err)
		} else {
			n.Suggestions = *sug
			fitSuggestions(&n.Suggestions)
		}
	}
	return n
}

// Period produces the trend slots for a weekly or monthly summary.
func (g *Generator) Period(ctx context.Context, p *models.PeriodSummary, monthly bool) *PeriodNarrative {
	n := periodTexts(p, monthly)
	n.HRVTrend = Fit(n.HRVTrend, TrendBudget)
	n.ActivityTrend = Fit(n.ActivityTrend, TrendBudget)
	n.SleepTrend = Fit(n.SleepTrend, TrendBudget)
	n.WorkoutTrend = Fit(n.WorkoutTrend, TrendBudget)
	fitSuggestions(&n.Suggestions)
	if monthly {
		n.Habits = Fit(n.Habits, AdviceBudget)
	}
	return n
}

func fitSuggestions(s *Suggestions) {
	// Titles are card headings: they share the advice cap but are never
	// padded up to the minimum.
	titleBudget := Budget{Max: AdviceBudget.Max}
	for _, r := range []*Recommendation{&s.Priority1, &s.Priority2} {
		r.Title = Fit(r.Title, titleBudget)
		r.Problem = Fit(r.Problem, AdviceBudget)
		r.Action = Fit(r.Action, AdviceBudget)
		r.Expectation = Fit(r.Expectation, AdviceBudget)
	}
	s.Diet = Fit(s.Diet, AdviceBudget)
	s.Routine = Fit(s.Routine, AdviceBudget)
	s.Advantages = Fit(s.Advantages, AdviceBudget)
	s.Risks = Fit(s.Risks, AdviceBudget)
	s.Conclusion = Fit(s.Conclusion, AdviceBudget)
	s.Plan = Fit(s.Plan, AdviceBudget)
}
