package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claude/pulsereport/internal/models"
	"github.com/claude/pulsereport/internal/narrative"
)

// Sentinel strings for absent data. Numbers render as "--"; labels get a
// Chinese marker; classes fall back to the neutral rating.
const (
	noValue       = "--"
	noDataLabel   = "无数据"
	notRatedLabel = "暂无"
	neutralRating = "rating-average"
)

// DailyBinding builds the complete placeholder mapping for a daily report.
func DailyBinding(s *models.DailySummary, n *narrative.DailyNarrative, now time.Time) Binding {
	zone, _ := now.Zone()
	b := Binding{
		"DATE":            s.Date,
		"HEADER_SUBTITLE": fmt.Sprintf("%s · Apple Health | %s", s.Date, zone),
		"FOOTER_DATE":     now.Format("2006-01-02 15:04"),
	}

	bindScores(b, s)
	bindMetrics(b, s, n)
	bindSleep(b, s, n)
	bindWorkout(b, s, n)
	bindSuggestions(b, n.Suggestions, "数据洞察总结", "饮食与作息优化")
	b["AI4_PLAN"] = nl2br(n.Suggestions.Plan)

	hrv := s.Metric(models.MetricHRV)
	steps := s.Metric(models.MetricSteps)
	sources := fmt.Sprintf("Apple Health (HRV:%d点,步数:%d点)", hrv.PointCount, steps.PointCount)
	if s.Dropped > 0 {
		sources += fmt.Sprintf("，丢弃%d条异常记录", s.Dropped)
	}
	b["FOOTER_DATA_SOURCES"] = sources
	return b
}

func bindScores(b Binding, s *models.DailySummary) {
	b["SCORE_RECOVERY"] = strconv.Itoa(s.Scores.Recovery)
	b["SCORE_SLEEP"] = strconv.Itoa(s.Scores.Sleep)
	b["SCORE_EXERCISE"] = strconv.Itoa(s.Scores.Exercise)

	b["BADGE_RECOVERY_CLASS"], b["BADGE_RECOVERY_TEXT"] = scoreBadge(s.Scores.Recovery)
	b["BADGE_EXERCISE_CLASS"], b["BADGE_EXERCISE_TEXT"] = scoreBadge(s.Scores.Exercise)

	// Sleep uses its own bands: a zero score means no data, not a bad night.
	switch {
	case s.Scores.Sleep >= 80:
		b["BADGE_SLEEP_CLASS"], b["BADGE_SLEEP_TEXT"] = "badge-excellent", "优秀"
	case s.Scores.Sleep >= 60:
		b["BADGE_SLEEP_CLASS"], b["BADGE_SLEEP_TEXT"] = "badge-good", "良好"
	case s.Scores.Sleep > 0:
		b["BADGE_SLEEP_CLASS"], b["BADGE_SLEEP_TEXT"] = "badge-poor", "需改善"
	default:
		b["BADGE_SLEEP_CLASS"], b["BADGE_SLEEP_TEXT"] = "badge-average", noDataLabel
	}
}

func scoreBadge(score int) (class, text string) {
	switch {
	case score >= 80:
		return "badge-excellent", "优秀"
	case score >= 60:
		return "badge-good", "良好"
	default:
		return "badge-average", "一般"
	}
}

// reportMetrics fixes which canonical metric fills each METRIC<n> slot.
var reportMetrics = []models.CanonicalMetric{
	models.MetricHRV,
	models.MetricRestingHR,
	models.MetricSteps,
	models.MetricDistanceWalkRun,
	models.MetricActiveEnergy,
	models.MetricFlightsClimbed,
	models.MetricStandTime,
	models.MetricSpO2,
	models.MetricBasalEnergy,
	models.MetricRespiratoryRate,
}

func bindMetrics(b Binding, s *models.DailySummary, n *narrative.DailyNarrative) {
	for i, metric := range reportMetrics {
		slot := fmt.Sprintf("METRIC%d", i+1)
		mv := s.Metric(metric)
		if mv.Value == nil {
			b[slot+"_VALUE"] = noValue
			b[slot+"_RATING"] = notRatedLabel
			b[slot+"_RATING_CLASS"] = neutralRating
			b[slot+"_ANALYSIS"] = "暂无数据"
			continue
		}
		v := *mv.Value
		b[slot+"_VALUE"] = metricValue(metric, v, mv.PointCount)
		b[slot+"_RATING_CLASS"], b[slot+"_RATING"] = metricRating(metric, v)
		b[slot+"_ANALYSIS"] = n.Metrics[metric]
	}
}

func metricValue(metric models.CanonicalMetric, v float64, points int) string {
	switch metric {
	case models.MetricHRV:
		return fmt.Sprintf("%.1f ms<br><small>%d个数据点</small>", v, points)
	case models.MetricRestingHR:
		return fmt.Sprintf("%.0f bpm", v)
	case models.MetricSteps:
		return fmt.Sprintf("%s 步<br><small>%d个数据点</small>", comma(v), points)
	case models.MetricDistanceWalkRun:
		return fmt.Sprintf("%.2f km", v)
	case models.MetricActiveEnergy, models.MetricBasalEnergy:
		return fmt.Sprintf("%.0f kcal<br><small>(%.0fkJ)</small>", v, v*4.184)
	case models.MetricFlightsClimbed:
		return fmt.Sprintf("%.0f 层", v)
	case models.MetricStandTime:
		return fmt.Sprintf("%.0f 分钟", v)
	case models.MetricSpO2:
		return fmt.Sprintf("%.1f%%<br><small>%d个数据点</small>", v, points)
	case models.MetricRespiratoryRate:
		return fmt.Sprintf("%.1f 次/分", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

func metricRating(metric models.CanonicalMetric, v float64) (class, text string) {
	switch metric {
	case models.MetricHRV:
		switch {
		case v >= 55:
			return "rating-excellent", "优秀"
		case v >= 45:
			return "rating-good", "良好"
		default:
			return "rating-poor", "需改善"
		}
	case models.MetricRestingHR:
		if v < 60 {
			return "rating-excellent", "优秀"
		}
		return "rating-good", "良好"
	case models.MetricSteps:
		switch {
		case v >= 10000:
			return "rating-excellent", "优秀"
		case v >= 7000:
			return "rating-good", "良好"
		default:
			return neutralRating, "一般"
		}
	case models.MetricDistanceWalkRun:
		if v >= 5 {
			return "rating-good", "良好"
		}
		return neutralRating, "一般"
	case models.MetricActiveEnergy:
		if v >= 400 {
			return "rating-good", "良好"
		}
		return neutralRating, "一般"
	case models.MetricFlightsClimbed:
		if v >= 10 {
			return "rating-good", "良好"
		}
		return neutralRating, "一般"
	case models.MetricStandTime:
		if v >= 120 {
			return "rating-good", "良好"
		}
		return neutralRating, "一般"
	case models.MetricSpO2:
		if v >= 95 {
			return "rating-excellent", "优秀"
		}
		return "rating-good", "良好"
	case models.MetricBasalEnergy, models.MetricRespiratoryRate:
		return "rating-good", "正常"
	default:
		return neutralRating, "一般"
	}
}

func bindSleep(b Binding, s *models.DailySummary, n *narrative.DailyNarrative) {
	b["SLEEP_ANALYSIS_TEXT"] = n.Sleep

	ep := s.Sleep
	if ep == nil || ep.TotalHours == 0 {
		b["SLEEP_STATUS"] = noDataLabel
		b["SLEEP_ALERT_BG"] = "#fee2e2"
		b["SLEEP_ALERT_BORDER"] = "#dc2626"
		b["SLEEP_ALERT_COLOR"] = "#991b1b"
		b["SLEEP_ALERT_SUBCOLOR"] = "#b91c1c"
		b["SLEEP_ALERT_TITLE"] = "⚠️ 未检测到睡眠数据"
		b["SLEEP_ALERT_DETAIL"] = "请确保Apple Watch在睡眠期间佩戴并开启睡眠追踪。"
		for _, slot := range []string{"SLEEP_TOTAL", "SLEEP_DEEP", "SLEEP_CORE", "SLEEP_REM", "SLEEP_AWAKE"} {
			b[slot] = noValue
		}
		for _, slot := range []string{"SLEEP_DEEP_PCT", "SLEEP_CORE_PCT", "SLEEP_REM_PCT", "SLEEP_AWAKE_PCT"} {
			b[slot] = "0"
		}
		b["SLEEP_ANALYSIS_BORDER"] = "#dc2626"
		return
	}

	b["SLEEP_STATUS"] = "数据正常"
	b["SLEEP_ALERT_BG"] = "#dcfce7"
	b["SLEEP_ALERT_BORDER"] = "#22c55e"
	b["SLEEP_ALERT_COLOR"] = "#166534"
	b["SLEEP_ALERT_SUBCOLOR"] = "#15803d"
	b["SLEEP_ALERT_TITLE"] = "✅ 睡眠数据完整"
	detail := fmt.Sprintf("总睡眠时长%.1f小时。", ep.TotalHours)
	if len(ep.SourceFiles) > 0 {
		detail += "数据来源: " + strings.Join(ep.SourceFiles, ", ")
	}
	b["SLEEP_ALERT_DETAIL"] = detail

	b["SLEEP_TOTAL"] = fmt.Sprintf("%.1f", ep.TotalHours)
	b["SLEEP_DEEP"] = fmt.Sprintf("%.1f", ep.DeepHours)
	b["SLEEP_CORE"] = fmt.Sprintf("%.1f", ep.CoreHours)
	b["SLEEP_REM"] = fmt.Sprintf("%.1f", ep.RemHours)
	b["SLEEP_AWAKE"] = fmt.Sprintf("%.1f", ep.AwakeHours)

	// Stage percentages only when stage data exists; an all-zero night must
	// not divide zero by zero or pretend a uniform split.
	if ep.HasStages() && ep.StageSum() > 0 {
		sum := ep.StageSum()
		b["SLEEP_DEEP_PCT"] = strconv.Itoa(int(ep.DeepHours / sum * 100))
		b["SLEEP_CORE_PCT"] = strconv.Itoa(int(ep.CoreHours / sum * 100))
		b["SLEEP_REM_PCT"] = strconv.Itoa(int(ep.RemHours / sum * 100))
		b["SLEEP_AWAKE_PCT"] = strconv.Itoa(int(ep.AwakeHours / sum * 100))
	} else {
		for _, slot := range []string{"SLEEP_DEEP_PCT", "SLEEP_CORE_PCT", "SLEEP_REM_PCT", "SLEEP_AWAKE_PCT"} {
			b[slot] = "0"
		}
	}
	b["SLEEP_ANALYSIS_BORDER"] = "#667eea"
}

func bindWorkout(b Binding, s *models.DailySummary, n *narrative.DailyNarrative) {
	b["WORKOUT_ANALYSIS"] = n.Workout

	if !s.HasWorkout() {
		b["WORKOUT_NAME"] = "无运动记录"
		b["WORKOUT_TIME"] = noValue
		b["WORKOUT_DURATION"] = noValue
		b["WORKOUT_ENERGY"] = noValue
		b["WORKOUT_AVG_HR"] = noValue
		b["WORKOUT_MAX_HR"] = noValue
		b["WORKOUT_HR_CHART"] = noChartFragment
		return
	}

	w := s.Workouts[0]
	b["WORKOUT_NAME"] = w.Name
	b["WORKOUT_TIME"] = w.Start.Format("15:04")
	b["WORKOUT_DURATION"] = fmt.Sprintf("%.0f", w.DurationMinutes)
	b["WORKOUT_ENERGY"] = optionalInt(w.EnergyKcal, "未记录")
	b["WORKOUT_AVG_HR"] = optionalInt(w.AvgHR, noValue)
	b["WORKOUT_MAX_HR"] = optionalInt(w.MaxHR, noValue)
	b["WORKOUT_HR_CHART"] = HRChartFragment(w.HRTimeline)
}

func bindSuggestions(b Binding, sug narrative.Suggestions, ai4Title, ai3Title string) {
	b["AI1_TITLE"] = sug.Priority1.Title
	b["AI1_PROBLEM"] = sug.Priority1.Problem
	b["AI1_ACTION"] = nl2br(sug.Priority1.Action)
	b["AI1_EXPECTATION"] = sug.Priority1.Expectation

	b["AI2_TITLE"] = sug.Priority2.Title
	b["AI2_PROBLEM"] = sug.Priority2.Problem
	b["AI2_ACTION"] = nl2br(sug.Priority2.Action)
	b["AI2_EXPECTATION"] = sug.Priority2.Expectation

	b["AI3_TITLE"] = ai3Title
	b["AI3_DIET"] = sug.Diet
	b["AI3_ROUTINE"] = sug.Routine

	b["AI4_TITLE"] = ai4Title
	b["AI4_ADVANTAGES"] = sug.Advantages
	b["AI4_RISKS"] = sug.Risks
	b["AI4_CONCLUSION"] = sug.Conclusion
}

func optionalInt(v *float64, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmt.Sprintf("%.0f", *v)
}

func nl2br(s string) string {
	return strings.ReplaceAll(s, "\n", "<br>")
}

// comma formats an integer quantity with thousands separators.
func comma(v float64) string {
	n := int64(v)
	if n < 0 {
		return "-" + comma(-v)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}
