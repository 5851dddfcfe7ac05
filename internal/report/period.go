package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claude/pulsereport/internal/aggregate"
	"github.com/claude/pulsereport/internal/models"
	"github.com/claude/pulsereport/internal/narrative"
)

var cnWeekdays = [...]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// WeeklyBinding builds the placeholder mapping for a weekly report.
func WeeklyBinding(p *models.PeriodSummary, n *narrative.PeriodNarrative, now time.Time) Binding {
	b := Binding{
		"START_DATE":   p.StartDate,
		"END_DATE":     p.EndDate,
		"GENERATED_AT": now.Format("2006-01-02 15:04"),
	}

	bindDataStatus(b, p, fmt.Sprintf("部分数据 (%d/%d天)", p.ObservedDays, p.ExpectedDays))

	hrv := p.Aggregates[models.MetricHRV]
	steps := p.Aggregates[models.MetricSteps]
	energy := p.Aggregates[models.MetricActiveEnergy]

	b["AVG_HRV"] = periodMean(hrv, "%.1f")
	b["AVG_STEPS"] = periodMeanComma(steps)
	b["TOTAL_STEPS"] = periodTotalComma(steps)
	b["TOTAL_ENERGY"] = periodTotalComma(energy)
	b["AVG_SLEEP"] = fmt.Sprintf("%.1f", p.AvgSleep)
	b["WORKOUT_DAYS"] = strconv.Itoa(p.WorkoutDays)
	b["REST_DAYS"] = strconv.Itoa(p.ObservedDays - p.WorkoutDays)

	bindTrendBadges(b, p)

	b["DAILY_ROWS"] = weeklyDailyRows(p)
	b["WEEKLY_COMPARISON_ROWS"] = `<tr><td colspan="9" style="text-align:center;color:#64748b;">详见每日明细表</td></tr>`

	b["HRV_TREND_ANALYSIS"] = n.HRVTrend
	b["ACTIVITY_TREND_ANALYSIS"] = n.ActivityTrend
	b["SLEEP_TREND_ANALYSIS"] = n.SleepTrend
	b["WORKOUT_PATTERN_ANALYSIS"] = n.WorkoutTrend

	bindSuggestions(b, n.Suggestions, "本周数据洞察", "饮食与作息优化")
	b["AI4_PLAN"] = nl2br(n.Suggestions.Plan)
	return b
}

// MonthlyBinding builds the placeholder mapping for a monthly report.
func MonthlyBinding(p *models.PeriodSummary, n *narrative.PeriodNarrative, now time.Time) Binding {
	start, _ := time.Parse("2006-01-02", p.StartDate)
	b := Binding{
		"YEAR":         strconv.Itoa(start.Year()),
		"MONTH":        strconv.Itoa(int(start.Month())),
		"GENERATED_AT": now.Format("2006-01-02 15:04"),
	}

	bindDataStatus(b, p, fmt.Sprintf("数据预览版 (%d/%d天)", p.ObservedDays, p.ExpectedDays))
	if p.DataStatus == models.StatusFull {
		b["DATA_PROGRESS"] = "✅ 数据完整"
	} else {
		b["DATA_PROGRESS"] = fmt.Sprintf("⚠️ 数据预览版：%d/%d 天", p.ObservedDays, p.ExpectedDays)
	}

	hrv := p.Aggregates[models.MetricHRV]
	steps := p.Aggregates[models.MetricSteps]
	energy := p.Aggregates[models.MetricActiveEnergy]

	b["AVG_HRV"] = periodMean(hrv, "%.1f")
	b["AVG_STEPS"] = periodMeanComma(steps)
	b["AVG_SLEEP"] = fmt.Sprintf("%.1f", p.AvgSleep)
	b["WORKOUT_DAYS"] = strconv.Itoa(p.WorkoutDays)
	b["DATA_COUNT"] = strconv.Itoa(p.ObservedDays)
	b["TOTAL_STEPS"] = periodTotalComma(steps)
	b["TOTAL_ENERGY"] = periodTotalComma(energy)
	if p.BestSleepDay == "" {
		b["BEST_SLEEP_DAY"] = noValue
	} else {
		b["BEST_SLEEP_DAY"] = p.BestSleepDay
	}

	bindProjections(b, p, steps, energy)

	b["DAILY_ROWS"] = monthlyDailyRows(p)
	b["GOAL_TRACKING_ROWS"] = goalTrackingRows(p, steps)
	b["GOAL_ANALYSIS"] = "目标基于日均10,000步与每月12个运动日设定，达成率按当月已观测天数折算。持续记录数据可提升评估准确度。"

	b["HRV_TREND_ANALYSIS"] = n.HRVTrend
	b["ACTIVITY_PATTERN_ANALYSIS"] = n.ActivityTrend
	b["SLEEP_QUALITY_ANALYSIS"] = n.SleepTrend
	b["WORKOUT_RECOVERY_BALANCE"] = n.WorkoutTrend

	bindSuggestions(b, n.Suggestions, "本月数据洞察", "饮食与作息优化")
	b["AI3_HABITS"] = n.Habits
	b["AI4_NEXT_MONTH_GOALS"] = nl2br(n.Suggestions.Plan)
	return b
}

func bindDataStatus(b Binding, p *models.PeriodSummary, partialLabel string) {
	switch p.DataStatus {
	case models.StatusFull:
		b["DATA_STATUS"] = "数据完整"
		b["ALERT_CLASS"] = "complete"
		b["DATA_NOTICE"] = ""
	case models.StatusPreview:
		b["DATA_STATUS"] = partialLabel
		b["ALERT_CLASS"] = ""
		b["DATA_NOTICE"] = fmt.Sprintf("当前周期仅有 %d/%d 天数据，统计结果供参考。", p.ObservedDays, p.ExpectedDays)
	default:
		b["DATA_STATUS"] = partialLabel
		b["ALERT_CLASS"] = ""
		b["DATA_NOTICE"] = fmt.Sprintf("当前周期仅有 %d/%d 天数据，数据量不足，趋势结论可能失真。", p.ObservedDays, p.ExpectedDays)
	}
	if _, ok := b["DATA_PROGRESS"]; !ok {
		b["DATA_PROGRESS"] = fmt.Sprintf("%d/%d 天", p.ObservedDays, p.ExpectedDays)
	}
}

// bindTrendBadges derives the weekly trend labels from the data itself.
func bindTrendBadges(b Binding, p *models.PeriodSummary) {
	b["HRV_TREND_CLASS"], b["HRV_TREND"] = "badge-good", "稳定"

	steps := p.Aggregates[models.MetricSteps]
	if steps.ObservedDays > 0 && steps.Mean >= 10000 {
		b["STEPS_TREND_CLASS"], b["STEPS_TREND"] = "badge-good", "达标"
	} else {
		b["STEPS_TREND_CLASS"], b["STEPS_TREND"] = "badge-average", "需提升"
	}

	if p.AvgSleep >= 7 {
		b["SLEEP_TREND_CLASS"], b["SLEEP_TREND"] = "badge-good", "良好"
	} else {
		b["SLEEP_TREND_CLASS"], b["SLEEP_TREND"] = "badge-average", "需提升"
	}
}

// bindProjections fills the month-end projection slots. Projections are
// suppressed entirely when the period is partial.
func bindProjections(b Binding, p *models.PeriodSummary, steps, energy models.PeriodAggregate) {
	if projected, ok := aggregate.Projection(p, models.MetricSteps); ok {
		b["PROJECTED_STEPS"] = comma(projected)
		b["PROJECTED_STEPS_PERCENT"] = fmt.Sprintf("%.0f", projected/240000*100)
	} else {
		b["PROJECTED_STEPS"] = noValue
		b["PROJECTED_STEPS_PERCENT"] = "0"
	}

	if projected, ok := aggregate.Projection(p, models.MetricActiveEnergy); ok {
		b["PROJECTED_ENERGY"] = comma(projected)
	} else {
		b["PROJECTED_ENERGY"] = noValue
	}

	if p.DataStatus != models.StatusPartial && p.ObservedDays > 0 {
		projected := float64(p.WorkoutDays) * float64(p.ExpectedDays) / float64(p.ObservedDays)
		b["PROJECTED_WORKOUTS"] = fmt.Sprintf("%.0f", projected)
		b["PROJECTED_WORKOUTS_PERCENT"] = fmt.Sprintf("%.0f", projected/12*100)
	} else {
		b["PROJECTED_WORKOUTS"] = noValue
		b["PROJECTED_WORKOUTS_PERCENT"] = "0"
	}
}

func weeklyDailyRows(p *models.PeriodSummary) string {
	var rows strings.Builder
	for i := range p.Days {
		d := &p.Days[i]
		date, _ := time.Parse("2006-01-02", d.Date)
		workout := "-"
		if d.HasWorkout() {
			workout = "✓"
		}
		fmt.Fprintf(&rows,
			"<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td></tr>\n",
			d.Date,
			cnWeekdays[date.Weekday()],
			dayCell(d, models.MetricHRV, "%.1f"),
			dayCellComma(d, models.MetricSteps),
			daySleepCell(d),
			dayCellComma(d, models.MetricActiveEnergy),
			workout,
			d.Scores.Recovery,
		)
	}
	return rows.String()
}

func monthlyDailyRows(p *models.PeriodSummary) string {
	var rows strings.Builder
	for i := range p.Days {
		d := &p.Days[i]
		var notes []string
		if d.HasWorkout() {
			notes = append(notes, "运动")
		}
		if d.SleepHours() == 0 {
			notes = append(notes, "无睡眠")
		}
		note := strings.Join(notes, " ")
		if note == "" {
			note = "-"
		}
		workout := "-"
		if d.HasWorkout() {
			workout = "✓"
		}
		fmt.Fprintf(&rows,
			"<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			d.Date,
			dayCell(d, models.MetricHRV, "%.1f"),
			dayCellComma(d, models.MetricSteps),
			daySleepCell(d),
			dayCellComma(d, models.MetricActiveEnergy),
			workout,
			note,
		)
	}
	return rows.String()
}

func goalTrackingRows(p *models.PeriodSummary, steps models.PeriodAggregate) string {
	stepStatus := "进行中"
	if steps.ObservedDays > 0 && steps.Mean >= 10000 {
		stepStatus = "已达成"
	}
	workoutStatus := "进行中"
	if p.WorkoutDays >= 12 {
		workoutStatus = "已达成"
	}
	return fmt.Sprintf(
		"<tr><td>日均步数</td><td>10,000 步</td><td>%s 步</td><td>%s</td></tr>\n"+
			"<tr><td>运动频率</td><td>12 天/月</td><td>%d 天</td><td>%s</td></tr>\n",
		periodMeanComma(steps), stepStatus, p.WorkoutDays, workoutStatus)
}

func dayCell(d *models.DailySummary, metric models.CanonicalMetric, format string) string {
	v := d.Metric(metric).Value
	if v == nil {
		return noValue
	}
	return fmt.Sprintf(format, *v)
}

func dayCellComma(d *models.DailySummary, metric models.CanonicalMetric) string {
	v := d.Metric(metric).Value
	if v == nil {
		return noValue
	}
	return comma(*v)
}

func daySleepCell(d *models.DailySummary) string {
	if d.SleepHours() == 0 {
		return noValue
	}
	return fmt.Sprintf("%.1fh", d.SleepHours())
}

func periodMean(agg models.PeriodAggregate, format string) string {
	if agg.ObservedDays == 0 {
		return noValue
	}
	return fmt.Sprintf(format, agg.Mean)
}

func periodMeanComma(agg models.PeriodAggregate) string {
	if agg.ObservedDays == 0 {
		return noValue
	}
	return comma(agg.Mean)
}

func periodTotalComma(agg models.PeriodAggregate) string {
	if agg.ObservedDays == 0 {
		return noValue
	}
	return comma(agg.Total)
}
