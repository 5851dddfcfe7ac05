package narrative

import (
	"fmt"

	"github.com/claude/pulsereport/internal/models"
)

// Deterministic text generation. Every function here is a pure function of
// the summary: same input, same report, no network.

func metricAnalyses(s *models.DailySummary) map[models.CanonicalMetric]string {
	out := make(map[models.CanonicalMetric]string, len(models.CanonicalMetrics()))
	for _, m := range models.CanonicalMetrics() {
		mv := s.Metric(m)
		if mv.Value == nil {
			out[m] = "暂无数据"
			continue
		}
		out[m] = Fit(metricAnalysis(m, *mv.Value), MetricBudget)
	}
	return out
}

func metricAnalysis(m models.CanonicalMetric, v float64) string {
	switch m {
	case models.MetricHRV:
		level := "一般"
		capacity := "有待提升"
		if v > 50 {
			level = "良好"
			capacity = "良好"
		}
		return fmt.Sprintf("心率变异性%.1fms反映自主神经系统功能状态。当前数值处于%s水平，表明身体恢复能力和压力调节功能%s。HRV受睡眠质量、运动强度和情绪压力影响，建议保持规律作息、适度运动和良好心态，有助于维持健康的自主神经平衡。", v, level, capacity)
	case models.MetricRestingHR:
		level := "一般"
		if v < 60 {
			level = "优秀"
		} else if v < 70 {
			level = "良好"
		}
		return fmt.Sprintf("静息心率%.0fbpm是评估心血管健康的重要指标。当前数值处于%s范围，反映心脏泵血效率和基础代谢水平。规律的有氧运动可以帮助降低静息心率，建议每周保持150分钟中等强度运动，同时注意监测心率变化趋势。", v, level)
	case models.MetricSteps:
		if v >= 10000 {
			return fmt.Sprintf("今日步数%.0f步。已达到每日推荐目标，说明日常活动量充足，有助于维持健康体重和心血管功能。", v)
		}
		return fmt.Sprintf("今日步数%.0f步。距离10000步推荐目标还有%.0f步差距，建议增加日常步行活动，如选择楼梯代替电梯、饭后散步、工作间隙起身活动等，逐步提升基础活动量。", v, 10000-v)
	case models.MetricDistanceWalkRun:
		base := fmt.Sprintf("今日行走距离%.2f公里，相当于约%.0f个标准足球场的距离。", v, v/0.7)
		if v >= 5 {
			return base + "活动量充足，有助于保持下肢肌肉力量和关节灵活性，同时促进血液循环和新陈代谢。"
		}
		return base + "活动量有待提升，建议利用碎片时间增加步行，如通勤步行、午休散步等，积少成多达到健康目标。"
	case models.MetricActiveEnergy:
		base := fmt.Sprintf("今日活动消耗%.0f千卡，相当于%.1f碗米饭的热量。", v, v/200)
		if v >= 400 {
			return base + "能量消耗充足，有助于维持能量平衡和健康体重，同时提升心肺功能和代谢健康。"
		}
		return base + "活动消耗偏低，建议增加有氧运动或力量训练，提升日常能量消耗，有助于改善代谢健康和体重管理。"
	case models.MetricBasalEnergy:
		return fmt.Sprintf("基础代谢消耗%.0f千卡，这是维持生命活动所需的最低能量消耗，占总能量消耗的60-70%%。基础代谢率受年龄、性别、肌肉量和激素水平影响，规律的力量训练可以增加肌肉量，从而提升基础代谢率，有助于长期体重管理。", v)
	case models.MetricFlightsClimbed:
		base := fmt.Sprintf("今日爬楼%.0f层，相当于攀登%.0f米高度。爬楼是优秀的下肢力量训练和心肺功能锻炼方式，可以强化大腿肌肉和臀部肌群，同时提升心肺耐力。", v, v*3)
		if v >= 10 {
			return base + "运动量良好，继续保持这种主动选择楼梯的习惯。"
		}
		return base + "建议在日常中多选择楼梯而非电梯，既节省时间又有益健康。"
	case models.MetricStandTime:
		base := fmt.Sprintf("今日累计站立%.0f分钟，相当于%.1f小时。长时间久坐会增加心血管疾病风险，建议每小时站立活动5-10分钟，促进血液循环。", v, v/60)
		if v >= 120 {
			return base + "站立时间充足，有助于改善久坐带来的健康风险。"
		}
		return base + "站立时间不足，建议设置定时提醒，工作间隙起身活动，或使用站立式办公桌。"
	case models.MetricSpO2:
		if v >= 95 {
			return fmt.Sprintf("血氧饱和度%.1f%%处于正常范围。血氧水平反映肺部气体交换和血液携氧能力，是评估呼吸功能的重要指标。当前数值良好，说明呼吸功能正常。", v)
		}
		return fmt.Sprintf("血氧饱和度%.1f%%处于需关注范围。血氧水平反映肺部气体交换和血液携氧能力，是评估呼吸功能的重要指标。当前数值偏低，建议关注呼吸健康，如有持续异常建议咨询医生。", v)
	case models.MetricRespiratoryRate:
		base := fmt.Sprintf("呼吸率%.1f次/分钟处于正常成人静息范围（12-20次/分钟）。呼吸率受自主神经系统调节，与压力水平、情绪状态和呼吸模式相关。", v)
		if v >= 12 && v <= 20 {
			return base + "当前数值正常，呼吸节律平稳。"
		}
		return base + "建议关注呼吸模式，尝试深呼吸练习有助于放松身心。"
	default:
		return fmt.Sprintf("当前数值%.1f。建议保持健康生活方式，规律作息，均衡饮食，适度运动。", v)
	}
}

func sleepAnalysis(ep *models.SleepEpisode) string {
	if ep == nil || ep.TotalHours == 0 {
		return "未检测到有效睡眠数据。建议检查Apple Watch睡眠追踪设置，确保就寝时正确佩戴设备，并保持规律的作息时间。充足睡眠对身体恢复和健康至关重要。"
	}
	total := ep.TotalHours
	if ep.HasStages() {
		text := fmt.Sprintf("睡眠总时长%.1f小时，其中深睡%.1f小时，核心睡眠%.1f小时，REM睡眠%.1f小时。", total, ep.DeepHours, ep.CoreHours, ep.RemHours)
		switch {
		case total >= 7:
			return text + "睡眠时长充足，有助于身体恢复和记忆巩固。建议保持规律作息，继续维护良好的睡眠习惯。"
		case total >= 6:
			return text + "睡眠时长基本达标，但仍有提升空间。建议提前就寝时间，确保每晚7-8小时充足睡眠。"
		default:
			return text + "睡眠时长不足，可能影响日间精力和恢复质量。建议优先改善睡眠，必要时调整日程安排。"
		}
	}
	text := fmt.Sprintf("睡眠总时长%.1f小时。", total)
	switch {
	case total >= 7:
		return text + "睡眠时长充足，有助于身体恢复。建议保持规律作息，继续维护良好的睡眠习惯，确保高质量的睡眠结构。"
	case total >= 6:
		return text + "睡眠时长基本达标。建议关注睡眠质量，确保深度睡眠和REM睡眠充足，同时尝试延长睡眠时间至7-8小时。"
	default:
		return text + "睡眠时长不足，可能影响日间精力和恢复质量。建议优先改善睡眠，必要时调整日程安排，确保充足休息。"
	}
}

func workoutAnalysis(s *models.DailySummary) string {
	if !s.HasWorkout() {
		return "今日未记录到运动数据。建议每周至少进行150分钟中等强度有氧运动，如快走、慢跑、游泳或骑行。规律运动有助于提升心肺功能、控制体重和改善情绪健康。"
	}
	w := s.Workouts[0]
	text := fmt.Sprintf("今日完成%s运动，持续%.0f分钟。", w.Name, w.DurationMinutes)
	if w.AvgHR != nil {
		text += fmt.Sprintf("平均心率%.0fbpm，", *w.AvgHR)
		switch {
		case *w.AvgHR > 150:
			text += "运动强度较高，有助于提升心肺耐力。"
		case *w.AvgHR > 130:
			text += "运动强度适中，有助于燃烧脂肪和增强体能。"
		default:
			text += "运动强度较低，适合恢复性训练。"
		}
	} else {
		text += "运动时心率数据未完整记录。"
	}
	if w.EnergyKcal != nil {
		text += fmt.Sprintf("消耗能量%.0f千卡，", *w.EnergyKcal)
	}
	return text + "规律运动有助于维持健康体重和心血管健康。建议保持每周3-5次运动频率，循序渐进提升运动能力。"
}

func dailySuggestions(s *models.DailySummary) Suggestions {
	steps := s.Float(models.MetricSteps)
	hrv := s.Float(models.MetricHRV)

	sleepProblem := "当前睡眠数据已达标但仍有优化空间。"
	if s.Sleep == nil || s.Sleep.TotalHours < 6 {
		sleepProblem = "当前睡眠数据显示时长不足。"
	}
	stepsProblem := fmt.Sprintf("今日步数%.0f步，低于推荐的10000步目标，基础活动量需要提升。久坐生活方式会增加心血管疾病和代谢综合征风险。", steps)
	if steps >= 10000 {
		stepsProblem = fmt.Sprintf("今日步数%.0f步，已达到推荐目标，建议保持并尝试挑战更高目标。", steps)
	}

	return Suggestions{
		Priority1: Recommendation{
			Title:       "关注睡眠质量和时长",
			Problem:     sleepProblem + "睡眠是身体恢复和记忆巩固的关键时期，不足的睡眠会影响日间精力、免疫力和长期健康。",
			Action:      "1. 设定固定就寝时间，每晚23:00前入睡\n2. 睡前1小时避免使用电子设备和蓝光\n3. 保持卧室温度18-22°C，营造舒适睡眠环境\n4. 避免睡前3小时摄入咖啡因和大量食物\n5. 建立睡前放松仪式，如阅读或冥想",
			Expectation: "通过上述措施，预计2-3周内可明显改善入睡时间和睡眠质量，日间精力将明显提升，长期有助于降低慢性疾病风险。",
		},
		Priority2: Recommendation{
			Title:       "增加日常活动量",
			Problem:     stepsProblem,
			Action:      "1. 设定每小时站立活动5分钟的提醒\n2. 选择步行或骑行代替短途乘车\n3. 饭后散步15-20分钟，促进消化和血糖稳定\n4. 使用楼梯代替电梯，增加日常运动量\n5. 周末安排户外活动，如徒步或骑行",
			Expectation: "坚持2-4周后，日均步数可稳定提升至8000步以上，心肺功能和代谢健康将得到明显改善。",
		},
		Diet:       "建议采用均衡饮食结构：早餐包含优质蛋白质和复合碳水，如鸡蛋、燕麦和水果；午餐以蔬菜和瘦肉为主，控制精制碳水；晚餐适量，避免高脂高糖。每日饮水2000-2500ml，限制加工食品和含糖饮料。",
		Routine:    "建立规律作息：固定起床和就寝时间，误差不超过30分钟；午休20-30分钟；工作间隙每小时活动5-10分钟；睡前1小时调暗灯光，减少蓝光暴露。",
		Advantages: fmt.Sprintf("HRV指标%.1fms显示自主神经系统平衡良好，身体恢复能力正常。基础代谢率处于健康范围，日常能量消耗合理。", hrv),
		Risks:      "需关注活动量稳定性和睡眠规律性。数据显示步数波动较大，建议建立更稳定的日常活动模式。",
		Conclusion: "整体健康状况良好，主要需关注睡眠质量和日常活动量的稳定性。建议优先改善睡眠习惯，同时逐步增加日常步行量。",
		Plan:       "1. 本周重点：建立固定就寝时间\n2. 下周目标：日均步数提升至8000步\n3. 月度目标：形成稳定的运动和睡眠习惯",
	}
}

func periodTexts(p *models.PeriodSummary, monthly bool) *PeriodNarrative {
	avgHRV := p.Aggregates[models.MetricHRV].Mean
	avgSteps := p.Aggregates[models.MetricSteps].Mean
	avgSleep := p.AvgSleep
	workoutDays := p.WorkoutDays

	scope := "本周"
	if monthly {
		scope = "本月"
	}

	hrvLevel := "一般"
	if avgHRV > 50 {
		hrvLevel = "良好"
	}
	hrv := fmt.Sprintf("%s平均HRV为%.1fms，整体处于%s水平。HRV反映自主神经系统的平衡状态，是评估身体恢复能力的重要指标。数据显示身体恢复功能基本正常，但仍有优化空间。建议关注睡眠质量对HRV的影响，保持规律作息，避免过度疲劳。通过改善睡眠和适度运动，有望进一步提升HRV水平。", scope, avgHRV, hrvLevel)

	var activity string
	if avgSteps >= 10000 {
		activity = fmt.Sprintf("%s日均步数为%.0f步，已达到推荐目标，说明日常活动量充足。步数是评估基础活动量的重要指标，充足的步行有助于心血管健康、体重管理和情绪调节。建议保持当前活动水平，并尝试挑战更高目标。", scope, avgSteps)
	} else {
		activity = fmt.Sprintf("%s日均步数为%.0f步，距离10000步推荐目标还有差距，建议增加日常步行活动。步数是评估基础活动量的重要指标，充足的步行有助于心血管健康、体重管理和情绪调节。建议利用碎片时间增加步行，如通勤步行、午休散步、选择楼梯等，积少成多提升活动量。", scope, avgSteps)
	}

	var sleep string
	if avgSleep >= 7 {
		sleep = fmt.Sprintf("%s平均睡眠时长为%.1f小时，达到推荐标准，睡眠质量良好。充足睡眠对身体恢复、记忆巩固和免疫功能至关重要。建议继续保持规律作息，维护良好的睡眠习惯。", scope, avgSleep)
	} else {
		sleep = fmt.Sprintf("%s平均睡眠时长为%.1f小时，低于7-9小时推荐标准，建议增加睡眠时间。充足睡眠对身体恢复、记忆巩固和免疫功能至关重要。建议提前就寝时间，避免睡前使用电子设备，营造舒适的睡眠环境，逐步提升睡眠时长和质量。", scope, avgSleep)
	}

	var workout string
	if workoutDays >= 3 {
		workout = fmt.Sprintf("%s共有%d天进行规律运动，达到每周3-5次的推荐标准。规律运动有助于提升心肺功能、增强肌肉力量和改善代谢健康。建议保持当前运动频率，并尝试增加运动强度或时长。", scope, workoutDays)
	} else {
		workout = fmt.Sprintf("%s共有%d天进行规律运动，低于每周3-5次的推荐标准。规律运动有助于提升心肺功能、增强肌肉力量和改善代谢健康。建议逐步增加运动频率，从每周2-3次开始，选择自己喜欢的运动方式，循序渐进建立运动习惯。", scope, workoutDays)
	}

	n := &PeriodNarrative{
		HRVTrend:      hrv,
		ActivityTrend: activity,
		SleepTrend:    sleep,
		WorkoutTrend:  workout,
	}

	if monthly {
		n.Suggestions = Suggestions{
			Priority1: Recommendation{
				Title:       "建立健康习惯体系",
				Problem:     "数据记录反映出生活习惯需要进一步规律化。建立系统性的健康管理习惯，有助于长期维持良好的身体状态。",
				Action:      "1. 设定固定的作息时间\n2. 建立数据追踪的仪式感\n3. 设定每周健康目标并复盘\n4. 建立运动计划并执行",
				Expectation: "2-3个月后形成稳定的健康习惯，各项指标将趋于稳定，身体状态明显改善。",
			},
			Priority2: Recommendation{
				Title:       "提升活动基础",
				Problem:     fmt.Sprintf("日均步数%.0f低于推荐值，基础活动量需要提升。增加日常活动对代谢健康和体重管理至关重要。", avgSteps),
				Action:      "1. 从每天多走1000步开始\n2. 利用碎片时间活动\n3. 周末安排户外活动\n4. 设定阶段性目标",
				Expectation: "4-6周内日均步数可提升至8000步以上，代谢健康将得到明显改善。",
			},
			Diet:       "保持均衡饮食，控制糖分和加工食品摄入，多吃蔬菜水果。建议选择优质蛋白质，搭配复合碳水化合物和充足蔬菜。",
			Routine:    "建立规律的作息时间，建议23:00前入睡，保证7-8小时睡眠。避免睡前使用电子设备，营造舒适的睡眠环境。",
			Advantages: "HRV指标稳定，基础健康状况良好。睡眠质量整体达标，身体恢复能力正常。",
			Risks:      "活动量偏低，日均步数未达到推荐标准。需要关注日常活动量的稳定性，建议建立更规律的步行习惯。",
			Conclusion: "整体健康状况良好，主要需关注活动量提升。建议优先增加日常步行量，同时保持当前的睡眠规律。",
			Plan:       "1. 本周重点：日均步数提升至8000步\n2. 下周目标：达到10000步推荐标准\n3. 月度目标：建立稳定的运动和睡眠习惯",
		}
		n.Habits = "养成每日数据查看习惯，建立健康意识，逐步改善生活方式。定期复盘健康数据，及时调整目标。"
		return n
	}

	n.Suggestions = Suggestions{
		Priority1: Recommendation{
			Title:       "提升日常活动量",
			Problem:     fmt.Sprintf("本周日均步数%.0f步，低于推荐的10000步目标，基础活动量需要提升。久坐生活方式会增加心血管疾病和代谢综合征风险，建议采取积极措施改善。", avgSteps),
			Action:      "1. 设定每小时站立活动5分钟的提醒\n2. 选择步行或骑行代替短途乘车\n3. 饭后散步15-20分钟\n4. 使用楼梯代替电梯\n5. 周末安排户外活动",
			Expectation: "坚持2-4周后，日均步数可稳定提升至8000步以上，心肺功能和代谢健康将得到明显改善，同时有助于控制体重和提升精力水平。",
		},
		Priority2: Recommendation{
			Title:       "保持睡眠质量",
			Problem:     fmt.Sprintf("本周平均睡眠%.1f小时，睡眠质量整体良好。充足睡眠对身体恢复、记忆巩固和日间精力至关重要，建议继续保持规律作息。", avgSleep),
			Action:      "1. 保持规律作息时间\n2. 睡前1小时避免蓝光\n3. 营造舒适睡眠环境\n4. 避免睡前摄入咖啡因\n5. 建立睡前放松仪式",
			Expectation: "继续保持良好的睡眠习惯，有助于维持稳定的HRV水平，提升日间精力和工作效率，长期有助于降低慢性疾病风险。",
		},
		Diet:       "保持均衡饮食，运动日适当增加蛋白质摄入，注意补充水分。建议选择优质蛋白质来源如鱼类、瘦肉、豆制品，搭配复合碳水化合物和充足蔬菜。",
		Routine:    "建议固定运动时间，如早晨或下班后，建立条件反射。选择自己喜欢的运动方式更容易坚持，可以从每周2-3次开始，逐步增加频率和强度。",
		Advantages: "HRV指标保持在健康范围，基础代谢正常，睡眠质量整体良好。数据显示身体恢复能力基本正常，具备良好的基础健康状态。",
		Risks:      "活动量偏低，日均步数未达到推荐标准。需要关注日常活动量的稳定性，建议建立更规律的步行习惯。",
		Conclusion: "本周整体健康状况良好，主要需关注活动量提升。建议优先增加日常步行量，同时保持当前的睡眠规律。",
		Plan:       "1. 本周重点：日均步数提升至8000步\n2. 下周目标：达到10000步推荐标准\n3. 月度目标：建立稳定的运动和睡眠习惯",
	}
	return n
}
