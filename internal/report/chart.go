package report

import (
	"fmt"
	"strings"

	"github.com/claude/pulsereport/internal/models"
)

const noChartFragment = `<p style="color:#64748b;text-align:center;">当日无运动记录</p>`

// HRChartFragment emits a self-contained canvas plus the script that draws
// the workout heart-rate series, or an empty string when no samples exist.
// The fragment is substituted as a string; the renderer's grace period
// leaves time for the chart library to paint.
func HRChartFragment(timeline []models.HRSample) string {
	if len(timeline) == 0 {
		return ""
	}

	labels := make([]string, len(timeline))
	avgs := make([]string, len(timeline))
	maxes := make([]string, len(timeline))
	yMin, yMax := timeline[0].Avg, timeline[0].Max
	for i, p := range timeline {
		labels[i] = fmt.Sprintf("%q", p.Time.Format("15:04"))
		avgs[i] = fmt.Sprintf("%.0f", p.Avg)
		maxes[i] = fmt.Sprintf("%.0f", p.Max)
		if p.Avg < yMin {
			yMin = p.Avg
		}
		if p.Max > yMax {
			yMax = p.Max
		}
	}
	yMin -= 10
	if yMin < 0 {
		yMin = 0
	}
	yMax += 10

	return fmt.Sprintf(`
    <div style="height:200px;width:100%%;">
      <canvas id="hrChart"></canvas>
    </div>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <script>
      new Chart(document.getElementById('hrChart'), {
        type: 'line',
        data: {
          labels: [%s],
          datasets: [
            {
              label: '平均心率',
              data: [%s],
              borderColor: '#667eea',
              backgroundColor: 'rgba(102,126,234,0.1)',
              fill: true,
              tension: 0.3,
              pointRadius: 3
            },
            {
              label: '最高心率',
              data: [%s],
              borderColor: '#dc2626',
              borderDash: [5,5],
              fill: false,
              pointRadius: 2
            }
          ]
        },
        options: {
          responsive: false,
          maintainAspectRatio: false,
          plugins: {
            legend: { position: 'top', labels: { font: { size: 10 }, usePointStyle: true } },
            title: { display: true, text: '运动时心率变化 (bpm)', font: { size: 11 } }
          },
          scales: {
            y: { beginAtZero: false, min: %.0f, max: %.0f, title: { display: true, text: '心率 (bpm)', font: { size: 10 } }, ticks: { font: { size: 9 } } },
            x: { ticks: { font: { size: 9 }, maxTicksLimit: 8 } }
          }
        }
      });
    </script>`,
		strings.Join(labels, ","), strings.Join(avgs, ","), strings.Join(maxes, ","), yMin, yMax)
}
