// Package pipeline wires ingest, aggregation, narrative, composition, and
// rendering into the report operations shared by the CLI, the viewer server,
// and the MCP server.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/claude/pulsereport/internal/aggregate"
	"github.com/claude/pulsereport/internal/cache"
	"github.com/claude/pulsereport/internal/config"
	"github.com/claude/pulsereport/internal/models"
	"github.com/claude/pulsereport/internal/narrative"
	"github.com/claude/pulsereport/internal/render"
	"github.com/claude/pulsereport/internal/report"
	"github.com/claude/pulsereport/internal/source"
)

// Result describes one generated report.
type Result struct {
	HTMLPath string `json:"html_path"`
	PDFPath  string `json:"pdf_path,omitempty"`
}

type Pipeline struct {
	cfg      *config.Config
	store    *cache.Store
	daily    *aggregate.DailyAggregator
	periods  *aggregate.PeriodAggregator
	gen      *narrative.Generator
	renderer *render.Renderer
	logger   *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	store := cache.NewStore(cfg.Paths.CacheDir)
	reader := source.NewReader(cfg.Paths.HealthDir, cfg.Paths.WorkoutDir, logger)

	var backend narrative.Backend
	if b := narrative.NewLLMBackend(cfg.LLM); b != nil {
		backend = b
	}

	return &Pipeline{
		cfg:      cfg,
		store:    store,
		daily:    aggregate.NewDailyAggregator(reader, cfg.Location(), store, logger),
		periods:  aggregate.NewPeriodAggregator(store, logger),
		gen:      narrative.NewGenerator(backend, logger),
		renderer: render.New(cfg.Render, logger),
		logger:   logger,
	}
}

// Store exposes the daily cache for read-only consumers.
func (p *Pipeline) Store() *cache.Store { return p.store }

// BuildDay ingests one date and caches its summary without rendering.
func (p *Pipeline) BuildDay(date string) (*models.DailySummary, error) {
	return p.daily.Build(date)
}

// Weekly returns the 7-day rollup ending on endDate.
func (p *Pipeline) Weekly(endDate string) (*models.PeriodSummary, error) {
	return p.periods.Weekly(endDate, p.cfg.Location())
}

// Monthly returns the calendar-month rollup containing date.
func (p *Pipeline) Monthly(date string) (*models.PeriodSummary, error) {
	return p.periods.Monthly(date, p.cfg.Location())
}

// DailyPDFPath returns the output location for a daily report.
func (p *Pipeline) DailyPDFPath(date string) string {
	return filepath.Join(p.cfg.Paths.OutputDir, date+"_report.pdf")
}

func (p *Pipeline) periodPDFPath(month, cadence string) string {
	return filepath.Join(p.cfg.Paths.OutputDir, fmt.Sprintf("%s-%s-report.pdf", month, cadence))
}

// DailyReport builds the summary for date and renders the daily report.
// With htmlOnly the PDF step is skipped and only the HTML is written.
func (p *Pipeline) DailyReport(ctx context.Context, date string, htmlOnly bool) (*Result, error) {
	summary, err := p.daily.Build(date)
	if err != nil {
		return nil, err
	}

	n := p.gen.Daily(ctx, summary)
	binding := report.DailyBinding(summary, n, time.Now().In(p.cfg.Location()))
	return p.compose(ctx, report.TemplateDaily, binding, p.DailyPDFPath(date), htmlOnly)
}

// WeeklyReport renders the 7-day report ending on endDate.
func (p *Pipeline) WeeklyReport(ctx context.Context, endDate string, htmlOnly bool) (*Result, error) {
	summary, err := p.periods.Weekly(endDate, p.cfg.Location())
	if err != nil {
		return nil, err
	}

	n := p.gen.Period(ctx, summary, false)
	binding := report.WeeklyBinding(summary, n, time.Now().In(p.cfg.Location()))
	return p.compose(ctx, report.TemplateWeekly, binding, p.periodPDFPath(endDate[:7], "weekly"), htmlOnly)
}

// MonthlyReport renders the calendar-month report containing date.
func (p *Pipeline) MonthlyReport(ctx context.Context, date string, htmlOnly bool) (*Result, error) {
	summary, err := p.periods.Monthly(date, p.cfg.Location())
	if err != nil {
		return nil, err
	}

	n := p.gen.Period(ctx, summary, true)
	binding := report.MonthlyBinding(summary, n, time.Now().In(p.cfg.Location()))
	return p.compose(ctx, report.TemplateMonthly, binding, p.periodPDFPath(date[:7], "monthly"), htmlOnly)
}

func (p *Pipeline) compose(ctx context.Context, templateName string, binding report.Binding, pdfPath string, htmlOnly bool) (*Result, error) {
	tpl, err := report.LoadTemplate(p.cfg.Paths.TemplateDir, templateName)
	if err != nil {
		return nil, err
	}
	html, err := report.Compose(tpl, binding)
	if err != nil {
		return nil, err
	}

	htmlPath, err := p.renderer.WriteHTML(pdfPath, html)
	if err != nil {
		return nil, err
	}
	res := &Result{HTMLPath: htmlPath}
	if htmlOnly {
		p.logger.Info("wrote report html", "path", htmlPath)
		return res, nil
	}

	if err := p.renderer.RenderPDF(ctx, htmlPath, pdfPath); err != nil {
		return res, err
	}
	res.PDFPath = pdfPath
	return res, nil
}
