package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/pulsereport/internal/cache"
	"github.com/claude/pulsereport/internal/source"
)

// --- Tool definitions ---

var toolGetDailySummary = mcp.NewTool("get_daily_summary",
	mcp.WithDescription("Retrieve the cached daily summary for a date: normalized metrics, attributed sleep episode, workouts, and deterministic scores."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Date (YYYY-MM-DD)")),
)

var toolGetPeriodSummary = mcp.NewTool("get_period_summary",
	mcp.WithDescription("Retrieve a weekly (7 days ending on date) or monthly (calendar month containing date) rollup built from cached daily summaries. Includes completeness gating and per-metric aggregates."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Anchor date (YYYY-MM-DD)")),
	mcp.WithString("cadence", mcp.Description("Rollup cadence. Defaults to 'weekly'."), mcp.Enum("weekly", "monthly")),
)

var toolListCachedDays = mcp.NewTool("list_cached_days",
	mcp.WithDescription("List all dates with a cached daily summary, sorted ascending."),
)

var toolBuildDay = mcp.NewTool("build_day",
	mcp.WithDescription("Ingest the Health Auto Export files for a date, build the daily summary, and cache it. Returns the cached summary."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Date (YYYY-MM-DD)")),
)

var toolGenerateReport = mcp.NewTool("generate_report",
	mcp.WithDescription("Generate an HTML (and optionally PDF) report for a date. Returns the output file paths."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Date (YYYY-MM-DD); anchors weekly and monthly reports")),
	mcp.WithString("cadence", mcp.Description("Report cadence. Defaults to 'daily'."), mcp.Enum("daily", "weekly", "monthly")),
	mcp.WithBoolean("html_only", mcp.Description("Skip PDF rendering and only write the HTML. Defaults to false.")),
)

func requireDate(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	date, err := req.RequireString("date")
	if err != nil {
		return "", mcp.NewToolResultError("date parameter is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", mcp.NewToolResultError("date must be YYYY-MM-DD")
	}
	return date, nil
}

// --- Tool handlers ---

func (h *handlers) getDailySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, errResult := requireDate(req)
	if errResult != nil {
		return errResult, nil
	}

	summary, err := h.pipe.Store().Get(date)
	if errors.Is(err, cache.ErrMiss) {
		return mcp.NewToolResultError("no cached summary for " + date + "; run build_day first"), nil
	}
	if err != nil {
		h.log.Error("mcp get_daily_summary", "error", err)
		return mcp.NewToolResultError("cache read failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summary)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPeriodSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, errResult := requireDate(req)
	if errResult != nil {
		return errResult, nil
	}
	cadence := req.GetString("cadence", "weekly")

	var summary any
	var err error
	switch cadence {
	case "monthly":
		summary, err = h.pipe.Monthly(date)
	default:
		summary, err = h.pipe.Weekly(date)
	}
	if err != nil {
		h.log.Error("mcp get_period_summary", "cadence", cadence, "error", err)
		return mcp.NewToolResultError("rollup failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summary)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listCachedDays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dates, err := h.pipe.Store().Dates()
	if err != nil {
		h.log.Error("mcp list_cached_days", "error", err)
		return mcp.NewToolResultError("cache scan failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{"dates": dates, "count": len(dates)})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) buildDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, errResult := requireDate(req)
	if errResult != nil {
		return errResult, nil
	}

	summary, err := h.pipe.BuildDay(date)
	if errors.Is(err, source.ErrNoData) {
		return mcp.NewToolResultError("no export file for " + date), nil
	}
	if err != nil {
		h.log.Error("mcp build_day", "date", date, "error", err)
		return mcp.NewToolResultError("build failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summary)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) generateReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, errResult := requireDate(req)
	if errResult != nil {
		return errResult, nil
	}
	cadence := req.GetString("cadence", "daily")
	htmlOnly := req.GetBool("html_only", false)

	run := h.pipe.DailyReport
	switch cadence {
	case "weekly":
		run = h.pipe.WeeklyReport
	case "monthly":
		run = h.pipe.MonthlyReport
	}

	res, err := run(ctx, date, htmlOnly)
	if errors.Is(err, source.ErrNoData) {
		return mcp.NewToolResultError("no export file for " + date), nil
	}
	if err != nil {
		h.log.Error("mcp generate_report", "cadence", cadence, "date", date, "error", err)
		return mcp.NewToolResultError("report generation failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
