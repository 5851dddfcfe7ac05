// Package mcp exposes cached summaries and report generation over the
// Model Context Protocol.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/pulsereport/internal/pipeline"
)

// New creates an MCP server with all tools and resources registered.
func New(pipe *pipeline.Pipeline, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("PulseReport", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("PulseReport health report server. Query cached daily summaries, weekly and monthly rollups, and generate HTML/PDF reports from Health Auto Export data."),
	)

	h := &handlers{pipe: pipe, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetDailySummary, Handler: h.getDailySummary},
		server.ServerTool{Tool: toolGetPeriodSummary, Handler: h.getPeriodSummary},
		server.ServerTool{Tool: toolListCachedDays, Handler: h.listCachedDays},
		server.ServerTool{Tool: toolBuildDay, Handler: h.buildDay},
		server.ServerTool{Tool: toolGenerateReport, Handler: h.generateReport},
	)

	s.AddResources(
		server.ServerResource{Resource: resLatestSummary, Handler: h.latestSummary},
		server.ServerResource{Resource: resMetricCatalog, Handler: h.metricCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	pipe *pipeline.Pipeline
	log  *slog.Logger
}

// --- Resource definitions ---

var resLatestSummary = mcp.NewResource(
	"pulsereport://latest_summary",
	"Latest Daily Summary",
	mcp.WithResourceDescription("The most recent cached daily summary with normalized metrics, sleep, workouts, and scores"),
	mcp.WithMIMEType("application/json"),
)

var resMetricCatalog = mcp.NewResource(
	"pulsereport://metric_catalog",
	"Metric Catalog",
	mcp.WithResourceDescription("The canonical metric set with units and aggregation rules"),
	mcp.WithMIMEType("application/json"),
)
