package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/pulsereport/internal/models"
)

func (h *handlers) latestSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	dates, err := h.pipe.Store().Dates()
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return jsonContents(req.Params.URI, map[string]string{"error": "no cached summaries"})
	}

	summary, err := h.pipe.Store().Get(dates[len(dates)-1])
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, summary)
}

func (h *handlers) metricCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	type entry struct {
		Name        string `json:"name"`
		Unit        string `json:"unit"`
		Aggregation string `json:"aggregation"`
	}
	var catalog []entry
	for _, m := range models.CanonicalMetrics() {
		info := m.Info()
		catalog = append(catalog, entry{
			Name:        string(m),
			Unit:        info.Unit,
			Aggregation: info.Aggregation.String(),
		})
	}
	return jsonContents(req.Params.URI, catalog)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
