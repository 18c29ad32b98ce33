package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
	"github.com/Aman-CERP/asrsmcp/internal/markup"
)

// Resource URIs.
const (
	TaxonomyURI    = "hfacs://taxonomy"
	ToolMetricsURI = "asrsmcp://tool_metrics"
)

// registerTaxonomyResource registers the static HFACS taxonomy.
func (s *Server) registerTaxonomyResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "hfacs_taxonomy",
			URI:         TaxonomyURI,
			Description: "HFACS levels, categories and sub-categories used to classify incidents",
			MIMEType:    "application/xml",
		},
		func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{
						URI:      TaxonomyURI,
						MIMEType: "application/xml",
						Text:     markup.Render(hfacs.Reference()),
					},
				},
			}, nil
		},
	)
}

// ToolMetricsOutput is the JSON form of the tool_metrics resource.
type ToolMetricsOutput struct {
	Summary             ToolMetricsSummary        `json:"summary"`
	Tools               map[string]ToolCallCounts `json:"tools"`
	ErrorCodes          map[string]int64          `json:"error_codes"`
	TopTerms            []TermCountOutput         `json:"top_terms"`
	ZeroResultCalls     []ZeroResultCallOutput    `json:"zero_result_calls"`
	LatencyDistribution map[string]int64          `json:"latency_distribution"`
}

// ToolMetricsSummary holds session totals.
type ToolMetricsSummary struct {
	TotalCalls       int64   `json:"total_calls"`
	TimePeriod       string  `json:"time_period"`
	ErrorRatePct     float64 `json:"error_rate_pct"`
	ZeroResultCount  int64   `json:"zero_result_count"`
	ExactRepeatCount int64   `json:"exact_repeat_count"`
}

// ToolCallCounts holds one tool's totals.
type ToolCallCounts struct {
	Calls  int64 `json:"calls"`
	Errors int64 `json:"errors"`
}

// TermCountOutput represents a term and its frequency.
type TermCountOutput struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// ZeroResultCallOutput is one recent call that matched nothing.
type ZeroResultCallOutput struct {
	Tool  string `json:"tool"`
	Terms string `json:"terms"`
}

// registerToolMetricsResource registers the tool_metrics resource.
func (s *Server) registerToolMetricsResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "tool_metrics",
			URI:         ToolMetricsURI,
			Description: "Tool call telemetry for this session",
			MIMEType:    "application/json",
		},
		s.makeToolMetricsHandler(),
	)
}

// makeToolMetricsHandler creates a handler for the tool_metrics resource.
func (s *Server) makeToolMetricsHandler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		s.mu.RLock()
		metrics := s.metrics
		s.mu.RUnlock()

		if metrics == nil {
			return nil, NewInvalidParamsError("tool metrics not available")
		}

		snapshot := metrics.Snapshot()

		output := ToolMetricsOutput{
			Summary: ToolMetricsSummary{
				TotalCalls:       snapshot.TotalCalls,
				TimePeriod:       "session",
				ErrorRatePct:     snapshot.ErrorRate() * 100,
				ZeroResultCount:  snapshot.ZeroResultCount,
				ExactRepeatCount: snapshot.ExactRepeatCount,
			},
			Tools:               make(map[string]ToolCallCounts, len(snapshot.Tools)),
			ErrorCodes:          snapshot.ErrorCodes,
			TopTerms:            make([]TermCountOutput, 0, len(snapshot.TopTerms)),
			ZeroResultCalls:     make([]ZeroResultCallOutput, 0, len(snapshot.ZeroResultCalls)),
			LatencyDistribution: make(map[string]int64, len(snapshot.LatencyDistribution)),
		}

		for name, stats := range snapshot.Tools {
			output.Tools[name] = ToolCallCounts{Calls: stats.Calls, Errors: stats.Errors}
		}
		for _, tc := range snapshot.TopTerms {
			output.TopTerms = append(output.TopTerms, TermCountOutput{Term: tc.Term, Count: tc.Count})
		}
		for _, zc := range snapshot.ZeroResultCalls {
			output.ZeroResultCalls = append(output.ZeroResultCalls, ZeroResultCallOutput{Tool: zc.Tool, Terms: zc.Terms})
		}
		for bucket, count := range snapshot.LatencyDistribution {
			output.LatencyDistribution[string(bucket)] = count
		}

		content, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return nil, MapError(amerrors.InternalError("marshal tool metrics", err))
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      ToolMetricsURI,
					MIMEType: "application/json",
					Text:     string(content),
				},
			},
		}, nil
	}
}
