package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/telemetry"
)

func TestDispatch_Success(t *testing.T) {
	env := newTestEnv(t)

	// Numeric identifiers coerce to their string form
	resp := env.dispatcher.Dispatch(context.Background(), "get_incident_narrative", map[string]any{"id": float64(2184152)})

	assert.False(t, resp.IsError)
	assert.Equal(t,
		"<response><incident_id>2184152</incident_id><narrative>During climb the engine failed.</narrative></response>",
		resp.Text)
}

func TestDispatch_EscapesText(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatcher.Dispatch(context.Background(), "get_incident_narrative", map[string]any{"id": "1000001"})

	assert.Contains(t, resp.Text, "misunderstood &amp; runway incursion.")
}

func TestDispatch_AppliesDefaults(t *testing.T) {
	env := newTestEnv(t)

	// match_all and max_results are omitted
	resp := env.dispatcher.Dispatch(context.Background(), "list_incidents_by_hfacs", map[string]any{"category": "errors"})

	require.False(t, resp.IsError, resp.Text)
	assert.Equal(t,
		"<response><count>2</count><incident_ids><item>2184152</item><item>1000001</item></incident_ids></response>",
		resp.Text)
}

func TestDispatch_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		tool   string
		params map[string]any
		want   string
	}{
		{
			name: "unknown tool",
			tool: "delete_incident",
			want: "<error>Unknown tool: delete_incident. Call list_available_tools to see the available tools.</error>",
		},
		{
			name: "missing identifier",
			tool: "get_incident_details",
			want: "<error>Missing required parameter: id</error>",
		},
		{
			name:   "not found",
			tool:   "get_hfacs_classification",
			params: map[string]any{"id": "404"},
			want:   "<error>Incident with ID 404 not found.</error>",
		},
		{
			name:   "coercion failure",
			tool:   "search_incidents_by_keyword",
			params: map[string]any{"keyword": "engine", "max_results": "many"},
			want:   "<error>Parameter max_results must be an integer, got &quot;many&quot;.</error>",
		},
		{
			name:   "date validation",
			tool:   "list_incidents_by_date_range",
			params: map[string]any{"start_date_yyyymm": "2023", "end_date_yyyymm": "202312"},
			want:   "<error>Invalid start_date_yyyymm format: &quot;2023&quot;. Expected YYYYMM.</error>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.dispatcher.Dispatch(context.Background(), tt.tool, tt.params)
			assert.True(t, resp.IsError)
			assert.Equal(t, tt.want, resp.Text)
		})
	}
}

func TestDispatch_RecoversPanics(t *testing.T) {
	// Given: a tool whose handler panics
	env := newTestEnv(t)
	env.dispatcher.registry.add(&Descriptor{
		Name: "boom",
		handler: func(context.Context, Args) (any, error) {
			panic("index out of range")
		},
	})

	// When
	resp := env.dispatcher.Dispatch(context.Background(), "boom", nil)

	// Then: rendered like any other failure and logged at ERROR
	assert.True(t, resp.IsError)
	assert.Equal(t, "<error>Internal error executing boom: index out of range</error>", resp.Text)
	logs := env.logs.String()
	assert.Contains(t, logs, `"msg":"tool handler panicked"`)
	assert.Contains(t, logs, `"level":"ERROR"`)
	assert.Contains(t, logs, `"tool":"boom"`)
}

func TestDispatch_WrapsUntypedErrors(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.registry.add(&Descriptor{
		Name: "flaky",
		handler: func(context.Context, Args) (any, error) {
			return nil, errors.New("backend unavailable")
		},
	})

	resp := env.dispatcher.Dispatch(context.Background(), "flaky", nil)

	assert.True(t, resp.IsError)
	assert.Equal(t, "<error>Internal error executing flaky: backend unavailable</error>", resp.Text)
	require.Len(t, env.recorder.events, 1)
	assert.Equal(t, amerrors.ErrCodeInternal, env.recorder.events[0].ErrorCode)
}

func TestDispatch_ReportsTelemetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.dispatcher.Dispatch(ctx, "search_incidents_by_keyword", map[string]any{"keyword": "engine"})
	env.dispatcher.Dispatch(ctx, "search_incidents_by_keyword", map[string]any{"keyword": "volcanic ash"})
	env.dispatcher.Dispatch(ctx, "get_incident_details", map[string]any{"id": "nope"})

	require.Len(t, env.recorder.events, 3)

	first := env.recorder.events[0]
	assert.Equal(t, "search_incidents_by_keyword", first.Tool)
	assert.Equal(t, telemetry.OutcomeOK, first.Outcome)
	assert.Equal(t, "engine", first.Terms)
	assert.Equal(t, 1, first.ResultCount)

	assert.True(t, env.recorder.events[1].IsZeroResult())

	failed := env.recorder.events[2]
	assert.Equal(t, telemetry.OutcomeError, failed.Outcome)
	assert.Equal(t, amerrors.ErrCodeIncidentNotFound, failed.ErrorCode)
	assert.Empty(t, failed.Terms)
}

func TestDispatch_LogsCompletion(t *testing.T) {
	env := newTestEnv(t)

	env.dispatcher.Dispatch(context.Background(), "get_hfacs_taxonomy", nil)

	lines := strings.Split(strings.TrimSpace(env.logs.String()), "\n")
	last := lines[len(lines)-1]
	assert.Contains(t, last, `"msg":"tool call completed"`)
	assert.Contains(t, last, `"result_count":4`)
	assert.Contains(t, last, `"request_id":"`)
}

func TestDispatch_ConcurrentCalls(t *testing.T) {
	engineOnly := NewDispatcher(newTestEnv(t).dispatcher.registry)

	done := make(chan Response, 16)
	for i := 0; i < 16; i++ {
		go func() {
			done <- engineOnly.Dispatch(context.Background(), "get_incident_details", map[string]any{"id": "2184152"})
		}()
	}

	first := <-done
	for i := 1; i < 16; i++ {
		assert.Equal(t, first, <-done)
	}
	assert.False(t, first.IsError)
}
