package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromRecorder_Record(t *testing.T) {
	p := NewPromRecorder()

	p.Record(CallEvent{Tool: "get_hfacs_taxonomy", Outcome: OutcomeOK, ResultCount: 4, Latency: time.Millisecond})
	p.Record(CallEvent{Tool: "get_hfacs_taxonomy", Outcome: OutcomeOK, ResultCount: 4, Latency: time.Millisecond})
	p.Record(CallEvent{Tool: "get_incident_details", Outcome: OutcomeError, Latency: time.Millisecond})

	assert.Equal(t, 2.0, testutil.ToFloat64(p.calls.WithLabelValues("get_hfacs_taxonomy", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.calls.WithLabelValues("get_incident_details", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(p.duration))
	assert.Equal(t, 1, testutil.CollectAndCount(p.results), "errors carry no result count")
}

func TestPromRecorder_Handler(t *testing.T) {
	p := NewPromRecorder()
	p.Record(CallEvent{Tool: "list_available_tools", Outcome: OutcomeOK, ResultCount: 12})

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), `asrsmcp_tool_calls_total{outcome="ok",tool="list_available_tools"} 1`))
}
