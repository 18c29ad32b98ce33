package tools

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/Aman-CERP/asrsmcp/internal/incident"
	"github.com/Aman-CERP/asrsmcp/internal/query"
	"github.com/Aman-CERP/asrsmcp/internal/telemetry"
)

func corpus() []incident.Record {
	return []incident.Record{
		{
			"ACN":          "2184152",
			"Time / Day":   map[string]any{"Date": "202301"},
			"Narrative: 1": map[string]any{"text": "During climb the engine failed."},
			"Synopsis":     map[string]any{"text": "B737 crew experienced engine failure."},
			"Aircraft":     map[string]any{"Make Model Name": "B737-800", "Flight Phase": "Climb"},
			"hfacs_classification": []any{
				map[string]any{"level": "Unsafe Acts of Operators", "category": "Errors", "sub_category": "Skill-Based Errors"},
			},
		},
		{
			"ACN":        "1000001",
			"Time / Day": map[string]any{"Date": "202305"},
			"Narrative":  map[string]any{"text": "Taxi clearance misunderstood & runway incursion."},
			"Aircraft":   map[string]any{"Make Model Name": "A320", "Flight Phase": "Taxi"},
			"hfacs_classification": []any{
				map[string]any{"level": "Unsafe Acts of Operators", "category": "Errors", "sub_category": "Decision Errors"},
			},
		},
	}
}

type testEnv struct {
	dispatcher *Dispatcher
	logs       *bytes.Buffer
	recorder   *captureRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := &captureRecorder{}

	engine := query.New(incident.NewStore(corpus()))
	d := NewDispatcher(NewRegistry(engine), WithLogger(logger), WithRecorder(rec))
	return &testEnv{dispatcher: d, logs: logs, recorder: rec}
}

type captureRecorder struct{ events []telemetry.CallEvent }

func (c *captureRecorder) Record(e telemetry.CallEvent) { c.events = append(c.events, e) }
