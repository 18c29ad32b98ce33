package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

func entry(level, category, sub string) map[string]any {
	e := map[string]any{}
	if level != "" {
		e["level"] = level
	}
	if category != "" {
		e["category"] = category
	}
	if sub != "" {
		e["sub_category"] = sub
	}
	return e
}

func textSection(s string) map[string]any {
	return map[string]any{"text": s}
}

const (
	unsafeActs    = "Unsafe Acts of Operators"
	preconditions = "Preconditions for Unsafe Acts"
	supervision   = "Unsafe Supervision"
)

// testCorpus returns five records exercising the schema variants:
//
//	2184152  bare groups, narrative and synopsis, two entries
//	1000001  ": 1" groups, numeric id, two entries
//	3000003  synopsis only, unclassified
//	4000004  upper-case narrative, one entry
//	5000005  lower-case id key, empty classification, malformed date
func testCorpus() []incident.Record {
	return []incident.Record{
		{
			"ACN":          "2184152",
			"Time / Day":   map[string]any{"Date": "202301 Local Time Of Day 0601-1200"},
			"Narrative: 1": textSection("During climb the engine failed and the crew declared an emergency."),
			"Synopsis":     textSection("B737 crew experienced engine failure."),
			"Aircraft":     map[string]any{"Make Model Name": "B737-800", "Flight Phase": "Climb", "Aircraft Operator": "Air Carrier"},
			"Environment":  map[string]any{"Flight Conditions": "VMC"},
			"Place":        map[string]any{"Locale Reference.Airport": "ORD.Airport"},
			"Events":       map[string]any{"Anomaly.Aircraft Equipment Problem": "Critical"},
			"hfacs_classification": []any{
				entry(unsafeActs, "Errors", "Skill-Based Errors"),
				entry(preconditions, "Condition of Operators", "Adverse Mental States"),
			},
		},
		{
			"ACN":             json.Number("1000001"),
			"Time / Day":      map[string]any{"Date": "202306"},
			"Narrative":       textSection("Taxi clearance was misunderstood near the runway."),
			"Aircraft : 1":    map[string]any{"Make Model Name": "A320", "Flight Phase": "Taxi", "Aircraft Operator": "Air Carrier"},
			"Environment : 1": map[string]any{"Flight Conditions": "IMC"},
			"Place":           map[string]any{"Locale Reference.Airport": "JFK.Airport"},
			"Events":          map[string]any{"Anomaly.Deviation - Procedural": "Clearance"},
			"hfacs_classification": []any{
				entry(unsafeActs, "Errors", "Decision Errors"),
				entry(supervision, "Inadequate Supervision", ""),
			},
		},
		{
			"ACN":        "3000003",
			"Time / Day": map[string]any{"Date": "202401"},
			"Synopsis":   textSection("Engine fire warning during cruise."),
			"Aircraft":   map[string]any{"Make Model Name": "B737-800", "Flight Phase": "Cruise", "Aircraft Operator": "Personal"},
		},
		{
			"ACN":        "4000004",
			"Time / Day": map[string]any{"Date": "202312"},
			"Narrative":  textSection("ENGINE vibration was reported by the crew during climb."),
			"Aircraft":   map[string]any{"Make Model Name": "B737 MAX 8", "Flight Phase": "Climb", "Aircraft Operator": "Air Carrier"},
			"hfacs_classification": []any{
				entry(unsafeActs, "Errors", "Skill-Based Errors"),
			},
		},
		{
			"acn":                  "5000005",
			"Time / Day":           map[string]any{"Date": "2023"},
			"hfacs_classification": []any{},
		},
	}
}

func newTestEngine(records ...incident.Record) *Engine {
	if len(records) == 0 {
		records = testCorpus()
	}
	return New(incident.NewStore(records))
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, amerrors.GetCode(err), "error: %v", err)
}
