package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

func TestListByHFACS(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		p    HFACSParams
		want []string
	}{
		{
			name: "category match is case-insensitive",
			p:    HFACSParams{Category: "errors", MatchAll: true, MaxResults: 10},
			want: []string{"2184152", "1000001", "4000004"},
		},
		{
			name: "match_all needs one entry satisfying every criterion",
			p:    HFACSParams{Level: supervision, Category: "Errors", MatchAll: true, MaxResults: 10},
			want: []string{},
		},
		{
			name: "any criterion when match_all is false",
			p:    HFACSParams{Level: supervision, Category: "Adverse Mental States", MatchAll: false, MaxResults: 10},
			want: []string{"1000001"},
		},
		{
			name: "sub-category",
			p:    HFACSParams{SubCategory: "decision errors", MatchAll: true, MaxResults: 10},
			want: []string{"1000001"},
		},
		{
			name: "missing entry attribute never matches",
			p:    HFACSParams{Category: "Inadequate Supervision", SubCategory: "Inadequate Supervision", MatchAll: true, MaxResults: 10},
			want: []string{},
		},
		{
			name: "truncated in storage order",
			p:    HFACSParams{Level: unsafeActs, MatchAll: true, MaxResults: 2},
			want: []string{"2184152", "1000001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.ListByHFACS(tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.IncidentIDs)
			assert.Equal(t, len(tt.want), res.Count)
		})
	}
}

func TestListByHFACS_NoCriteria(t *testing.T) {
	tests := []struct {
		name     string
		matchAll bool
		want     []string
	}{
		// Unclassified and empty-classification records have no entry to satisfy it
		{name: "match_all returns every classified record", matchAll: true, want: []string{"2184152", "1000001", "4000004"}},
		{name: "any criterion matches nothing", matchAll: false, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestEngine().ListByHFACS(HFACSParams{MatchAll: tt.matchAll, MaxResults: 10})

			require.NoError(t, err)
			assert.Equal(t, tt.want, res.IncidentIDs)
		})
	}
}

func TestListByDateRange(t *testing.T) {
	e := newTestEngine()

	// Given: 2184152 is dated 202301
	res, err := e.ListByDateRange(DateRangeParams{StartDate: "202301", EndDate: "202301", MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"2184152"}, res.IncidentIDs)

	// Then: it falls outside a later range whose bounds are inclusive
	res, err = e.ListByDateRange(DateRangeParams{StartDate: "202302", EndDate: "202312", MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"1000001", "4000004"}, res.IncidentIDs)
}

func TestListByDateRange_Validation(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name       string
		start, end string
		code       string
	}{
		{"short start", "2023", "202312", amerrors.ErrCodeInvalidDate},
		{"non-digit end", "202301", "2023-12", amerrors.ErrCodeInvalidDate},
		{"seven digits", "2023011", "202312", amerrors.ErrCodeInvalidDate},
		{"missing start", "", "202312", amerrors.ErrCodeMissingParameter},
		{"missing end", "202301", "", amerrors.ErrCodeMissingParameter},
		{"start after end", "202312", "202301", amerrors.ErrCodeInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ListByDateRange(DateRangeParams{StartDate: tt.start, EndDate: tt.end, MaxResults: 10})
			requireCode(t, err, tt.code)
			assert.Equal(t, amerrors.CategoryValidation, amerrors.GetCategory(err))
		})
	}
}

func TestListByStructuredData(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		p    StructuredParams
		want []string
	}{
		{"operator contains", StructuredParams{AircraftOperatorContains: "carrier"}, []string{"2184152", "1000001", "4000004"}},
		{"phase exact", StructuredParams{FlightPhaseExact: "CLIMB"}, []string{"2184152", "4000004"}},
		{"phase exact rejects substring", StructuredParams{FlightPhaseExact: "cli"}, []string{}},
		{"conditions from suffixed group", StructuredParams{EnvironmentFlightConditionsExact: "imc"}, []string{"1000001"}},
		{"airport code", StructuredParams{LocationAirportCodeExact: "ord"}, []string{"2184152"}},
		{"anomaly value", StructuredParams{AnomalyTypeContains: "clearance"}, []string{"1000001"}},
		{"anomaly key name ignored", StructuredParams{AnomalyTypeContains: "procedural"}, []string{}},
		{"conjunctive", StructuredParams{AircraftOperatorContains: "air", FlightPhaseExact: "taxi"}, []string{"1000001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.p.MaxResults = DefaultStructuredMaxResults
			res, err := e.ListByStructuredData(tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.IncidentIDs)
		})
	}
}

func TestListByStructuredData_RequiresFilter(t *testing.T) {
	_, err := newTestEngine().ListByStructuredData(StructuredParams{MaxResults: 10})

	requireCode(t, err, amerrors.ErrCodeNoFilter)
}

func TestTruncation_StopsScanningAtBound(t *testing.T) {
	// Given: three matching records X, Y, Z in storage order
	records := []incident.Record{
		{"ACN": "X", "Time / Day": map[string]any{"Date": "202301"}},
		{"ACN": "Y", "Time / Day": map[string]any{"Date": "202301"}},
		{"ACN": "Z", "Time / Day": map[string]any{"Date": "202301"}},
	}
	e := newTestEngine(records...)

	var visited []string
	e.visit = func(r incident.Record) { visited = append(visited, r.ID()) }

	// When: asking for two results, repeatedly
	for i := 0; i < 5; i++ {
		visited = nil
		res, err := e.ListByDateRange(DateRangeParams{StartDate: "202301", EndDate: "202301", MaxResults: 2})

		// Then: always the first two, and Z is never inspected
		require.NoError(t, err)
		assert.Equal(t, []string{"X", "Y"}, res.IncidentIDs)
		assert.Equal(t, []string{"X", "Y"}, visited)
	}
}

func TestTruncation_AppliesToEveryBoundedOperation(t *testing.T) {
	e := newTestEngine()

	var visited int
	e.visit = func(incident.Record) { visited++ }

	res, err := e.SearchByKeyword(KeywordParams{Keyword: "engine", SearchInNarrative: true, SearchInSynopsis: true, MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 1, visited)

	visited = 0
	ids, err := e.ListByStructuredData(StructuredParams{AircraftOperatorContains: "carrier", MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"2184152", "1000001"}, ids.IncidentIDs)
	assert.Equal(t, 2, visited)
}
