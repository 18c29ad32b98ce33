package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

func statsParams() StatisticsParams {
	return StatisticsParams{StatisticLevel: DefaultStatisticLevel, TopN: DefaultTopN}
}

func TestStatisticsSummary_Category(t *testing.T) {
	e := newTestEngine()

	res, err := e.StatisticsSummary(statsParams())

	require.NoError(t, err)
	assert.Equal(t, "category", res.StatisticLevel)
	assert.Empty(t, res.FiltersApplied)
	assert.Equal(t, 5, res.TotalIncidentsMatchingFilters)
	assert.Equal(t, 3, res.IncidentsWithHFACSData)

	// Ties keep first-encountered order
	assert.Equal(t, []StatItem{
		{Item: "Errors", Count: 3, Percentage: "100.00%"},
		{Item: "Condition of Operators", Count: 1, Percentage: "33.33%"},
		{Item: "Inadequate Supervision", Count: 1, Percentage: "33.33%"},
	}, res.TopItems)
}

func TestStatisticsSummary_TopN(t *testing.T) {
	p := statsParams()
	p.TopN = 1

	res, err := newTestEngine().StatisticsSummary(p)

	require.NoError(t, err)
	require.Len(t, res.TopItems, 1)
	assert.Equal(t, "Errors", res.TopItems[0].Item)
}

func TestStatisticsSummary_DateFilter(t *testing.T) {
	p := statsParams()
	p.StartDate = "202306"

	res, err := newTestEngine().StatisticsSummary(p)

	// Records without a resolvable date drop out once a bound is given
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"start_date_yyyymm": "202306"}, res.FiltersApplied)
	assert.Equal(t, 3, res.TotalIncidentsMatchingFilters)
	assert.Equal(t, 2, res.IncidentsWithHFACSData)
	assert.Equal(t, StatItem{Item: "Errors", Count: 2, Percentage: "100.00%"}, res.TopItems[0])
}

func TestStatisticsSummary_AircraftFilterAndLevel(t *testing.T) {
	p := statsParams()
	p.StatisticLevel = "level"
	p.AircraftTypeContains = "b737"

	res, err := newTestEngine().StatisticsSummary(p)

	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalIncidentsMatchingFilters)
	assert.Equal(t, 2, res.IncidentsWithHFACSData)
	assert.Equal(t, []StatItem{
		{Item: unsafeActs, Count: 2, Percentage: "100.00%"},
		{Item: preconditions, Count: 1, Percentage: "50.00%"},
	}, res.TopItems)
}

func TestStatisticsSummary_TenOfTen(t *testing.T) {
	// Given: ten classified records sharing one category
	records := make([]incident.Record, 0, 10)
	for i := 0; i < 10; i++ {
		records = append(records, incident.Record{
			"ACN":                  fmt.Sprint(i),
			"hfacs_classification": []any{entry(unsafeActs, "Errors", "")},
		})
	}

	// When
	p := statsParams()
	p.TopN = 1
	res, err := newTestEngine(records...).StatisticsSummary(p)

	// Then
	require.NoError(t, err)
	assert.Equal(t, "100.00%", res.TopItems[0].Percentage)
}

func TestStatisticsSummary_CaseInsensitiveTally(t *testing.T) {
	records := []incident.Record{
		{"ACN": "1", "hfacs_classification": []any{entry("", "Violations", "")}},
		{"ACN": "2", "hfacs_classification": []any{entry("", "VIOLATIONS", ""), entry("", "Errors", "")}},
		{"ACN": "3", "hfacs_classification": []any{entry("", "Errors", ""), map[string]any{"error": "parse failure"}}},
		{"ACN": "4", "hfacs_classification": []any{entry("", "errors", "")}},
	}

	res, err := newTestEngine(records...).StatisticsSummary(statsParams())

	require.NoError(t, err)
	assert.Equal(t, []StatItem{
		{Item: "Errors", Count: 3, Percentage: "75.00%"},
		{Item: "Violations", Count: 2, Percentage: "50.00%"},
	}, res.TopItems)
}

func TestStatisticsSummary_EmptyFilterResult(t *testing.T) {
	p := statsParams()
	p.AircraftTypeContains = "Cessna"

	res, err := newTestEngine().StatisticsSummary(p)

	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalIncidentsMatchingFilters)
	assert.Equal(t, 0, res.IncidentsWithHFACSData)
	assert.Empty(t, res.TopItems)
}

func TestStatisticsSummary_Validation(t *testing.T) {
	e := newTestEngine()

	p := statsParams()
	p.StatisticLevel = "Category"
	_, err := e.StatisticsSummary(p)
	requireCode(t, err, amerrors.ErrCodeInvalidInput)

	p = statsParams()
	p.TopN = 0
	_, err = e.StatisticsSummary(p)
	requireCode(t, err, amerrors.ErrCodeInvalidRange)

	p = statsParams()
	p.EndDate = "2023"
	_, err = e.StatisticsSummary(p)
	requireCode(t, err, amerrors.ErrCodeInvalidDate)

	p = statsParams()
	p.StartDate, p.EndDate = "202312", "202301"
	_, err = e.StatisticsSummary(p)
	requireCode(t, err, amerrors.ErrCodeInvalidRange)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "0%", percentage(3, 0))
	assert.Equal(t, "100.00%", percentage(10, 10))
	assert.Equal(t, "66.67%", percentage(2, 3))
}
