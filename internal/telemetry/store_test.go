package telemetry

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteMetricsStore {
	t.Helper()

	store, err := OpenSQLiteMetricsStore(filepath.Join(t.TempDir(), "nested", "telemetry.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestSQLiteMetricsStore_SaveCallCounts_Incremental(t *testing.T) {
	store := setupTestStore(t)

	ok := CallKey{Tool: "get_incident_details", Outcome: OutcomeOK}
	failed := CallKey{Tool: "get_incident_details", Outcome: OutcomeError}

	require.NoError(t, store.SaveCallCounts("2026-01-06", map[CallKey]int64{ok: 4, failed: 1}))
	require.NoError(t, store.SaveCallCounts("2026-01-06", map[CallKey]int64{ok: 2}))

	result, err := store.GetCallCounts("2026-01-06", "2026-01-06")
	require.NoError(t, err)
	assert.Equal(t, map[CallKey]int64{ok: 6, failed: 1}, result)
}

func TestSQLiteMetricsStore_DateRange(t *testing.T) {
	store := setupTestStore(t)
	key := CallKey{Tool: "a", Outcome: OutcomeOK}

	require.NoError(t, store.SaveCallCounts("2026-01-05", map[CallKey]int64{key: 1}))
	require.NoError(t, store.SaveCallCounts("2026-01-06", map[CallKey]int64{key: 2}))
	require.NoError(t, store.SaveCallCounts("2026-01-07", map[CallKey]int64{key: 4}))

	result, err := store.GetCallCounts("2026-01-06", "2026-01-07")
	require.NoError(t, err)
	assert.Equal(t, int64(6), result[key])
}

func TestSQLiteMetricsStore_TopTerms(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.UpsertTermCounts(map[string]int64{"engine": 3, "icing": 1, "runway": 2}))
	require.NoError(t, store.UpsertTermCounts(map[string]int64{"icing": 5}))
	require.NoError(t, store.UpsertTermCounts(nil))

	top, err := store.GetTopTerms(2)
	require.NoError(t, err)
	assert.Equal(t, []TermCount{{Term: "icing", Count: 6}, {Term: "engine", Count: 3}}, top)
}

func TestSQLiteMetricsStore_ZeroResultCalls_Bounded(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC)

	for i := 0; i < zeroResultRetention+5; i++ {
		require.NoError(t, store.AddZeroResultCall(ZeroResultCall{
			Tool:      "search_incidents_by_keyword",
			Terms:     fmt.Sprintf("term%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	calls, err := store.GetZeroResultCalls(1000)
	require.NoError(t, err)
	require.Len(t, calls, zeroResultRetention)
	assert.Equal(t, fmt.Sprintf("term%d", zeroResultRetention+4), calls[0].Terms)
	assert.Equal(t, "search_incidents_by_keyword", calls[0].Tool)
	assert.True(t, calls[0].Timestamp.Equal(base.Add(time.Duration(zeroResultRetention+4)*time.Second)))
}

func TestSQLiteMetricsStore_LatencyCounts(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.SaveLatencyCounts("2026-01-06", map[LatencyBucket]int64{BucketP10: 5, BucketP500: 1}))
	require.NoError(t, store.SaveLatencyCounts("2026-01-06", map[LatencyBucket]int64{BucketP10: 1}))

	result, err := store.GetLatencyCounts("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, map[LatencyBucket]int64{BucketP10: 6, BucketP500: 1}, result)
}

func TestNewSQLiteMetricsStore_NilDB(t *testing.T) {
	_, err := NewSQLiteMetricsStore(nil)
	assert.Error(t, err)
}

func TestNewSQLiteMetricsStore_SharedDBLeftOpen(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer db.Close()

	store, err := NewSQLiteMetricsStore(db)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.NoError(t, db.Ping(), "caller-owned connection stays usable")
}

func TestToolMetrics_FlushRoundTrip(t *testing.T) {
	// Given: a collector persisting to SQLite
	store := setupTestStore(t)
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	m := NewToolMetricsWithConfig(store, Config{})
	m.now = func() time.Time { return fixed }

	m.Record(CallEvent{Tool: "search_incidents_by_keyword", Outcome: OutcomeOK, Terms: "bird strike", ResultCount: 0, Latency: 3 * time.Millisecond})
	m.Record(CallEvent{Tool: "search_incidents_by_keyword", Outcome: OutcomeOK, Terms: "bird", ResultCount: 4, Latency: 20 * time.Millisecond})
	m.Record(CallEvent{Tool: "get_incident_details", Outcome: OutcomeError, ErrorCode: "ERR_601_INCIDENT_NOT_FOUND"})

	// When
	require.NoError(t, m.Close())

	// Then
	counts, err := store.GetCallCounts("2026-03-14", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, map[CallKey]int64{
		{Tool: "search_incidents_by_keyword", Outcome: OutcomeOK}: 2,
		{Tool: "get_incident_details", Outcome: OutcomeError}:     1,
	}, counts)

	top, err := store.GetTopTerms(1)
	require.NoError(t, err)
	assert.Equal(t, []TermCount{{Term: "bird", Count: 2}}, top)

	zero, err := store.GetZeroResultCalls(10)
	require.NoError(t, err)
	require.Len(t, zero, 1)
	assert.Equal(t, "bird strike", zero[0].Terms)

	latency, err := store.GetLatencyCounts("2026-03-14", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, int64(2), latency[BucketP10])
	assert.Equal(t, int64(1), latency[BucketP50])
}
