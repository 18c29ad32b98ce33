package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// zeroResultRetention bounds the persisted zero-result log.
const zeroResultRetention = 100

// SQLiteMetricsStore implements MetricsStore using SQLite.
type SQLiteMetricsStore struct {
	db     *sql.DB
	ownsDB bool
}

// NewSQLiteMetricsStore wraps an existing connection and creates the
// telemetry tables if needed. The caller keeps ownership of db.
func NewSQLiteMetricsStore(db *sql.DB) (*SQLiteMetricsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := InitTelemetrySchema(db); err != nil {
		return nil, err
	}
	return &SQLiteMetricsStore{db: db}, nil
}

// OpenSQLiteMetricsStore opens (creating if necessary) the telemetry
// database at path. Close releases the connection.
func OpenSQLiteMetricsStore(path string) (*SQLiteMetricsStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create telemetry directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open telemetry database: %w", err)
	}
	// One writer; the flush loop and Close never overlap on the connection.
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteMetricsStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// InitTelemetrySchema creates the telemetry tables if they don't exist.
func InitTelemetrySchema(db *sql.DB) error {
	schema := `
	-- Tool call outcomes (aggregated daily)
	CREATE TABLE IF NOT EXISTS tool_call_stats (
		date TEXT NOT NULL,
		tool TEXT NOT NULL,
		outcome TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, tool, outcome)
	);

	-- Search terms (with frequency count)
	CREATE TABLE IF NOT EXISTS call_terms (
		term TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 1,
		last_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_call_terms_count ON call_terms(count DESC);

	-- Zero-result calls (bounded log)
	CREATE TABLE IF NOT EXISTS zero_result_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tool TEXT NOT NULL,
		terms TEXT NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Latency histogram (buckets: <10ms, 10-50ms, 50-100ms, 100-500ms, >500ms)
	CREATE TABLE IF NOT EXISTS call_latency_stats (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// SaveCallCounts adds daily per-tool outcome counts.
func (s *SQLiteMetricsStore) SaveCallCounts(date string, counts map[CallKey]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO tool_call_stats (date, tool, outcome, count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date, tool, outcome) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for key, count := range counts {
		if _, err := stmt.Exec(date, key.Tool, string(key.Outcome), count); err != nil {
			return fmt.Errorf("insert call count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetCallCounts sums counts for an inclusive date range.
func (s *SQLiteMetricsStore) GetCallCounts(from, to string) (map[CallKey]int64, error) {
	rows, err := s.db.Query(`
		SELECT tool, outcome, SUM(count) as total
		FROM tool_call_stats
		WHERE date >= ? AND date <= ?
		GROUP BY tool, outcome
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query call counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[CallKey]int64)
	for rows.Next() {
		var tool, outcome string
		var count int64
		if err := rows.Scan(&tool, &outcome, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[CallKey{Tool: tool, Outcome: Outcome(outcome)}] = count
	}
	return counts, rows.Err()
}

// UpsertTermCounts adds to term frequency counts.
func (s *SQLiteMetricsStore) UpsertTermCounts(terms map[string]int64) error {
	if len(terms) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO call_terms (term, count, last_seen)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(term) DO UPDATE SET
			count = count + excluded.count,
			last_seen = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for term, count := range terms {
		if _, err := stmt.Exec(term, count); err != nil {
			return fmt.Errorf("upsert term count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetTopTerms retrieves the top N terms by frequency.
func (s *SQLiteMetricsStore) GetTopTerms(limit int) ([]TermCount, error) {
	rows, err := s.db.Query(`
		SELECT term, count
		FROM call_terms
		ORDER BY count DESC, term ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top terms: %w", err)
	}
	defer rows.Close()

	var terms []TermCount
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		terms = append(terms, tc)
	}
	return terms, rows.Err()
}

// AddZeroResultCall appends to the zero-result log, keeping the newest
// zeroResultRetention entries.
func (s *SQLiteMetricsStore) AddZeroResultCall(call ZeroResultCall) error {
	ts := call.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO zero_result_calls (tool, terms, timestamp)
		VALUES (?, ?, ?)
	`, call.Tool, call.Terms, ts.UTC())
	if err != nil {
		return fmt.Errorf("insert zero-result call: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM zero_result_calls
		WHERE id NOT IN (
			SELECT id FROM zero_result_calls
			ORDER BY id DESC
			LIMIT ?
		)
	`, zeroResultRetention)
	if err != nil {
		return fmt.Errorf("trim zero-result calls: %w", err)
	}

	return nil
}

// GetZeroResultCalls retrieves recent zero-result calls, newest first.
func (s *SQLiteMetricsStore) GetZeroResultCalls(limit int) ([]ZeroResultCall, error) {
	rows, err := s.db.Query(`
		SELECT tool, terms, timestamp
		FROM zero_result_calls
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query zero-result calls: %w", err)
	}
	defer rows.Close()

	var calls []ZeroResultCall
	for rows.Next() {
		var c ZeroResultCall
		if err := rows.Scan(&c.Tool, &c.Terms, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// SaveLatencyCounts adds daily latency histogram counts.
func (s *SQLiteMetricsStore) SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO call_latency_stats (date, bucket, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, bucket) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for bucket, count := range counts {
		if _, err := stmt.Exec(date, string(bucket), count); err != nil {
			return fmt.Errorf("insert latency count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetLatencyCounts sums latency counts for an inclusive date range.
func (s *SQLiteMetricsStore) GetLatencyCounts(from, to string) (map[LatencyBucket]int64, error) {
	rows, err := s.db.Query(`
		SELECT bucket, SUM(count) as total
		FROM call_latency_stats
		WHERE date >= ? AND date <= ?
		GROUP BY bucket
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query latency counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[LatencyBucket]int64)
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[LatencyBucket(bucket)] = count
	}
	return counts, rows.Err()
}

// Close releases the connection when the store opened it.
func (s *SQLiteMetricsStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
