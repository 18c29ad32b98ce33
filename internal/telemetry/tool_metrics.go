// Package telemetry provides tool call telemetry for the asrsmcp server.
// All telemetry data is stored locally; Prometheus collectors are only
// exposed when an operator asks for a metrics listener.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// Call Outcome
// =============================================================================

// Outcome classifies how a tool call ended.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// =============================================================================
// Latency Buckets
// =============================================================================

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// =============================================================================
// Call Event
// =============================================================================

// CallEvent describes a single dispatched tool call.
type CallEvent struct {
	Tool        string
	Outcome     Outcome
	ErrorCode   string // empty on success
	ResultCount int
	Terms       string // free-text search input, if the tool takes one
	Latency     time.Duration
	Timestamp   time.Time
}

// IsZeroResult reports whether a successful call matched nothing.
func (e CallEvent) IsZeroResult() bool {
	return e.Outcome == OutcomeOK && e.ResultCount == 0
}

// Recorder consumes call events.
type Recorder interface {
	Record(event CallEvent)
}

// multiRecorder fans events out to several recorders.
type multiRecorder []Recorder

func (m multiRecorder) Record(event CallEvent) {
	for _, r := range m {
		r.Record(event)
	}
}

// Multi returns a Recorder forwarding to every non-nil recorder.
// Returns nil when none remain.
func Multi(recorders ...Recorder) Recorder {
	var out multiRecorder
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// =============================================================================
// Circular Buffer
// =============================================================================

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	items    []T
	head     int // Next write position
	size     int // Current number of items
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a new circular buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item to the buffer. If full, the oldest item is evicted.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity

	if b.size < b.capacity {
		b.size++
	}
}

// Items returns all items in the buffer in FIFO order (oldest first).
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return []T{}
	}

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		// Buffer full - oldest item is at head
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// =============================================================================
// Term Extraction
// =============================================================================

// ExtractTerms splits free-text input into lowercased terms of at least
// three bytes.
func ExtractTerms(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	var terms []string
	for _, w := range strings.Fields(text) {
		if len(w) >= 3 {
			terms = append(terms, w)
		}
	}
	return terms
}

// TermCount represents a term and its frequency count.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// CallKey identifies a (tool, outcome) counter.
type CallKey struct {
	Tool    string
	Outcome Outcome
}

// ZeroResultCall is a successful call that matched nothing.
type ZeroResultCall struct {
	Tool      string    `json:"tool"`
	Terms     string    `json:"terms"`
	Timestamp time.Time `json:"timestamp"`
}

// =============================================================================
// Snapshot
// =============================================================================

// ToolStats aggregates calls to one tool.
type ToolStats struct {
	Calls  int64 `json:"calls"`
	Errors int64 `json:"errors"`
}

// Snapshot is an immutable view of tool metrics.
type Snapshot struct {
	Tools               map[string]ToolStats    `json:"tools"`
	ErrorCodes          map[string]int64        `json:"error_codes"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroResultCalls     []ZeroResultCall        `json:"zero_result_calls"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TotalCalls          int64                   `json:"total_calls"`
	ErrorCount          int64                   `json:"error_count"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	ExactRepeatCount    int64                   `json:"exact_repeat_count"`
	Since               time.Time               `json:"since"`
}

// ErrorRate returns the fraction of calls that failed.
func (s *Snapshot) ErrorRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.TotalCalls)
}

// =============================================================================
// Store Interface
// =============================================================================

// MetricsStore defines persistence operations for tool metrics.
type MetricsStore interface {
	// SaveCallCounts adds daily per-tool outcome counts.
	SaveCallCounts(date string, counts map[CallKey]int64) error

	// GetCallCounts sums counts for an inclusive date range.
	GetCallCounts(from, to string) (map[CallKey]int64, error)

	// UpsertTermCounts adds to term frequency counts.
	UpsertTermCounts(terms map[string]int64) error

	// GetTopTerms retrieves the top N terms by frequency.
	GetTopTerms(limit int) ([]TermCount, error)

	// AddZeroResultCall appends to the bounded zero-result log.
	AddZeroResultCall(call ZeroResultCall) error

	// GetZeroResultCalls retrieves recent zero-result calls, newest first.
	GetZeroResultCalls(limit int) ([]ZeroResultCall, error)

	// SaveLatencyCounts adds daily latency histogram counts.
	SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error

	// GetLatencyCounts sums latency counts for an inclusive date range.
	GetLatencyCounts(from, to string) (map[LatencyBucket]int64, error)

	// Close releases resources.
	Close() error
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the tool metrics collector.
type Config struct {
	TopTermsCapacity    int           // Max terms to track (default: 100)
	ZeroResultsCapacity int           // Max zero-result calls to keep (default: 100)
	RecentCallsCapacity int           // Max calls remembered for repeat detection (default: 500)
	FlushInterval       time.Duration // How often to flush to store (0 = no auto-flush)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:    100,
		ZeroResultsCapacity: 100,
		RecentCallsCapacity: 500,
		FlushInterval:       60 * time.Second,
	}
}

// =============================================================================
// Tool Metrics
// =============================================================================

// pending holds counts accumulated since the last flush.
type pending struct {
	calls     map[CallKey]int64
	terms     map[string]int64
	latencies map[LatencyBucket]int64
	zero      []ZeroResultCall
}

func newPending() pending {
	return pending{
		calls:     make(map[CallKey]int64),
		terms:     make(map[string]int64),
		latencies: make(map[LatencyBucket]int64),
	}
}

func (p pending) empty() bool {
	return len(p.calls) == 0 && len(p.terms) == 0 && len(p.latencies) == 0 && len(p.zero) == 0
}

// ToolMetrics collects tool call telemetry.
// Thread-safe for concurrent access.
type ToolMetrics struct {
	mu sync.Mutex

	// Session aggregates
	tools           map[string]ToolStats
	errorCodes      map[string]int64
	topTerms        *lru.Cache[string, int64]
	zeroResults     *CircularBuffer[ZeroResultCall]
	latencies       map[LatencyBucket]int64
	totalCalls      int64
	errorCount      int64
	zeroResultCount int64
	startTime       time.Time

	recentCalls      *lru.Cache[string, struct{}]
	exactRepeatCount int64

	// Persistence
	unflushed   pending
	store       MetricsStore
	flushTicker *time.Ticker
	stopCh      chan struct{}
	doneCh      chan struct{}
	closed      bool
	now         func() time.Time
}

// NewToolMetrics creates a collector with default configuration.
// If store is nil, metrics are only kept in memory.
func NewToolMetrics(store MetricsStore) *ToolMetrics {
	return NewToolMetricsWithConfig(store, DefaultConfig())
}

// NewToolMetricsWithConfig creates a collector with custom configuration.
func NewToolMetricsWithConfig(store MetricsStore, cfg Config) *ToolMetrics {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = 100
	}
	if cfg.RecentCallsCapacity <= 0 {
		cfg.RecentCallsCapacity = 500
	}

	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	recentCalls, _ := lru.New[string, struct{}](cfg.RecentCallsCapacity)

	m := &ToolMetrics{
		tools:       make(map[string]ToolStats),
		errorCodes:  make(map[string]int64),
		topTerms:    topTerms,
		zeroResults: NewCircularBuffer[ZeroResultCall](cfg.ZeroResultsCapacity),
		latencies:   make(map[LatencyBucket]int64),
		startTime:   time.Now(),
		recentCalls: recentCalls,
		unflushed:   newPending(),
		store:       store,
		now:         time.Now,
	}

	if cfg.FlushInterval > 0 && store != nil {
		m.flushTicker = time.NewTicker(cfg.FlushInterval)
		m.stopCh = make(chan struct{})
		m.doneCh = make(chan struct{})
		go m.flushLoop()
	}

	return m
}

// flushLoop periodically flushes metrics to storage.
func (m *ToolMetrics) flushLoop() {
	defer close(m.doneCh)
	for {
		select {
		case <-m.flushTicker.C:
			_ = m.Flush()
		case <-m.stopCh:
			return
		}
	}
}

// Record captures one tool call. Calls after Close are ignored.
func (m *ToolMetrics) Record(event CallEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	stats := m.tools[event.Tool]
	stats.Calls++
	m.totalCalls++
	if event.Outcome == OutcomeError {
		stats.Errors++
		m.errorCount++
		if event.ErrorCode != "" {
			m.errorCodes[event.ErrorCode]++
		}
	}
	m.tools[event.Tool] = stats
	m.unflushed.calls[CallKey{Tool: event.Tool, Outcome: event.Outcome}]++

	for _, term := range ExtractTerms(event.Terms) {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
		m.unflushed.terms[term]++
	}

	if event.IsZeroResult() {
		call := ZeroResultCall{Tool: event.Tool, Terms: event.Terms, Timestamp: event.Timestamp}
		m.zeroResults.Add(call)
		m.unflushed.zero = append(m.unflushed.zero, call)
		m.zeroResultCount++
	}

	bucket := LatencyToBucket(event.Latency)
	m.latencies[bucket]++
	m.unflushed.latencies[bucket]++

	key := hashCall(event.Tool, event.Terms)
	if _, exists := m.recentCalls.Get(key); exists {
		m.exactRepeatCount++
	}
	m.recentCalls.Add(key, struct{}{})
}

// hashCall creates a normalized key for repeat detection.
func hashCall(tool, terms string) string {
	normalized := tool + "\x00" + strings.ToLower(strings.TrimSpace(terms))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:16])
}

// Snapshot returns current session metrics.
func (m *ToolMetrics) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	tools := make(map[string]ToolStats, len(m.tools))
	for k, v := range m.tools {
		tools[k] = v
	}
	codes := make(map[string]int64, len(m.errorCodes))
	for k, v := range m.errorCodes {
		codes[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	topTerms := make([]TermCount, 0, m.topTerms.Len())
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			topTerms = append(topTerms, TermCount{Term: key, Count: count})
		}
	}
	sort.SliceStable(topTerms, func(i, j int) bool {
		return topTerms[i].Count > topTerms[j].Count
	})

	return &Snapshot{
		Tools:               tools,
		ErrorCodes:          codes,
		TopTerms:            topTerms,
		ZeroResultCalls:     m.zeroResults.Items(),
		LatencyDistribution: latencies,
		TotalCalls:          m.totalCalls,
		ErrorCount:          m.errorCount,
		ZeroResultCount:     m.zeroResultCount,
		ExactRepeatCount:    m.exactRepeatCount,
		Since:               m.startTime,
	}
}

// Flush persists counts accumulated since the previous flush.
// Safe to call even if no store is configured. On failure the batch is
// dropped so a broken store cannot grow memory without bound.
func (m *ToolMetrics) Flush() error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	batch := m.unflushed
	m.unflushed = newPending()
	date := m.now().Format("2006-01-02")
	m.mu.Unlock()

	if batch.empty() {
		return nil
	}

	if err := m.store.SaveCallCounts(date, batch.calls); err != nil {
		return err
	}
	if err := m.store.UpsertTermCounts(batch.terms); err != nil {
		return err
	}
	if err := m.store.SaveLatencyCounts(date, batch.latencies); err != nil {
		return err
	}
	for _, call := range batch.zero {
		if err := m.store.AddZeroResultCall(call); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the flush loop and performs a final flush.
func (m *ToolMetrics) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.flushTicker != nil {
		m.flushTicker.Stop()
		close(m.stopCh)
		<-m.doneCh
	}

	return m.Flush()
}
