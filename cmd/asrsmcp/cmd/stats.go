package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/asrsmcp/internal/telemetry"
)

// statsListLimit bounds the top terms and zero-result calls shown.
const statsListLimit = 10

func newStatsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics and telemetry",
		Long:  `Display tool call statistics persisted by 'asrsmcp serve'.`,
	}

	cmd.AddCommand(newStatsToolsCmd(opts))
	return cmd
}

func newStatsToolsCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		days       int
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Show tool call statistics",
		Long: `Display tool call telemetry including:
  - Calls and errors per tool
  - Top search terms
  - Recent zero-result calls
  - Latency distribution`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatsTools(cmd, opts, dbPath, jsonOutput, days)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include")
	cmd.Flags().StringVar(&dbPath, "db", "", "Telemetry database (overrides telemetry.db_path)")

	return cmd
}

// StatsToolsOutput is the JSON output format for tool call stats.
type StatsToolsOutput struct {
	Summary             StatsToolsSummary          `json:"summary"`
	Tools               map[string]StatsToolCounts `json:"tools"`
	TopTerms            []telemetry.TermCount      `json:"top_terms"`
	ZeroResultCalls     []telemetry.ZeroResultCall `json:"zero_result_calls"`
	LatencyDistribution map[string]int64           `json:"latency_distribution"`
}

// StatsToolsSummary provides overview statistics.
type StatsToolsSummary struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	TotalCalls   int64   `json:"total_calls"`
	ErrorCount   int64   `json:"error_count"`
	ErrorRatePct float64 `json:"error_rate_pct"`
}

// StatsToolCounts is the per-tool breakdown.
type StatsToolCounts struct {
	Calls  int64 `json:"calls"`
	Errors int64 `json:"errors"`
}

func runStatsTools(cmd *cobra.Command, opts *rootOptions, dbPath string, jsonOutput bool, days int) error {
	if days <= 0 {
		return fmt.Errorf("--days must be positive, got %d", days)
	}

	if dbPath == "" {
		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		dbPath = cfg.Telemetry.DBPath
	}
	if dbPath == "" || !fileExists(dbPath) {
		return fmt.Errorf("no telemetry database found at %q\nRun 'asrsmcp serve' with telemetry enabled to record tool calls", dbPath)
	}

	store, err := telemetry.OpenSQLiteMetricsStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open telemetry database: %w", err)
	}
	defer func() { _ = store.Close() }()

	out, err := getToolStats(store, days, time.Now())
	if err != nil {
		return fmt.Errorf("failed to get tool stats: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printStatsFormatted(cmd, out)
	return nil
}

// getToolStats reads the last days calendar days, today included.
func getToolStats(store *telemetry.SQLiteMetricsStore, days int, now time.Time) (*StatsToolsOutput, error) {
	to := now.Format("2006-01-02")
	from := now.AddDate(0, 0, -(days - 1)).Format("2006-01-02")

	calls, err := store.GetCallCounts(from, to)
	if err != nil {
		return nil, fmt.Errorf("get call counts: %w", err)
	}
	latency, err := store.GetLatencyCounts(from, to)
	if err != nil {
		return nil, fmt.Errorf("get latency counts: %w", err)
	}
	topTerms, err := store.GetTopTerms(statsListLimit)
	if err != nil {
		return nil, fmt.Errorf("get top terms: %w", err)
	}
	zeroResults, err := store.GetZeroResultCalls(statsListLimit)
	if err != nil {
		return nil, fmt.Errorf("get zero-result calls: %w", err)
	}

	out := &StatsToolsOutput{
		Summary:             StatsToolsSummary{From: from, To: to},
		Tools:               make(map[string]StatsToolCounts),
		TopTerms:            topTerms,
		ZeroResultCalls:     zeroResults,
		LatencyDistribution: make(map[string]int64, len(latency)),
	}
	if out.TopTerms == nil {
		out.TopTerms = []telemetry.TermCount{}
	}
	if out.ZeroResultCalls == nil {
		out.ZeroResultCalls = []telemetry.ZeroResultCall{}
	}

	for key, n := range calls {
		tc := out.Tools[key.Tool]
		tc.Calls += n
		out.Summary.TotalCalls += n
		if key.Outcome == telemetry.OutcomeError {
			tc.Errors += n
			out.Summary.ErrorCount += n
		}
		out.Tools[key.Tool] = tc
	}
	if out.Summary.TotalCalls > 0 {
		out.Summary.ErrorRatePct = float64(out.Summary.ErrorCount) / float64(out.Summary.TotalCalls) * 100
	}

	for bucket, n := range latency {
		out.LatencyDistribution[string(bucket)] = n
	}

	return out, nil
}

func printStatsFormatted(cmd *cobra.Command, out *StatsToolsOutput) {
	w := cmd.OutOrStdout()

	_, _ = fmt.Fprintln(w, "Tool Call Statistics")
	_, _ = fmt.Fprintln(w, "====================")
	_, _ = fmt.Fprintf(w, "Period: %s to %s\n", out.Summary.From, out.Summary.To)
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintf(w, "Total Calls: %d\n", out.Summary.TotalCalls)
	_, _ = fmt.Fprintf(w, "Errors:      %d (%.1f%%)\n", out.Summary.ErrorCount, out.Summary.ErrorRatePct)
	_, _ = fmt.Fprintln(w)

	if len(out.Tools) > 0 {
		names := make([]string, 0, len(out.Tools))
		for name := range out.Tools {
			names = append(names, name)
		}
		// Busiest first, then by name
		sort.Slice(names, func(i, j int) bool {
			ci, cj := out.Tools[names[i]].Calls, out.Tools[names[j]].Calls
			if ci != cj {
				return ci > cj
			}
			return names[i] < names[j]
		})

		_, _ = fmt.Fprintln(w, "Calls by Tool:")
		for _, name := range names {
			tc := out.Tools[name]
			_, _ = fmt.Fprintf(w, "  %s: %d (%d errors)\n", name, tc.Calls, tc.Errors)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(out.TopTerms) > 0 {
		_, _ = fmt.Fprintln(w, "Top Search Terms:")
		for i, tc := range out.TopTerms {
			_, _ = fmt.Fprintf(w, "  %d. %s (%d)\n", i+1, tc.Term, tc.Count)
		}
	} else {
		_, _ = fmt.Fprintln(w, "Top Search Terms: (none recorded yet)")
	}
	_, _ = fmt.Fprintln(w)

	if len(out.ZeroResultCalls) > 0 {
		_, _ = fmt.Fprintln(w, "Recent Zero-Result Calls:")
		for _, c := range out.ZeroResultCalls {
			_, _ = fmt.Fprintf(w, "  - %s \"%s\"\n", c.Tool, c.Terms)
		}
	} else {
		_, _ = fmt.Fprintln(w, "Recent Zero-Result Calls: (none)")
	}
	_, _ = fmt.Fprintln(w)

	if len(out.LatencyDistribution) > 0 {
		_, _ = fmt.Fprintln(w, "Latency Distribution:")
		buckets := []telemetry.LatencyBucket{
			telemetry.BucketP10, telemetry.BucketP50, telemetry.BucketP100,
			telemetry.BucketP500, telemetry.BucketP1000,
		}
		labels := map[telemetry.LatencyBucket]string{
			telemetry.BucketP10:   "<10ms",
			telemetry.BucketP50:   "10-50ms",
			telemetry.BucketP100:  "50-100ms",
			telemetry.BucketP500:  "100-500ms",
			telemetry.BucketP1000: ">500ms",
		}
		for _, b := range buckets {
			if count, ok := out.LatencyDistribution[string(b)]; ok {
				_, _ = fmt.Fprintf(w, "  %s: %d\n", labels[b], count)
			}
		}
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
