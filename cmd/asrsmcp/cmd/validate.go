package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
	"github.com/Aman-CERP/asrsmcp/internal/output"
	"github.com/Aman-CERP/asrsmcp/internal/profiling"
)

// CorpusReport summarizes a loaded corpus for `asrsmcp validate`.
type CorpusReport struct {
	Path           string         `json:"path"`
	Records        int            `json:"records"`
	MissingID      int            `json:"missing_id"`
	DuplicateIDs   []string       `json:"duplicate_ids,omitempty"`
	Classified     int            `json:"classified"`
	Unclassified   int            `json:"unclassified"`
	WithNarrative  int            `json:"with_narrative"`
	EarliestPeriod string         `json:"earliest_period,omitempty"`
	LatestPeriod   string         `json:"latest_period,omitempty"`
	LevelCounts    map[string]int `json:"level_counts"`
	FieldCoverage  map[string]int `json:"field_coverage"`
	LoadTimeMs     int64          `json:"load_time_ms"`
	HeapBytes      uint64         `json:"heap_bytes"`
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		dataPath   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the corpus and report on its contents",
		Long: `Load the corpus exactly as 'serve' would and report record counts,
classification coverage and the reporting period covered.

A corpus that 'serve' would refuse to load fails here with the same error.
Missing or duplicate identifiers are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts, dataPath, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Corpus JSON file (overrides data.path)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *rootOptions, dataPath string, jsonOutput bool) error {
	if dataPath == "" {
		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		dataPath = cfg.Data.Path
	}

	start := time.Now()
	store, err := incident.LoadFile(dataPath)
	if err != nil {
		if jsonOutput {
			return writeJSONError(cmd, err)
		}
		return err
	}
	elapsed := time.Since(start)

	report := buildCorpusReport(store)
	report.Path = dataPath
	report.LoadTimeMs = elapsed.Milliseconds()
	report.HeapBytes = profiling.MemStats().HeapAlloc

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printCorpusReport(newOutput(cmd), report)
	return nil
}

// writeJSONError reports err as a JSON object on stdout for --json callers.
func writeJSONError(cmd *cobra.Command, err error) error {
	data, jerr := amerrors.FormatJSON(err)
	if jerr != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return errSilent
}

// buildCorpusReport walks every record once.
func buildCorpusReport(store *incident.Store) CorpusReport {
	report := CorpusReport{
		Records:       store.Len(),
		LevelCounts:   make(map[string]int),
		FieldCoverage: make(map[string]int, len(incident.Groups)),
	}
	for _, g := range incident.Groups {
		report.FieldCoverage[g.Field] = 0
	}

	seen := make(map[string]int, store.Len())
	for _, r := range store.Records() {
		if id := r.ID(); id == "" {
			report.MissingID++
		} else {
			seen[id]++
			if seen[id] == 2 {
				report.DuplicateIDs = append(report.DuplicateIDs, id)
			}
		}

		if entries, ok := hfacs.Entries(r); ok {
			report.Classified++
			levels := make(map[string]bool, len(entries))
			for _, e := range entries {
				if e.Level != "" && !levels[e.Level] {
					levels[e.Level] = true
					report.LevelCounts[e.Level]++
				}
			}
		} else {
			report.Unclassified++
		}

		if _, ok := incident.Narrative(r); ok {
			report.WithNarrative++
		}

		for _, g := range incident.Groups {
			if _, ok := g.Resolve(r); ok {
				report.FieldCoverage[g.Field]++
			}
		}

		if period, ok := incident.Date(r); ok {
			if report.EarliestPeriod == "" || period < report.EarliestPeriod {
				report.EarliestPeriod = period
			}
			if period > report.LatestPeriod {
				report.LatestPeriod = period
			}
		}
	}

	sort.Strings(report.DuplicateIDs)
	return report
}

func printCorpusReport(out *output.Writer, report CorpusReport) {
	out.Header("Corpus")
	out.Field("Path", report.Path)
	out.Field("Records", report.Records)
	out.Field("Classified", report.Classified)
	out.Field("Unclassified", report.Unclassified)
	out.Field("With narrative", report.WithNarrative)
	if report.EarliestPeriod != "" {
		out.Field("Reporting period", report.EarliestPeriod+" to "+report.LatestPeriod)
	}
	out.Field("Load time", time.Duration(report.LoadTimeMs)*time.Millisecond)
	out.Field("Heap in use", profiling.FormatBytes(report.HeapBytes))
	out.Newline()

	if len(report.LevelCounts) > 0 {
		out.Header("HFACS levels")
		levels := make([]string, 0, len(report.LevelCounts))
		for level := range report.LevelCounts {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		for _, level := range levels {
			out.Field(level, report.LevelCounts[level])
		}
		out.Newline()
	}

	out.Header("Field coverage")
	for _, g := range incident.Groups {
		out.Field(g.Field, report.FieldCoverage[g.Field])
	}
	out.Newline()

	if report.MissingID > 0 {
		out.Warningf("%d records have no ACN; they cannot be looked up by id", report.MissingID)
	}
	if len(report.DuplicateIDs) > 0 {
		out.Warningf("%d ids appear more than once; lookups return the first: %v",
			len(report.DuplicateIDs), report.DuplicateIDs)
	}
	out.Successf("Corpus loaded: %d records", report.Records)
}

// newOutput returns a Writer on the command's stdout, colored only when
// stdout is a terminal.
func newOutput(cmd *cobra.Command) *output.Writer {
	w := cmd.OutOrStdout()
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return output.NewWithColor(w, color)
}
