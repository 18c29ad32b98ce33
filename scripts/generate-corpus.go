//go:build ignore

// Package main generates a synthetic HFACS-classified ASRS corpus for manual
// testing and load checks.
// Usage: go run scripts/generate-corpus.go -records 5000 -output testdata/synthetic.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
)

var (
	numRecords   = flag.Int("records", 1000, "Number of records to generate")
	outputPath   = flag.String("output", "testdata/synthetic.json", "Output file")
	seed         = flag.Int64("seed", 42, "Random seed for reproducibility")
	unclassified = flag.Float64("unclassified", 0.1, "Fraction of records without a classification")
	firstACN     = flag.Int("first-acn", 1000000, "ACN of the first record")
)

// Value pools for the descriptive sections
var (
	aircraft = []string{
		"B737-800", "B737 MAX 8", "A320", "A321", "B777-300ER",
		"CRJ900", "E175", "Cessna 172", "Piper PA-28", "King Air 350",
	}
	phases = []string{
		"Taxi", "Takeoff / Launch", "Initial Climb", "Climb", "Cruise",
		"Descent", "Initial Approach", "Final Approach", "Landing", "Parked",
	}
	operators = []string{
		"Air Carrier", "Personal", "Corporate", "Air Taxi", "Fractional", "FBO",
	}
	conditions = []string{"VMC", "IMC", "Mixed", "Marginal"}
	airports   = []string{"ORD", "ATL", "DEN", "LAX", "SFO", "JFK", "SEA", "DFW", "BOS", "PHX"}
	anomalies  = []string{
		"Deviation - Altitude Excursion From Assigned Altitude",
		"Deviation - Track / Heading All Types",
		"Ground Incursion Runway",
		"Aircraft Equipment Problem Critical",
		"Conflict NMAC",
		"Inflight Event / Encounter Weather / Turbulence",
		"Deviation / Discrepancy - Procedural Clearance",
	}
	sentences = []string{
		"During %s the crew noticed the %s was not responding as expected.",
		"ATC issued a revised clearance during %s which the crew misread as %s.",
		"The first officer was flying and the captain was busy with the %s checklist during %s.",
		"We were fatigued after a long duty day and missed the %s callout during %s.",
		"Company pressure to stay on schedule led us to continue %s despite the %s.",
		"Weather at the field deteriorated during %s and the %s was not briefed.",
	}
	objects = []string{
		"autopilot", "altitude alerter", "hold short line", "flap handle",
		"FMC routing", "fuel imbalance", "TCAS advisory", "approach plate",
	}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if *numRecords <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -records must be positive")
		os.Exit(1)
	}

	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d records in %s...\n", *numRecords, *outputPath)

	taxonomy := hfacs.Reference()
	records := make([]map[string]any, 0, *numRecords)
	for i := 0; i < *numRecords; i++ {
		records = append(records, generateRecord(rng, taxonomy, *firstACN+i))
	}

	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		_ = f.Close()
		fmt.Fprintf(os.Stderr, "Error writing corpus: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing output file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d records successfully.\n", len(records))
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func generateRecord(rng *rand.Rand, taxonomy hfacs.Taxonomy, acn int) map[string]any {
	phase := pick(rng, phases)
	year := 2015 + rng.Intn(10)
	month := 1 + rng.Intn(12)

	rec := map[string]any{
		"ACN":        acn,
		"Time / Day": map[string]any{"Date": fmt.Sprintf("%04d%02d", year, month)},
		"Aircraft : 1": map[string]any{
			"Make Model Name":   pick(rng, aircraft),
			"Flight Phase":      phase,
			"Aircraft Operator": pick(rng, operators),
		},
		"Environment": map[string]any{"Flight Conditions": pick(rng, conditions)},
		"Place":       map[string]any{"Locale Reference.Airport": pick(rng, airports) + ".Airport"},
		"Events":      map[string]any{"Anomaly": pick(rng, anomalies)},
		"Narrative: 1": map[string]any{
			"text": fmt.Sprintf(pick(rng, sentences), phase, pick(rng, objects)),
		},
		"Synopsis": map[string]any{
			"text": fmt.Sprintf("Flight crew reported an event during %s.", phase),
		},
	}

	if rng.Float64() >= *unclassified {
		rec["hfacs_classification"] = generateClassification(rng, taxonomy)
	}
	return rec
}

// generateClassification draws one to three distinct entries from the
// reference taxonomy.
func generateClassification(rng *rand.Rand, taxonomy hfacs.Taxonomy) []map[string]any {
	n := 1 + rng.Intn(3)
	seen := make(map[string]bool, n)
	entries := make([]map[string]any, 0, n)

	for len(entries) < n {
		level := taxonomy.Levels[rng.Intn(len(taxonomy.Levels))]
		category := level.Categories[rng.Intn(len(level.Categories))]

		entry := map[string]any{"level": level.Name, "category": category.Name}
		key := level.Name + "/" + category.Name
		if len(category.SubCategories) > 0 {
			sub := pick(rng, category.SubCategories)
			entry["sub_category"] = sub
			key += "/" + sub
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, entry)
	}
	return entries
}
