package query

import (
	"fmt"
	"strings"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

// Similarity criteria.
const (
	CriterionTopLevel    = "hfacs_top_level"
	CriterionCategory    = "hfacs_category"
	CriterionSubCategory = "hfacs_sub_category"
	CriterionAircraft    = "aircraft_type"
	CriterionPhase       = "phase_of_flight"
)

// SimilarityCriteria lists the accepted criteria in canonical order.
var SimilarityCriteria = []string{
	CriterionTopLevel,
	CriterionCategory,
	CriterionSubCategory,
	CriterionAircraft,
	CriterionPhase,
}

type hfacsCriterion struct {
	attr  hfacs.Attribute
	label string
}

type structuredCriterion struct {
	resolve func(incident.Record) (string, bool)
	label   string
}

var (
	hfacsCriteria = map[string]hfacsCriterion{
		CriterionTopLevel:    {hfacs.AttrLevel, "top level"},
		CriterionCategory:    {hfacs.AttrCategory, "category"},
		CriterionSubCategory: {hfacs.AttrSubCategory, "sub-category"},
	}
	structuredCriteria = map[string]structuredCriterion{
		CriterionAircraft: {incident.AircraftType, "aircraft type"},
		CriterionPhase:    {incident.FlightPhase, "phase of flight"},
	}
)

// valueSet is an insertion-ordered set of folded values remembering the
// first spelling seen for each.
type valueSet struct {
	keys    []string
	display map[string]string
}

func newValueSet() *valueSet {
	return &valueSet{display: make(map[string]string)}
}

func (s *valueSet) add(v string) {
	if v == "" {
		return
	}
	k := incident.Fold(v)
	if _, ok := s.display[k]; ok {
		return
	}
	s.keys = append(s.keys, k)
	s.display[k] = v
}

func (s *valueSet) has(k string) bool {
	_, ok := s.display[k]
	return ok
}

func attributeSet(entries []hfacs.Entry, attr hfacs.Attribute) *valueSet {
	s := newValueSet()
	for _, e := range entries {
		s.add(e.Value(attr))
	}
	return s
}

// primaryHFACS is one requested HFACS criterion with the primary's values.
type primaryHFACS struct {
	hfacsCriterion
	values *valueSet
}

// primaryStructured is one requested structured criterion with the primary's value.
type primaryStructured struct {
	structuredCriterion
	value string
}

// FindSimilar returns records resembling the primary on every requested
// criterion. HFACS criteria require at least MinHFACSMatches shared values;
// structured criteria require equal resolved values.
func (e *Engine) FindSimilar(p SimilarParams) (SimilarResult, error) {
	criteria, err := normalizeCriteria(p.Criteria)
	if err != nil {
		return SimilarResult{}, err
	}
	if err := requirePositive("min_hfacs_matches", p.MinHFACSMatches); err != nil {
		return SimilarResult{}, err
	}
	if err := requirePositive("max_results", p.MaxResults); err != nil {
		return SimilarResult{}, err
	}

	primary, _, err := e.lookup("primary_id", p.PrimaryID)
	if err != nil {
		return SimilarResult{}, err
	}
	primaryID := primary.ID()

	var wantHFACS []primaryHFACS
	var wantStructured []primaryStructured
	primaryEntries, classified := hfacs.Entries(primary)

	for _, name := range criteria {
		if hc, ok := hfacsCriteria[name]; ok {
			if !classified {
				return SimilarResult{}, amerrors.Precondition(amerrors.ErrCodeUnclassified,
					fmt.Sprintf("Primary incident %s has no HFACS classification; cannot compare on %s.", primaryID, name)).
					WithDetail("criterion", name)
			}
			set := attributeSet(primaryEntries, hc.attr)
			if len(set.keys) == 0 {
				return SimilarResult{}, amerrors.Precondition(amerrors.ErrCodeMissingField,
					fmt.Sprintf("Primary incident %s has no HFACS %s values to compare.", primaryID, hc.label)).
					WithDetail("criterion", name)
			}
			wantHFACS = append(wantHFACS, primaryHFACS{hfacsCriterion: hc, values: set})
			continue
		}

		sc := structuredCriteria[name]
		v, ok := sc.resolve(primary)
		if !ok {
			return SimilarResult{}, amerrors.Precondition(amerrors.ErrCodeMissingField,
				fmt.Sprintf("Primary incident %s has no %s to compare.", primaryID, sc.label)).
				WithDetail("criterion", name)
		}
		wantStructured = append(wantStructured, primaryStructured{structuredCriterion: sc, value: v})
	}

	matches := make([]SimilarMatch, 0, min(p.MaxResults, e.store.Len()))
	e.scan(func(r incident.Record) bool {
		if r.ID() == primaryID {
			return true
		}
		if reason, ok := similarity(r, wantHFACS, wantStructured, p.MinHFACSMatches); ok {
			matches = append(matches, SimilarMatch{IncidentID: r.ID(), Reason: reason})
		}
		return len(matches) < p.MaxResults
	})

	return SimilarResult{
		Count:             len(matches),
		PrimaryIncidentID: primaryID,
		SimilarIncidents:  matches,
	}, nil
}

func similarity(r incident.Record, wantHFACS []primaryHFACS, wantStructured []primaryStructured, minMatches int) (string, bool) {
	reasons := make([]string, 0, len(wantHFACS)+len(wantStructured))

	if len(wantHFACS) > 0 {
		entries, _ := hfacs.Entries(r)
		for _, want := range wantHFACS {
			have := attributeSet(entries, want.attr)
			var shared []string
			for _, k := range want.values.keys {
				if have.has(k) {
					shared = append(shared, want.values.display[k])
				}
			}
			if len(shared) < minMatches {
				return "", false
			}
			reasons = append(reasons, fmt.Sprintf("Shared HFACS %s: %s", want.label, strings.Join(shared, ", ")))
		}
	}

	for _, want := range wantStructured {
		if !equalsResolved(r, want.resolve, want.value) {
			return "", false
		}
		reasons = append(reasons, fmt.Sprintf("Same %s: %s", want.label, want.value))
	}

	return strings.Join(reasons, "; "), true
}

// normalizeCriteria deduplicates criteria preserving order and rejects
// unknown names.
func normalizeCriteria(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		if _, ok := hfacsCriteria[c]; !ok {
			if _, ok := structuredCriteria[c]; !ok {
				return nil, amerrors.Validationf("Invalid similarity criterion: %q. Valid options: %s.",
					c, strings.Join(SimilarityCriteria, ", ")).
					WithDetail("parameter", "similarity_criteria")
			}
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, amerrors.MissingParameter("similarity_criteria")
	}
	return out, nil
}
