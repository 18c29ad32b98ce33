package query

import (
	"fmt"
	"strings"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

// SearchByKeyword finds records whose narrative, or failing that synopsis,
// contains the keyword. The first enabled source that matches supplies the
// snippet.
func (e *Engine) SearchByKeyword(p KeywordParams) (SnippetResult, error) {
	keyword := strings.TrimSpace(p.Keyword)
	if keyword == "" {
		return SnippetResult{}, amerrors.MissingParameter("keyword")
	}
	if !p.SearchInNarrative && !p.SearchInSynopsis {
		return SnippetResult{}, amerrors.ValidationError(
			"At least one of search_in_narrative or search_in_synopsis must be true.")
	}
	if err := requirePositive("max_results", p.MaxResults); err != nil {
		return SnippetResult{}, err
	}

	needle := foldNeedle(keyword)
	results := make([]SnippetMatch, 0, min(p.MaxResults, e.store.Len()))

	e.scan(func(r incident.Record) bool {
		if s, ok := keywordSnippet(r, needle, p.SearchInNarrative, p.SearchInSynopsis); ok {
			results = append(results, SnippetMatch{IncidentID: r.ID(), Snippet: s})
		}
		return len(results) < p.MaxResults
	})

	return SnippetResult{Count: len(results), Results: results}, nil
}

func keywordSnippet(r incident.Record, needle []rune, inNarrative, inSynopsis bool) (string, bool) {
	if inNarrative {
		if s, ok := incident.Narrative(r); ok {
			t := newText(s)
			if start, end := t.find(needle); start >= 0 {
				return t.snippet(start, end), true
			}
		}
	}
	if inSynopsis {
		if s, ok := incident.Synopsis(r); ok {
			t := newText(s)
			if start, end := t.find(needle); start >= 0 {
				return t.snippet(start, end), true
			}
		}
	}
	return "", false
}

// ExploreByDescription finds records where every whitespace-separated
// keyword appears in the narrative or the synopsis, then applies the
// optional aircraft, phase and period filters.
func (e *Engine) ExploreByDescription(p ExploreParams) (SnippetResult, error) {
	tokens := strings.Fields(p.DescriptionKeywords)
	if len(tokens) == 0 {
		return SnippetResult{}, amerrors.MissingParameter("description_keywords")
	}
	if p.YearYYYYMM != "" && !yearPattern.MatchString(p.YearYYYYMM) {
		return SnippetResult{}, amerrors.New(amerrors.ErrCodeInvalidDate,
			fmt.Sprintf("Invalid year_yyyymm format: %q. Expected YYYY or YYYYMM.", p.YearYYYYMM), nil).
			WithDetail("parameter", "year_yyyymm")
	}
	if err := requirePositive("max_results", p.MaxResults); err != nil {
		return SnippetResult{}, err
	}

	needles := make([][]rune, len(tokens))
	for i, tok := range tokens {
		needles[i] = foldNeedle(tok)
	}

	results := make([]SnippetMatch, 0, min(p.MaxResults, e.store.Len()))
	e.scan(func(r incident.Record) bool {
		if s, ok := e.explore(r, needles, p); ok {
			results = append(results, SnippetMatch{IncidentID: r.ID(), Snippet: s})
		}
		return len(results) < p.MaxResults
	})

	return SnippetResult{Count: len(results), Results: results}, nil
}

func (e *Engine) explore(r incident.Record, needles [][]rune, p ExploreParams) (string, bool) {
	var narrative, synopsis text
	if s, ok := incident.Narrative(r); ok {
		narrative = newText(s)
	}
	if s, ok := incident.Synopsis(r); ok {
		synopsis = newText(s)
	}
	if narrative.empty() && synopsis.empty() {
		return "", false
	}

	for _, n := range needles {
		if narrative.index(n) < 0 && synopsis.index(n) < 0 {
			return "", false
		}
	}

	if p.AircraftTypeContains != "" && !containsResolved(r, incident.AircraftType, p.AircraftTypeContains) {
		return "", false
	}
	if p.PhaseOfFlightContains != "" && !containsResolved(r, incident.FlightPhase, p.PhaseOfFlightContains) {
		return "", false
	}
	if p.YearYYYYMM != "" {
		d, ok := incident.Date(r)
		if !ok || !strings.HasPrefix(d, p.YearYYYYMM) {
			return "", false
		}
	}

	for _, n := range needles {
		if start, end := narrative.find(n); start >= 0 {
			return narrative.snippet(start, end), true
		}
		if start, end := synopsis.find(n); start >= 0 {
			return synopsis.snippet(start, end), true
		}
	}
	if !narrative.empty() {
		return narrative.prefix(), true
	}
	return synopsis.prefix(), true
}
