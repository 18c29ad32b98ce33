package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
)

func similarParams(id any, criteria ...string) SimilarParams {
	return SimilarParams{
		PrimaryID:       id,
		Criteria:        criteria,
		MinHFACSMatches: DefaultMinHFACSMatches,
		MaxResults:      DefaultSimilarMaxResults,
	}
}

func similarIDs(res SimilarResult) []string {
	ids := make([]string, 0, len(res.SimilarIncidents))
	for _, s := range res.SimilarIncidents {
		ids = append(ids, s.IncidentID)
	}
	return ids
}

func TestFindSimilar_SharedCategory(t *testing.T) {
	e := newTestEngine()

	res, err := e.FindSimilar(similarParams("2184152", CriterionCategory))

	require.NoError(t, err)
	assert.Equal(t, "2184152", res.PrimaryIncidentID)
	assert.Equal(t, []string{"1000001", "4000004"}, similarIDs(res))
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "Shared HFACS category: Errors", res.SimilarIncidents[0].Reason)
}

func TestFindSimilar_MinMatches(t *testing.T) {
	e := newTestEngine()

	p := similarParams("2184152", CriterionCategory)
	p.MinHFACSMatches = 2
	res, err := e.FindSimilar(p)

	require.NoError(t, err)
	assert.Empty(t, res.SimilarIncidents)
}

func TestFindSimilar_CombinedCriteria(t *testing.T) {
	e := newTestEngine()

	res, err := e.FindSimilar(similarParams("2184152", CriterionCategory, CriterionPhase, CriterionCategory))

	require.NoError(t, err)
	require.Equal(t, []string{"4000004"}, similarIDs(res))
	assert.Equal(t, "Shared HFACS category: Errors; Same phase of flight: Climb", res.SimilarIncidents[0].Reason)
}

func TestFindSimilar_StructuredOnly(t *testing.T) {
	e := newTestEngine()

	// The candidate need not be classified for structured criteria
	res, err := e.FindSimilar(similarParams("3000003", CriterionAircraft))

	require.NoError(t, err)
	require.Equal(t, []string{"2184152"}, similarIDs(res))
	assert.Equal(t, "Same aircraft type: B737-800", res.SimilarIncidents[0].Reason)
}

func TestFindSimilar_SharedValuesListed(t *testing.T) {
	e := newTestEngine()

	res, err := e.FindSimilar(similarParams("4000004", CriterionTopLevel, CriterionSubCategory))

	require.NoError(t, err)
	require.Equal(t, []string{"2184152"}, similarIDs(res))
	assert.Equal(t,
		"Shared HFACS top level: Unsafe Acts of Operators; Shared HFACS sub-category: Skill-Based Errors",
		res.SimilarIncidents[0].Reason)
}

func TestFindSimilar_Preconditions(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name     string
		primary  string
		criteria []string
		code     string
	}{
		{"unclassified primary", "3000003", []string{CriterionCategory}, amerrors.ErrCodeUnclassified},
		{"empty classification", "5000005", []string{CriterionTopLevel}, amerrors.ErrCodeMissingField},
		{"attribute present on some entries", "1000001", []string{CriterionSubCategory, CriterionCategory}, ""},
		{"missing aircraft type", "5000005", []string{CriterionAircraft}, amerrors.ErrCodeMissingField},
		{"missing phase", "5000005", []string{CriterionPhase}, amerrors.ErrCodeMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.FindSimilar(similarParams(tt.primary, tt.criteria...))
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			requireCode(t, err, tt.code)
			assert.Equal(t, amerrors.CategoryPrecondition, amerrors.GetCategory(err))
		})
	}
}

func TestFindSimilar_Validation(t *testing.T) {
	e := newTestEngine()

	_, err := e.FindSimilar(similarParams("2184152"))
	requireCode(t, err, amerrors.ErrCodeMissingParameter)

	_, err = e.FindSimilar(similarParams("2184152", "hfacs_everything"))
	requireCode(t, err, amerrors.ErrCodeInvalidInput)

	_, err = e.FindSimilar(similarParams(nil, CriterionCategory))
	requireCode(t, err, amerrors.ErrCodeMissingParameter)

	_, err = e.FindSimilar(similarParams("404", CriterionCategory))
	requireCode(t, err, amerrors.ErrCodeIncidentNotFound)

	p := similarParams("2184152", CriterionCategory)
	p.MinHFACSMatches = 0
	_, err = e.FindSimilar(p)
	requireCode(t, err, amerrors.ErrCodeInvalidRange)
}

func TestFindSimilar_Truncates(t *testing.T) {
	e := newTestEngine()

	p := similarParams("2184152", CriterionTopLevel)
	p.MaxResults = 1
	res, err := e.FindSimilar(p)

	require.NoError(t, err)
	assert.Equal(t, []string{"1000001"}, similarIDs(res))
}
