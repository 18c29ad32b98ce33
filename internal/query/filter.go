package query

import (
	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

type criterion struct {
	attr  hfacs.Attribute
	value string
}

// ListByHFACS returns records with at least one classification entry that
// satisfies the supplied criteria: all of them when MatchAll is set,
// otherwise any. Values compare case-insensitively for equality. With no
// criteria the rule holds vacuously: every classified record matches under
// MatchAll and none otherwise.
func (e *Engine) ListByHFACS(p HFACSParams) (IDListResult, error) {
	var criteria []criterion
	for _, c := range []criterion{
		{hfacs.AttrLevel, p.Level},
		{hfacs.AttrCategory, p.Category},
		{hfacs.AttrSubCategory, p.SubCategory},
	} {
		if c.value != "" {
			c.value = incident.Fold(c.value)
			criteria = append(criteria, c)
		}
	}
	if err := requirePositive("max_results", p.MaxResults); err != nil {
		return IDListResult{}, err
	}

	return e.collectIDs(p.MaxResults, func(r incident.Record) bool {
		entries, _ := hfacs.Entries(r)
		for _, entry := range entries {
			if entryMatches(entry, criteria, p.MatchAll) {
				return true
			}
		}
		return false
	}), nil
}

func entryMatches(entry hfacs.Entry, criteria []criterion, matchAll bool) bool {
	for _, c := range criteria {
		v := entry.Value(c.attr)
		hit := v != "" && incident.Fold(v) == c.value
		if matchAll && !hit {
			return false
		}
		if !matchAll && hit {
			return true
		}
	}
	return matchAll
}

// ListByDateRange returns records whose YYYYMM period lies within
// [StartDate, EndDate].
func (e *Engine) ListByDateRange(p DateRangeParams) (IDListResult, error) {
	if err := validateYYYYMM("start_date_yyyymm", p.StartDate); err != nil {
		return IDListResult{}, err
	}
	if err := validateYYYYMM("end_date_yyyymm", p.EndDate); err != nil {
		return IDListResult{}, err
	}
	if err := validateOrder(p.StartDate, p.EndDate); err != nil {
		return IDListResult{}, err
	}
	if err := requirePositive("max_results", p.MaxResults); err != nil {
		return IDListResult{}, err
	}

	return e.collectIDs(p.MaxResults, func(r incident.Record) bool {
		d, ok := incident.Date(r)
		return ok && d >= p.StartDate && d <= p.EndDate
	}), nil
}

// ListByStructuredData returns records passing every supplied filter.
// Contains filters match substrings, exact filters require full equality;
// both ignore case.
func (e *Engine) ListByStructuredData(p StructuredParams) (IDListResult, error) {
	var filters []func(incident.Record) bool
	if v := p.AircraftOperatorContains; v != "" {
		filters = append(filters, func(r incident.Record) bool { return containsResolved(r, incident.AircraftOperator, v) })
	}
	if v := p.FlightPhaseExact; v != "" {
		filters = append(filters, func(r incident.Record) bool { return equalsResolved(r, incident.FlightPhase, v) })
	}
	if v := p.EnvironmentFlightConditionsExact; v != "" {
		filters = append(filters, func(r incident.Record) bool { return equalsResolved(r, incident.FlightConditions, v) })
	}
	if v := p.LocationAirportCodeExact; v != "" {
		filters = append(filters, func(r incident.Record) bool { return equalsResolved(r, incident.AirportCode, v) })
	}
	if v := p.AnomalyTypeContains; v != "" {
		filters = append(filters, func(r incident.Record) bool { return incident.HasAnomaly(r, v) })
	}
	if len(filters) == 0 {
		return IDListResult{}, amerrors.New(amerrors.ErrCodeNoFilter,
			"At least one structured data filter must be provided.", nil)
	}
	if err := requirePositive("max_results", p.MaxResults); err != nil {
		return IDListResult{}, err
	}

	return e.collectIDs(p.MaxResults, func(r incident.Record) bool {
		for _, f := range filters {
			if !f(r) {
				return false
			}
		}
		return true
	}), nil
}
