package tools

import (
	"context"

	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
	"github.com/Aman-CERP/asrsmcp/internal/query"
)

// reader reads several parameters, keeping the first coercion error.
type reader struct {
	args Args
	err  error
}

func (r *reader) str(name string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.args.String(name)
	r.err = err
	return v
}

func (r *reader) int(name string) int {
	if r.err != nil {
		return 0
	}
	v, err := r.args.Int(name)
	r.err = err
	return v
}

func (r *reader) bool(name string) bool {
	if r.err != nil {
		return false
	}
	v, err := r.args.Bool(name)
	r.err = err
	return v
}

func (r *reader) id(name string) any {
	if r.err != nil {
		return nil
	}
	v, err := r.args.ID(name)
	r.err = err
	return v
}

func (r *reader) list(name string) []string {
	if r.err != nil {
		return nil
	}
	v, err := r.args.StringList(name)
	r.err = err
	return v
}

const (
	descID         = "Incident identifier (ACN), as a string or number."
	descMaxResults = "Maximum number of results to return; scanning stops once reached."
	descStartDate  = "Start of the period, inclusive, as YYYYMM."
	descEndDate    = "End of the period, inclusive, as YYYYMM."
)

func idParam(name string) Param {
	return Param{Name: name, Type: TypeID, Required: true, Description: descID}
}

func maxResultsParam(def int) Param {
	return Param{Name: "max_results", Type: TypeInteger, Default: def, Description: descMaxResults}
}

func queryTools(e *query.Engine) []*Descriptor {
	return []*Descriptor{
		{
			Name:        "get_incident_details",
			Description: "Return the full record of one incident by its ACN.",
			Params:      []Param{idParam("id")},
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				id := r.id("id")
				if r.err != nil {
					return nil, r.err
				}
				return e.IncidentDetails(id)
			},
		},
		{
			Name:        "get_hfacs_classification",
			Description: "Return the HFACS classification entries recorded for one incident.",
			Params:      []Param{idParam("id")},
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				id := r.id("id")
				if r.err != nil {
					return nil, r.err
				}
				return e.HFACSClassification(id)
			},
		},
		{
			Name:        "list_incidents_by_hfacs",
			Description: "List incidents with a classification entry matching the given HFACS level, category or sub-category (case-insensitive).",
			Params: []Param{
				{Name: "level", Type: TypeString, Description: "HFACS top level, e.g. Unsafe Acts of Operators."},
				{Name: "category", Type: TypeString, Description: "HFACS category, e.g. Errors."},
				{Name: "sub_category", Type: TypeString, Description: "HFACS sub-category, e.g. Decision Errors."},
				{Name: "match_all", Type: TypeBoolean, Default: true, Description: "Require one entry to satisfy every given criterion; otherwise any criterion suffices."},
				maxResultsParam(query.DefaultHFACSMaxResults),
			},
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				p := query.HFACSParams{
					Level:       r.str("level"),
					Category:    r.str("category"),
					SubCategory: r.str("sub_category"),
					MatchAll:    r.bool("match_all"),
					MaxResults:  r.int("max_results"),
				}
				if r.err != nil {
					return nil, r.err
				}
				return e.ListByHFACS(p)
			},
		},
		{
			Name:        "get_incident_narrative",
			Description: "Return the narrative text of one incident, falling back to its synopsis.",
			Params:      []Param{idParam("id")},
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				id := r.id("id")
				if r.err != nil {
					return nil, r.err
				}
				return e.IncidentNarrative(id)
			},
		},
		{
			Name:        "search_incidents_by_keyword",
			Description: "Find incidents whose narrative or synopsis contains a keyword (case-insensitive) and return a snippet around the match.",
			Params: []Param{
				{Name: "keyword", Type: TypeString, Required: true, Description: "Text to search for."},
				{Name: "search_in_narrative", Type: TypeBoolean, Default: true, Description: "Search narrative text."},
				{Name: "search_in_synopsis", Type: TypeBoolean, Default: true, Description: "Search the synopsis when the narrative does not match."},
				maxResultsParam(query.DefaultKeywordMaxResults),
			},
			TermsParam: "keyword",
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				p := query.KeywordParams{
					Keyword:           r.str("keyword"),
					SearchInNarrative: r.bool("search_in_narrative"),
					SearchInSynopsis:  r.bool("search_in_synopsis"),
					MaxResults:        r.int("max_results"),
				}
				if r.err != nil {
					return nil, r.err
				}
				return e.SearchByKeyword(p)
			},
		},
		{
			Name:        "list_incidents_by_date_range",
			Description: "List incidents whose report date falls within an inclusive YYYYMM range.",
			Params: []Param{
				{Name: "start_date_yyyymm", Type: TypeString, Required: true, Description: descStartDate},
				{Name: "end_date_yyyymm", Type: TypeString, Required: true, Description: descEndDate},
				maxResultsParam(query.DefaultDateRangeMaxResults),
			},
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				p := query.DateRangeParams{
					StartDate:  r.str("start_date_yyyymm"),
					EndDate:    r.str("end_date_yyyymm"),
					MaxResults: r.int("max_results"),
				}
				if r.err != nil {
					return nil, r.err
				}
				return e.ListByDateRange(p)
			},
		},
		{
			Name:        "get_hfacs_taxonomy",
			Description: "Return the HFACS framework: levels, categories and sub-categories.",
			handler: func(context.Context, Args) (any, error) {
				return e.Taxonomy(), nil
			},
		},
		{
			Name:        "explore_incidents_by_description_keywords",
			Description: "Find incidents whose narrative or synopsis contains every given keyword, optionally narrowed by aircraft type, phase of flight and year.",
			Params: []Param{
				{Name: "description_keywords", Type: TypeString, Required: true, Description: "Whitespace-separated keywords; all must appear."},
				{Name: "aircraft_type_contains", Type: TypeString, Description: "Substring of the aircraft make/model."},
				{Name: "phase_of_flight_contains", Type: TypeString, Description: "Substring of the flight phase."},
				{Name: "year_yyyymm", Type: TypeString, Description: "Year (YYYY) or month (YYYYMM) prefix of the report date."},
				maxResultsParam(query.DefaultExploreMaxResults),
			},
			TermsParam: "description_keywords",
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				p := query.ExploreParams{
					DescriptionKeywords:   r.str("description_keywords"),
					AircraftTypeContains:  r.str("aircraft_type_contains"),
					PhaseOfFlightContains: r.str("phase_of_flight_contains"),
					YearYYYYMM:            r.str("year_yyyymm"),
					MaxResults:            r.int("max_results"),
				}
				if r.err != nil {
					return nil, r.err
				}
				return e.ExploreByDescription(p)
			},
		},
		{
			Name:        "find_similar_incidents",
			Description: "Find incidents resembling a primary incident on shared HFACS values and matching aircraft type or phase of flight.",
			Params: []Param{
				idParam("primary_id"),
				{Name: "similarity_criteria", Type: TypeArray, Required: true, Enum: query.SimilarityCriteria, Description: "Criteria every similar incident must satisfy."},
				{Name: "min_hfacs_matches", Type: TypeInteger, Default: query.DefaultMinHFACSMatches, Description: "Shared values required per HFACS criterion."},
				maxResultsParam(query.DefaultSimilarMaxResults),
			},
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				p := query.SimilarParams{
					PrimaryID:       r.id("primary_id"),
					Criteria:        r.list("similarity_criteria"),
					MinHFACSMatches: r.int("min_hfacs_matches"),
					MaxResults:      r.int("max_results"),
				}
				if r.err != nil {
					return nil, r.err
				}
				return e.FindSimilar(p)
			},
		},
		{
			Name:        "get_incidents_by_structured_data",
			Description: "List incidents matching every supplied structured filter: operator, flight phase, flight conditions, airport and anomaly.",
			Params: []Param{
				{Name: "aircraft_operator_contains", Type: TypeString, Description: "Substring of the aircraft operator."},
				{Name: "flight_phase_exact", Type: TypeString, Description: "Flight phase, compared case-insensitively in full."},
				{Name: "environment_flight_conditions_exact", Type: TypeString, Description: "Flight conditions such as VMC or IMC."},
				{Name: "location_airport_code_exact", Type: TypeString, Description: "Airport identifier such as ORD."},
				{Name: "anomaly_type_contains", Type: TypeString, Description: "Substring of an anomaly type."},
				maxResultsParam(query.DefaultStructuredMaxResults),
			},
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				p := query.StructuredParams{
					AircraftOperatorContains:         r.str("aircraft_operator_contains"),
					FlightPhaseExact:                 r.str("flight_phase_exact"),
					EnvironmentFlightConditionsExact: r.str("environment_flight_conditions_exact"),
					LocationAirportCodeExact:         r.str("location_airport_code_exact"),
					AnomalyTypeContains:              r.str("anomaly_type_contains"),
					MaxResults:                       r.int("max_results"),
				}
				if r.err != nil {
					return nil, r.err
				}
				return e.ListByStructuredData(p)
			},
		},
		{
			Name:        "get_hfacs_statistics_summary",
			Description: "Tally the most frequent HFACS levels, categories or sub-categories, optionally filtered by date range and aircraft type.",
			Params: []Param{
				{Name: "statistic_level", Type: TypeString, Default: query.DefaultStatisticLevel, Enum: attributeNames(), Description: "Classification attribute to tally."},
				{Name: "top_n", Type: TypeInteger, Default: query.DefaultTopN, Description: "Number of items to return."},
				{Name: "start_date_yyyymm", Type: TypeString, Description: descStartDate},
				{Name: "end_date_yyyymm", Type: TypeString, Description: descEndDate},
				{Name: "aircraft_type_contains", Type: TypeString, Description: "Substring of the aircraft make/model."},
			},
			handler: func(_ context.Context, a Args) (any, error) {
				r := reader{args: a}
				p := query.StatisticsParams{
					StatisticLevel:       r.str("statistic_level"),
					TopN:                 r.int("top_n"),
					StartDate:            r.str("start_date_yyyymm"),
					EndDate:              r.str("end_date_yyyymm"),
					AircraftTypeContains: r.str("aircraft_type_contains"),
				}
				if r.err != nil {
					return nil, r.err
				}
				return e.StatisticsSummary(p)
			},
		},
	}
}

func attributeNames() []string {
	names := make([]string, 0, len(hfacs.Attributes))
	for _, a := range hfacs.Attributes {
		names = append(names, string(a))
	}
	return names
}
