package query

import "github.com/Aman-CERP/asrsmcp/internal/incident"

// Default bounds applied by callers that omit max_results or top_n.
const (
	DefaultHFACSMaxResults      = 10
	DefaultKeywordMaxResults    = 5
	DefaultDateRangeMaxResults  = 10
	DefaultExploreMaxResults    = 5
	DefaultSimilarMaxResults    = 3
	DefaultStructuredMaxResults = 10
	DefaultMinHFACSMatches      = 1
	DefaultTopN                 = 5
	DefaultStatisticLevel       = "category"
)

// NoNarrative is returned in place of missing narrative text.
const NoNarrative = "No narrative available for this incident."

// HFACSParams selects incidents by classification entry.
type HFACSParams struct {
	Level       string
	Category    string
	SubCategory string
	MatchAll    bool
	MaxResults  int
}

// KeywordParams drives search_incidents_by_keyword.
type KeywordParams struct {
	Keyword           string
	SearchInNarrative bool
	SearchInSynopsis  bool
	MaxResults        int
}

// DateRangeParams bounds incidents by YYYYMM period, inclusive.
type DateRangeParams struct {
	StartDate  string
	EndDate    string
	MaxResults int
}

// ExploreParams drives explore_incidents_by_description_keywords.
type ExploreParams struct {
	DescriptionKeywords   string
	AircraftTypeContains  string
	PhaseOfFlightContains string
	YearYYYYMM            string
	MaxResults            int
}

// SimilarParams drives find_similar_incidents.
type SimilarParams struct {
	PrimaryID       any
	Criteria        []string
	MinHFACSMatches int
	MaxResults      int
}

// StructuredParams filters on grouped record attributes. Empty fields are
// not applied.
type StructuredParams struct {
	AircraftOperatorContains         string
	FlightPhaseExact                 string
	EnvironmentFlightConditionsExact string
	LocationAirportCodeExact         string
	AnomalyTypeContains              string
	MaxResults                       int
}

// StatisticsParams drives get_hfacs_statistics_summary.
type StatisticsParams struct {
	StatisticLevel       string
	TopN                 int
	StartDate            string
	EndDate              string
	AircraftTypeContains string
}

// DetailsResult carries one full record.
type DetailsResult struct {
	IncidentID string          `json:"incident_id"`
	Incident   incident.Record `json:"incident"`
}

// ClassificationResult carries a record's classification as stored.
type ClassificationResult struct {
	IncidentID          string `json:"incident_id"`
	HFACSClassification []any  `json:"hfacs_classification"`
}

// NarrativeResult carries a record's narrative text.
type NarrativeResult struct {
	IncidentID string `json:"incident_id"`
	Narrative  string `json:"narrative"`
}

// IDListResult is a truncated list of matching identifiers.
type IDListResult struct {
	Count       int      `json:"count"`
	IncidentIDs []string `json:"incident_ids"`
}

// SnippetMatch is one text search hit.
type SnippetMatch struct {
	IncidentID string `json:"incident_id"`
	Snippet    string `json:"snippet"`
}

// SnippetResult is a truncated list of text search hits.
type SnippetResult struct {
	Count   int            `json:"count"`
	Results []SnippetMatch `json:"results"`
}

// SimilarMatch is one incident similar to the primary.
type SimilarMatch struct {
	IncidentID string `json:"incident_id"`
	Reason     string `json:"reason"`
}

// SimilarResult lists incidents similar to the primary.
type SimilarResult struct {
	Count             int            `json:"count"`
	PrimaryIncidentID string         `json:"primary_incident_id"`
	SimilarIncidents  []SimilarMatch `json:"similar_incidents"`
}

// StatItem is one tallied attribute value.
type StatItem struct {
	Item       string `json:"item"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// StatisticsResult summarizes classification frequencies.
type StatisticsResult struct {
	StatisticLevel                string            `json:"statistic_level"`
	FiltersApplied                map[string]string `json:"filters_applied"`
	TotalIncidentsMatchingFilters int               `json:"total_incidents_matching_filters"`
	IncidentsWithHFACSData        int               `json:"incidents_with_hfacs_data"`
	TopItems                      []StatItem        `json:"top_items"`
}
