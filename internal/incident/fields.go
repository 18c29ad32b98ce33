package incident

import (
	"regexp"
	"strings"
)

// NarrativeKeys is the resolution order for narrative text.
var NarrativeKeys = []string{"Narrative: 1", "Narrative", "Narrative: 2", "Synopsis"}

// Record keys read by the resolvers.
const (
	KeySynopsis = "Synopsis"
	KeyTimeDay  = "Time / Day"
	KeyDate     = "Date"
	KeyEvents   = "Events"
	KeyText     = "text"

	anomalyPrefix = "Anomaly"
	airportSuffix = ".Airport"
)

var datePattern = regexp.MustCompile(`^[0-9]{6}`)

// Group names one logical grouped attribute and the repeated-group keys
// probed for it, in order. Only the bare name and the ": 1" variant are
// ever probed.
type Group struct {
	Field      string
	Candidates []string
	Attribute  string
}

var (
	aircraftGroups    = []string{"Aircraft", "Aircraft : 1"}
	environmentGroups = []string{"Environment", "Environment : 1"}
	placeGroups       = []string{"Place", "Place : 1"}
)

// Grouped attributes known to the engine.
var (
	AircraftTypeGroup     = Group{Field: "aircraft_type", Candidates: aircraftGroups, Attribute: "Make Model Name"}
	FlightPhaseGroup      = Group{Field: "flight_phase", Candidates: aircraftGroups, Attribute: "Flight Phase"}
	AircraftOperatorGroup = Group{Field: "aircraft_operator", Candidates: aircraftGroups, Attribute: "Aircraft Operator"}
	FlightConditionsGroup = Group{Field: "flight_conditions", Candidates: environmentGroups, Attribute: "Flight Conditions"}
	AirportCodeGroup      = Group{Field: "airport_code", Candidates: placeGroups, Attribute: "Locale Reference.Airport"}
)

// Groups lists every grouped attribute.
var Groups = []Group{
	AircraftTypeGroup,
	FlightPhaseGroup,
	AircraftOperatorGroup,
	FlightConditionsGroup,
	AirportCodeGroup,
}

// Resolve returns the first present, non-empty value of the group's
// attribute across its candidate keys.
func (g Group) Resolve(r Record) (string, bool) {
	for _, key := range g.Candidates {
		obj, ok := r.Object(key)
		if !ok {
			continue
		}
		if v, ok := firstString(obj[g.Attribute]); ok {
			return v, true
		}
	}
	return "", false
}

// Narrative returns the text of the first narrative key present.
func Narrative(r Record) (string, bool) {
	for _, key := range NarrativeKeys {
		if text, ok := sectionText(r, key); ok {
			return text, true
		}
	}
	return "", false
}

// Synopsis returns the synopsis text.
func Synopsis(r Record) (string, bool) {
	return sectionText(r, KeySynopsis)
}

// Date returns the YYYYMM period encoded at the start of "Time / Day"."Date".
func Date(r Record) (string, bool) {
	obj, ok := r.Object(KeyTimeDay)
	if !ok {
		return "", false
	}
	raw, ok := firstString(obj[KeyDate])
	if !ok {
		return "", false
	}
	m := datePattern.FindString(raw)
	if m == "" {
		return "", false
	}
	return m, true
}

// AircraftType resolves the aircraft make and model.
func AircraftType(r Record) (string, bool) { return AircraftTypeGroup.Resolve(r) }

// FlightPhase resolves the flight phase.
func FlightPhase(r Record) (string, bool) { return FlightPhaseGroup.Resolve(r) }

// AircraftOperator resolves the operator category.
func AircraftOperator(r Record) (string, bool) { return AircraftOperatorGroup.Resolve(r) }

// FlightConditions resolves the environment flight conditions.
func FlightConditions(r Record) (string, bool) { return FlightConditionsGroup.Resolve(r) }

// AirportCode resolves the locale airport, dropping the ".Airport" marker.
func AirportCode(r Record) (string, bool) {
	v, ok := AirportCodeGroup.Resolve(r)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(strings.TrimSuffix(v, airportSuffix))
	if v == "" {
		return "", false
	}
	return v, true
}

// HasAnomaly reports whether any "Anomaly*" entry of the Events section
// mentions target, ignoring case. Only the values are inspected; the key
// merely selects the entry.
func HasAnomaly(r Record, target string) bool {
	events, ok := r.Object(KeyEvents)
	if !ok {
		return false
	}
	needle := Fold(target)
	for key, v := range events {
		if !strings.HasPrefix(key, anomalyPrefix) {
			continue
		}
		for _, s := range stringValues(v) {
			if strings.Contains(Fold(s), needle) {
				return true
			}
		}
	}
	return false
}

func sectionText(r Record, key string) (string, bool) {
	obj, ok := r.Object(key)
	if !ok {
		return "", false
	}
	switch t := obj[KeyText].(type) {
	case string:
		return t, true
	case []any:
		lines := stringValues(t)
		if len(lines) == 0 {
			return "", false
		}
		return strings.Join(lines, "\n"), true
	}
	return "", false
}

// firstString returns v if it is a non-blank string, or the first non-blank
// string element if v is a list.
func firstString(v any) (string, bool) {
	for _, s := range stringValues(v) {
		if s = strings.TrimSpace(s); s != "" {
			return s, true
		}
	}
	return "", false
}

// stringValues flattens a string or list of strings; other shapes yield nothing.
func stringValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
