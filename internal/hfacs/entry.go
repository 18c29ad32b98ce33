// Package hfacs models the HFACS classification attached to incident records
// and the static HFACS taxonomy.
package hfacs

import (
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

// Attribute names one attribute of a classification entry.
type Attribute string

const (
	AttrLevel       Attribute = "level"
	AttrCategory    Attribute = "category"
	AttrSubCategory Attribute = "sub_category"
)

// Attributes lists the taxonomy attributes from most to least general.
var Attributes = []Attribute{AttrLevel, AttrCategory, AttrSubCategory}

// Valid reports whether a names a known attribute.
func (a Attribute) Valid() bool {
	switch a {
	case AttrLevel, AttrCategory, AttrSubCategory:
		return true
	}
	return false
}

const keyJustification = "justification_from_narrative"

// Entry is one {level, category, sub_category} triple. An empty attribute is
// absent and never satisfies a criterion.
type Entry struct {
	Level         string
	Category      string
	SubCategory   string
	Justification string
}

// Value returns the entry's value for a.
func (e Entry) Value(a Attribute) string {
	switch a {
	case AttrLevel:
		return e.Level
	case AttrCategory:
		return e.Category
	case AttrSubCategory:
		return e.SubCategory
	}
	return ""
}

// Entries extracts the classification entries of r. The boolean reports
// whether the record is classified at all; a present but empty list yields
// (nil, true). Elements that are not objects, or that carry only an error
// from the classifier, become entries with no attributes.
func Entries(r incident.Record) ([]Entry, bool) {
	raw, ok := r[incident.KeyClassification]
	if !ok || raw == nil {
		return nil, false
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, true
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		entries = append(entries, Entry{
			Level:         str(obj, string(AttrLevel)),
			Category:      str(obj, string(AttrCategory)),
			SubCategory:   str(obj, string(AttrSubCategory)),
			Justification: str(obj, keyJustification),
		})
	}
	return entries, true
}

// Raw returns the classification exactly as stored, or an empty list when
// the record is unclassified.
func Raw(r incident.Record) []any {
	if items, ok := r[incident.KeyClassification].([]any); ok {
		return items
	}
	return []any{}
}

func str(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	s, _ := obj[key].(string)
	return s
}
