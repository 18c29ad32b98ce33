// Package incident holds the ASRS incident corpus: the record type, identifier
// coercion, the read-only record store, field resolvers over the record's
// variable schema, and the JSON corpus loader.
package incident

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Identifier keys, probed in this order.
const (
	KeyID      = "ACN"
	KeyIDLower = "acn"
)

// KeyClassification holds the ordered HFACS classification entries.
const KeyClassification = "hfacs_classification"

// Record is one semi-structured incident report as decoded from JSON.
// Records are never mutated after load.
type Record map[string]any

// ID returns the normalized identifier, or "" if the record has none.
func (r Record) ID() string {
	if v, ok := r[KeyID]; ok {
		return NormalizeID(v)
	}
	if v, ok := r[KeyIDLower]; ok {
		return NormalizeID(v)
	}
	return ""
}

// hasID reports whether either identifier key normalizes to id.
func (r Record) hasID(id string) bool {
	if v, ok := r[KeyID]; ok && NormalizeID(v) == id {
		return true
	}
	if v, ok := r[KeyIDLower]; ok && NormalizeID(v) == id {
		return true
	}
	return false
}

// Object returns the sub-object stored under key.
func (r Record) Object(key string) (map[string]any, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// NormalizeID coerces an identifier of any accepted shape to its comparison key.
// Strings are returned as-is, numbers are printed without exponent or trailing
// zeros (2184152.0 becomes "2184152"), and values implementing fmt.Stringer use
// their String method.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return normalizeNumber(id.String())
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case uint:
		return strconv.FormatUint(uint64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// normalizeNumber works on the literal so integers past 2^53 keep every
// digit. Only exponent forms go through float64.
func normalizeNumber(lit string) string {
	if isInteger(lit) {
		return lit
	}
	if whole, frac, ok := strings.Cut(lit, "."); ok && isInteger(whole) && strings.Trim(frac, "0") == "" {
		return whole
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil && isIntegral(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return lit
}

func isInteger(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}
