package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

// Args are the raw call parameters of one tool invocation, read through the
// tool's descriptor so absent values fall back to declared defaults.
type Args struct {
	desc   *Descriptor
	values map[string]any
}

// DecodeParams parses raw call parameters into a generic object. Numbers
// are kept as json.Number so large identifiers survive intact. Empty input
// and null decode to an empty object.
func DecodeParams(raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var params map[string]any
	if err := dec.Decode(&params); err != nil {
		return nil, amerrors.Validationf("Tool arguments must be a JSON object: %v", err)
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

func newArgs(desc *Descriptor, values map[string]any) Args {
	if values == nil {
		values = map[string]any{}
	}
	return Args{desc: desc, values: values}
}

// lookup returns the supplied value, or the declared default when the
// parameter is absent or null.
func (a Args) lookup(name string) (any, bool) {
	if v, ok := a.values[name]; ok && v != nil {
		return v, true
	}
	if p, ok := a.desc.Param(name); ok && p.Default != nil {
		return p.Default, true
	}
	return nil, false
}

// String returns a string parameter; numbers are accepted in their decimal
// form so 202301 and "202301" are the same date.
func (a Args) String(name string) (string, error) {
	v, ok := a.lookup(name)
	if !ok {
		return "", nil
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case bool, map[string]any, []any:
		return "", typeError(name, "a string", v)
	default:
		return incident.NormalizeID(x), nil
	}
}

// Int returns an integer parameter. Integral JSON numbers and numeric
// strings are accepted; range checks are left to the engine.
func (a Args) Int(name string) (int, error) {
	v, ok := a.lookup(name)
	if !ok {
		return 0, nil
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, typeError(name, "an integer", v)
		}
		return int(x), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), nil
		}
		if f, err := x.Float64(); err == nil && f == math.Trunc(f) {
			return int(f), nil
		}
		return 0, typeError(name, "an integer", v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, typeError(name, "an integer", v)
		}
		return n, nil
	default:
		return 0, typeError(name, "an integer", v)
	}
}

// Bool returns a boolean parameter; "true" and "false" strings are accepted.
func (a Args) Bool(name string) (bool, error) {
	v, ok := a.lookup(name)
	if !ok {
		return false, nil
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, typeError(name, "a boolean", v)
}

// ID returns an identifier parameter as supplied (string or number). Absent
// identifiers return nil so the engine reports the missing parameter.
func (a Args) ID(name string) (any, error) {
	v, ok := a.lookup(name)
	if !ok {
		return nil, nil
	}
	switch v.(type) {
	case bool, map[string]any, []any:
		return nil, typeError(name, "a string or number", v)
	}
	return v, nil
}

// StringList returns a list parameter. A single comma-separated string is
// accepted in place of an array.
func (a Args) StringList(name string) ([]string, error) {
	v, ok := a.lookup(name)
	if !ok {
		return nil, nil
	}
	switch x := v.(type) {
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, typeError(name, "a list of strings", v)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		parts := strings.Split(x, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	default:
		return nil, typeError(name, "a list of strings", v)
	}
}

func typeError(name, want string, got any) *amerrors.Error {
	return amerrors.Validationf("Parameter %s must be %s, got %s.", name, want, describe(got)).
		WithDetail("parameter", name)
}

func describe(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case map[string]any:
		return "an object"
	case []any:
		return "a list"
	default:
		return fmt.Sprint(x)
	}
}
