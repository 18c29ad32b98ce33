package errors

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
)

// Kind is the short machine name of the category: validation, not_found,
// precondition, internal, config or io. Tool callers and log readers use it
// to tell a bad parameter from a missing incident from a record that lacks
// the data an operation needs.
func (c Category) Kind() string {
	if c == "" {
		return strings.ToLower(string(CategoryInternal))
	}
	return strings.ToLower(string(c))
}

// describe returns the phrase printed next to "Kind:" on the terminal.
func (c Category) describe() string {
	switch c {
	case CategoryValidation:
		return "invalid parameter"
	case CategoryNotFound:
		return "incident not found"
	case CategoryPrecondition:
		return "record lacks required data"
	case CategoryConfig:
		return "configuration"
	case CategoryIO:
		return "corpus or storage"
	default:
		return "internal"
	}
}

// FormatForUser returns the message shown to tool callers.
// Structured errors expose their message (and suggestion); anything else is
// reported verbatim.
func FormatForUser(err error) string {
	if err == nil {
		return ""
	}

	ae, ok := As(err)
	if !ok {
		return err.Error()
	}

	if ae.Suggestion == "" {
		return ae.Message
	}
	return ae.Message + " " + ae.Suggestion
}

// FormatForCLI renders err for the terminal: message, kind, sorted details,
// hint and code. Fatal errors add a line saying the server cannot start.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ae, ok := As(err)
	if !ok {
		ae = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString("Error: " + ae.Message + "\n")
	sb.WriteString("  Kind: " + ae.Category.describe() + "\n")
	for _, k := range sortedKeys(ae.Details) {
		sb.WriteString("  " + k + ": " + ae.Details[k] + "\n")
	}
	if ae.Severity == SeverityFatal {
		sb.WriteString("  The server cannot start without a readable corpus.\n")
	}
	if ae.Suggestion != "" {
		sb.WriteString("  Hint: " + ae.Suggestion + "\n")
	}
	sb.WriteString("  Code: " + ae.Code + "\n")

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Kind       string            `json:"kind"`
	Message    string            `json:"message"`
	Fatal      bool              `json:"fatal"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
}

// FormatJSON returns the JSON form printed by commands run with --json.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ae, ok := As(err)
	if !ok {
		ae = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       ae.Code,
		Kind:       ae.Category.Kind(),
		Message:    ae.Message,
		Fatal:      ae.Severity == SeverityFatal,
		Details:    ae.Details,
		Suggestion: ae.Suggestion,
	}
	if ae.Cause != nil {
		je.Cause = ae.Cause.Error()
	}

	return json.Marshal(je)
}

// LogValue implements slog.LogValuer so a logged *Error becomes a group
// with its code, kind and details instead of a flat string.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", e.Code),
		slog.String("kind", e.Category.Kind()),
		slog.String("message", e.Message),
	}
	for _, k := range sortedKeys(e.Details) {
		attrs = append(attrs, slog.String(k, e.Details[k]))
	}
	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

// LogAttr returns err as an "error" attribute: a group for structured
// errors, the plain message otherwise.
func LogAttr(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	if ae, ok := As(err); ok {
		return slog.Any("error", ae)
	}
	return slog.String("error", err.Error())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
