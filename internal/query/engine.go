// Package query implements the incident query operations.
//
// Every operation is a scan of the corpus in storage order. Operations that
// take a result bound stop the moment it is reached, so records past the
// cutoff are never inspected. Parameters are validated before any scan and
// failures are returned as *errors.Error values.
package query

import (
	"fmt"
	"regexp"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

var (
	yyyymmPattern = regexp.MustCompile(`^[0-9]{6}$`)
	yearPattern   = regexp.MustCompile(`^([0-9]{4}|[0-9]{6})$`)
)

// Engine answers queries against a read-only store. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	store *incident.Store

	// visit, when set, observes every record a scan inspects.
	visit func(incident.Record)
}

// New creates an engine over store.
func New(store *incident.Store) *Engine {
	return &Engine{store: store}
}

// Store returns the underlying record store.
func (e *Engine) Store() *incident.Store {
	return e.store
}

// scan visits records in storage order until fn returns false.
func (e *Engine) scan(fn func(incident.Record) bool) {
	for _, r := range e.store.Records() {
		if e.visit != nil {
			e.visit(r)
		}
		if !fn(r) {
			return
		}
	}
}

// collectIDs gathers identifiers of matching records up to limit.
func (e *Engine) collectIDs(limit int, match func(incident.Record) bool) IDListResult {
	ids := make([]string, 0, min(limit, e.store.Len()))
	e.scan(func(r incident.Record) bool {
		if match(r) {
			ids = append(ids, r.ID())
		}
		return len(ids) < limit
	})
	return IDListResult{Count: len(ids), IncidentIDs: ids}
}

// lookup resolves id to a record or a not-found error.
func (e *Engine) lookup(param string, id any) (incident.Record, string, error) {
	key := incident.NormalizeID(id)
	if key == "" {
		return nil, "", amerrors.MissingParameter(param)
	}
	r, ok := e.store.FindByID(key)
	if !ok {
		return nil, key, amerrors.NotFound(key)
	}
	return r, key, nil
}

func requirePositive(name string, v int) error {
	if v < 1 {
		return amerrors.New(amerrors.ErrCodeInvalidRange,
			fmt.Sprintf("%s must be a positive integer, got %d.", name, v), nil).
			WithDetail("parameter", name)
	}
	return nil
}

func validateYYYYMM(name, v string) error {
	if v == "" {
		return amerrors.MissingParameter(name)
	}
	if !yyyymmPattern.MatchString(v) {
		return amerrors.New(amerrors.ErrCodeInvalidDate,
			fmt.Sprintf("Invalid %s format: %q. Expected YYYYMM.", name, v), nil).
			WithDetail("parameter", name)
	}
	return nil
}

func validateOrder(start, end string) error {
	if start > end {
		return amerrors.New(amerrors.ErrCodeInvalidRange,
			fmt.Sprintf("Start date (%s) cannot be after end date (%s).", start, end), nil)
	}
	return nil
}

func validateAttribute(name, v string) (hfacs.Attribute, error) {
	a := hfacs.Attribute(v)
	if !a.Valid() {
		return "", amerrors.Validationf("Invalid %s: %q. Valid options: level, category, sub_category.", name, v).
			WithDetail("parameter", name)
	}
	return a, nil
}

// containsResolved reports whether the resolver yields a value containing sub.
func containsResolved(r incident.Record, resolve func(incident.Record) (string, bool), sub string) bool {
	v, ok := resolve(r)
	return ok && incident.ContainsFold(v, sub)
}

// equalsResolved reports whether the resolver yields a value equal to want.
func equalsResolved(r incident.Record, resolve func(incident.Record) (string, bool), want string) bool {
	v, ok := resolve(r)
	return ok && incident.EqualFold(v, want)
}
