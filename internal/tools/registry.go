// Package tools exposes the query engine as named tools: a fixed registry
// of descriptors, parameter coercion, and a dispatcher that renders every
// outcome as a markup document.
package tools

import (
	"context"
	"sort"

	"github.com/Aman-CERP/asrsmcp/internal/query"
)

// ParamType is the wire type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	// TypeID accepts either a string or a number.
	TypeID ParamType = "string|number"
)

// Param describes one tool parameter.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Default     any       `json:"default"`
	Description string    `json:"description"`
	Enum        []string  `json:"enum,omitempty"`
}

// Handler runs a tool against coerced arguments and returns a result tree.
type Handler func(ctx context.Context, args Args) (any, error)

// Descriptor is the registered metadata and handler for one tool.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param

	// TermsParam names the free-text parameter reported to telemetry.
	TermsParam string

	handler Handler
}

// Param returns the named parameter.
func (d *Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Registry holds the tool descriptors. It is built once and never mutated.
type Registry struct {
	byName map[string]*Descriptor
	order  []*Descriptor
}

// ListToolsName is the name of the self-describing tool.
const ListToolsName = "list_available_tools"

// NewRegistry registers every query tool backed by engine, plus
// list_available_tools.
func NewRegistry(engine *query.Engine) *Registry {
	r := &Registry{byName: make(map[string]*Descriptor)}
	for _, d := range queryTools(engine) {
		r.add(d)
	}
	r.add(&Descriptor{
		Name:        ListToolsName,
		Description: "List every available tool with its parameters, types, and defaults.",
		handler: func(context.Context, Args) (any, error) {
			return r.Listing(), nil
		},
	})
	return r
}

func (r *Registry) add(d *Descriptor) {
	if d.Params == nil {
		d.Params = []Param{}
	}
	r.byName[d.Name] = d
	r.order = append(r.order, d)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, d := range r.order {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// ToolInfo is the list_available_tools rendering of a descriptor.
type ToolInfo struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  []Param `json:"parameters"`
}

// ToolListing is the list_available_tools result.
type ToolListing struct {
	Count int        `json:"count"`
	Tools []ToolInfo `json:"tools"`
}

// Listing returns the metadata of every registered tool in registration order.
func (r *Registry) Listing() ToolListing {
	infos := make([]ToolInfo, 0, len(r.order))
	for _, d := range r.order {
		params := make([]Param, len(d.Params))
		copy(params, d.Params)
		infos = append(infos, ToolInfo{Name: d.Name, Description: d.Description, Parameters: params})
	}
	return ToolListing{Count: len(infos), Tools: infos}
}
