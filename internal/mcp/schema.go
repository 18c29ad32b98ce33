package mcp

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/Aman-CERP/asrsmcp/internal/tools"
)

// inputSchema builds the JSON schema advertised for a tool's arguments.
// The server does not validate against it; the dispatcher coerces.
func inputSchema(d *tools.Descriptor) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(d.Params)),
	}

	for _, p := range d.Params {
		prop := paramSchema(p)
		schema.Properties[p.Name] = prop
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

func paramSchema(p tools.Param) *jsonschema.Schema {
	prop := &jsonschema.Schema{Description: p.Description}

	switch p.Type {
	case tools.TypeInteger:
		prop.Type = "integer"
	case tools.TypeBoolean:
		prop.Type = "boolean"
	case tools.TypeArray:
		prop.Type = "array"
		prop.Items = &jsonschema.Schema{Type: "string", Enum: enumValues(p.Enum)}
	case tools.TypeID:
		prop.Types = []string{"string", "integer"}
	default:
		prop.Type = "string"
		prop.Enum = enumValues(p.Enum)
	}

	if p.Default != nil {
		if raw, err := json.Marshal(p.Default); err == nil {
			prop.Default = raw
		}
	}
	return prop
}

func enumValues(values []string) []any {
	if len(values) == 0 {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
