package reasoning

import "github.com/MikeSquared-Agency/vani/internal/tools"

// jsonSchema renders a tool's params as a JSON-schema object.
func jsonSchema(spec tools.Spec) map[string]any {
	props := make(map[string]any, len(spec.Params))
	required := []string{}
	for _, p := range spec.Params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == tools.TypeInteger && p.Max > p.Min {
			prop["minimum"] = p.Min
			prop["maximum"] = p.Max
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
