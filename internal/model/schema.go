package model

// Property is a required string field of a structured response.
type Property struct {
	Name        string
	Description string
}

// Schema declares the exact shape a generative service must answer with:
// an object whose properties are all required strings and nothing else.
type Schema struct {
	Name       string
	Properties []Property
}

// Required returns the property names in declaration order.
func (s Schema) Required() []string {
	names := make([]string, 0, len(s.Properties))
	for _, p := range s.Properties {
		names = append(names, p.Name)
	}
	return names
}

// JSONSchema renders the schema as a standard JSON Schema document.
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for _, p := range s.Properties {
		prop := map[string]any{"type": "string"}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             s.Required(),
		"additionalProperties": false,
	}
}

// GenerateRequest is what a provider receives for one structured generation.
type GenerateRequest struct {
	Prompt string
	Schema Schema
}
