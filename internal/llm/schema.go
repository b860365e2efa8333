package llm

// BuildEntityJSONSchema returns the JSON-Schema (draft 2020-12 subset) the
// model output must satisfy. Extra keys are tolerated and ignored.
func BuildEntityJSONSchema() map[string]any {
	stringList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"person":       stringList,
			"organization": stringList,
			"email":        stringList,
			"confidence_scores": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"text", "label"},
					"properties": map[string]any{
						"text":  map[string]any{"type": "string"},
						"label": map[string]any{"type": "string"},
					},
				},
			},
		},
		"required": []string{"person", "organization", "email"},
	}
}
