package llm

// BuildAnalysisJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the structured feedback object. It is sent to the
// model as an output constraint and used locally to validate whatever the
// extractor recovers.
func BuildAnalysisJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"overallScore": map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0},
			"ATS":          sectionProp(),
			"toneAndStyle": sectionProp(),
			"content":      sectionProp(),
			"structure":    sectionProp(),
			"skills":       sectionProp(),
		},
		"required": []string{"overallScore"},
	}
}

func sectionProp() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0},
			"tips": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":        map[string]any{"type": "string"},
						"tip":         map[string]any{"type": "string"},
						"explanation": map[string]any{"type": "string"},
					},
				},
			},
		},
		"required": []string{"score"},
	}
}
