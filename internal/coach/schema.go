package coach

import "github.com/abhisek/assessly/internal/llm"

// StudyPlanSchema defines the JSON schema for study plan generation.
var StudyPlanSchema = &llm.Schema{
	Name:        "study-plan",
	Description: "A short study plan targeting the weakest competencies of an attempt",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-3 sentence overview of the attempt",
			},
			"focus_areas": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 4,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"competency": map[string]any{
							"type":        "string",
							"description": "Competency name exactly as given",
						},
						"advice": map[string]any{
							"type":        "string",
							"description": "One or two concrete practice suggestions",
						},
					},
					"required":             []any{"competency", "advice"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"summary", "focus_areas"},
		"additionalProperties": false,
	},
}
