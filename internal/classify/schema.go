package classify

import "github.com/fairexam/fairexam/internal/llm"

// ClassificationSchema is the reply shape for a batch classification. The
// model is asked for the full entry shape, but a reply is only held to the
// questions envelope: a malformed entry is dropped on decode and falls back
// on its own.
var ClassificationSchema = &llm.Schema{
	Name:        llm.PurposeClassification,
	Description: "Difficulty, Bloom's Taxonomy level and bias flags for each numbered exam question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"number": map[string]any{
							"type":        "integer",
							"description": "The question number as given in the prompt",
						},
						"difficulty": map[string]any{
							"type":        "string",
							"description": "One of Easy, Medium, Hard",
						},
						"cognitive_level": map[string]any{
							"type":        "string",
							"description": "One of Remember, Understand, Apply, Analyze, Evaluate, Create",
						},
						"bias_flags": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Zero or more of cultural, gender, socioeconomic, ambiguous, background_assumption",
						},
						"bias_notes": map[string]any{
							"type":        "string",
							"description": "One sentence describing any flagged issue, or empty",
						},
					},
					"required":             []any{"number", "difficulty", "cognitive_level", "bias_flags", "bias_notes"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
	Validation: llm.ListEnvelope("questions"),
}
