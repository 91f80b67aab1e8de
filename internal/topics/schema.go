package topics

import "github.com/fairexam/fairexam/internal/llm"

// TopicListSchema is the reply shape for topic extraction.
var TopicListSchema = &llm.Schema{
	Name:        llm.PurposeTopicExtraction,
	Description: "The main topics, units and concepts of a course syllabus",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topics": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Short topic names in syllabus order",
			},
		},
		"required":             []any{"topics"},
		"additionalProperties": false,
	},
}

// MatchesSchema is the reply shape for question-to-topic matching. Like
// classification replies, only the matches envelope is enforced; entries
// are checked one at a time.
var MatchesSchema = &llm.Schema{
	Name:        llm.PurposeTopicMatching,
	Description: "The syllabus topics each numbered exam question assesses",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"matches": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"number": map[string]any{
							"type":        "integer",
							"description": "The question number as given in the prompt",
						},
						"topics": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Topic names copied exactly from the topic list; empty if none apply",
						},
					},
					"required":             []any{"number", "topics"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"matches"},
		"additionalProperties": false,
	},
	Validation: llm.ListEnvelope("matches"),
}
