package quiz

import "github.com/probquiz/probquiz/internal/llm"

// BatchSchema describes the question batch shape for providers with native
// structured output. Used only in strict mode; the tolerant extraction and
// normalization pipeline runs over the completion text either way.
var BatchSchema = &llm.Schema{
	Name:        "question-batch",
	Description: "A batch of probability practice questions with answers and explanations",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":        "array",
				"description": "The generated questions",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id": map[string]any{
							"type":        "string",
							"description": "Identifier unique within the batch",
						},
						"section_id": map[string]any{
							"type":        "string",
							"description": "The topic section this question belongs to",
						},
						"title": map[string]any{
							"type":        "string",
							"description": "Optional short title",
						},
						"content": map[string]any{
							"type":        "string",
							"description": "The question body, markdown permitted",
						},
						"type": map[string]any{
							"type":        "string",
							"enum":        []any{"mcq", "numeric"},
							"description": "How the user answers",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Options in display order for mcq. Empty for numeric.",
						},
						"answer": map[string]any{
							"type":        "number",
							"description": "Zero-based index of the correct option for mcq, the numeric value for numeric",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Short worked explanation, markdown permitted",
						},
					},
					"required":             []any{"id", "section_id", "title", "content", "type", "options", "answer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
