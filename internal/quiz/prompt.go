package quiz

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a probability theory tutor generating practice questions for a quiz application.

Rules:
- Generate exactly the requested number of questions, spread across the given topic sections.
- Each question must be self-contained and answerable without external material. Markdown is permitted in question content and explanations.
- Use "mcq" type for conceptual and comparison questions: provide 3-5 options where exactly one is correct, and distractors reflect common mistakes.
- Use "numeric" type for computation questions: the user types a number, no options.
- For mcq, "answer" is the zero-based index of the correct option. For numeric, "answer" is the numeric value.
- Always include a short worked explanation for every question.
- Respond with a single JSON object of the form:
  {"questions": [{"id": "...", "section_id": "...", "title": "...", "content": "...", "type": "mcq|numeric", "options": ["...", "..."], "answer": 0, "explanation": "..."}]}
- Output only JSON. No surrounding prose, no code fences.`

// buildPrompt constructs the user message for a generation request.
func buildPrompt(sections []Section, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d probability practice questions.\n\nSections:\n", count)
	for _, s := range sections {
		if s.Title != "" {
			fmt.Fprintf(&b, "- %s: %s\n", s.ID, s.Title)
		} else {
			fmt.Fprintf(&b, "- %s\n", s.ID)
		}
	}

	b.WriteString("\nUse each section's id as the question's section_id.")

	return b.String()
}
