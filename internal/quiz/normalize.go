package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrUnresolvableAnswer indicates a candidate's answer could not be mapped
// into the canonical key space. The candidate must be dropped: defaulting to
// an arbitrary letter would mask answer-key corruption as a real distractor.
var ErrUnresolvableAnswer = errors.New("unresolvable answer key")

// optionTextFields is the priority list of display fields tried when an
// option is itself a structured object rather than plain text.
var optionTextFields = []string{"text", "label", "value", "content", "title", "name"}

// Normalize converts one loosely-typed candidate question into the canonical
// Question shape. fallbackSection is used when the candidate carries no
// section, pos is the candidate's zero-based position in the batch and seeds
// the synthesized ID. Pure function: identical input yields identical output.
func Normalize(raw map[string]any, fallbackSection string, pos int) (Question, error) {
	q := Question{
		ID:          firstString(raw, "id"),
		SectionID:   firstString(raw, "section_id"),
		Title:       firstString(raw, "title"),
		Content:     firstString(raw, "content_md", "content", "question", "text", "title"),
		Explanation: firstString(raw, "explanation_md", "explanation", "rationale"),
	}

	if q.ID == "" {
		q.ID = fmt.Sprintf("q%d", pos+1)
	}
	if q.SectionID == "" {
		q.SectionID = fallbackSection
	}

	// Any unrecognized type collapses to mcq.
	q.Type = TypeMCQ
	if firstString(raw, "type") == string(TypeNumeric) {
		q.Type = TypeNumeric
	}

	rawAnswer, answerPresent := raw["answer"]
	if !answerPresent || rawAnswer == nil {
		rawAnswer, answerPresent = raw["correctAnswer"]
	}

	switch q.Type {
	case TypeNumeric:
		q.Options = map[string]string{}
		n, ok := coerceNumber(rawAnswer)
		if !answerPresent || !ok {
			return Question{}, fmt.Errorf("candidate %q: %w", q.ID, ErrUnresolvableAnswer)
		}
		q.Answer = n

	default:
		q.Options = normalizeOptions(raw["options"])
		key, ok := resolveOptionKey(q.Options, rawAnswer)
		if !answerPresent || !ok {
			return Question{}, fmt.Errorf("candidate %q: %w", q.ID, ErrUnresolvableAnswer)
		}
		q.Answer = key
	}

	return q, nil
}

// normalizeOptions converts the raw options value into the canonical
// letter-keyed mapping. Sequences get letters assigned in order; mappings
// keep their keys uppercased; anything else yields an empty mapping.
func normalizeOptions(raw any) map[string]string {
	out := map[string]string{}

	switch v := raw.(type) {
	case []any:
		for i, item := range v {
			if i >= 26 {
				break
			}
			out[string(rune('A'+i))] = optionText(item)
		}
	case map[string]any:
		for k, item := range v {
			out[strings.ToUpper(k)] = optionText(item)
		}
	}

	return out
}

// optionText coerces a single option value to display text. Structured
// options yield their first recognized display field; as a last resort the
// whole structure is stringified.
func optionText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		for _, field := range optionTextFields {
			if s, ok := t[field].(string); ok && s != "" {
				return s
			}
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// resolveOptionKey maps an answer value in any supported encoding to a
// letter key present in options. The three tiers, in order: an existing
// letter key (case-insensitive), a zero-based index into the option order
// (clamped), the exact text of one option. This same pipeline runs on both
// the normalization side and the answer-checking side so the two can never
// disagree.
func resolveOptionKey(options map[string]string, v any) (string, bool) {
	if len(options) == 0 {
		return "", false
	}
	keys := optionKeys(options)

	switch av := v.(type) {
	case string:
		s := strings.TrimSpace(av)
		if s == "" {
			return "", false
		}

		upper := strings.ToUpper(s)
		if _, ok := options[upper]; ok {
			return upper, true
		}

		if idx, err := strconv.Atoi(s); err == nil {
			return keys[clampIndex(idx, len(keys))], true
		}

		for _, k := range keys {
			if strings.TrimSpace(options[k]) == s {
				return k, true
			}
		}
		for _, k := range keys {
			if strings.EqualFold(strings.TrimSpace(options[k]), s) {
				return k, true
			}
		}
		return "", false

	case float64:
		if av != math.Trunc(av) {
			return "", false
		}
		return keys[clampIndex(int(av), len(keys))], true

	case int:
		return keys[clampIndex(av, len(keys))], true
	}

	return "", false
}

// optionKeys returns the option letters in canonical order. Letters are
// assigned in input order during normalization, so sorted key order is the
// option order.
func optionKeys(options map[string]string) []string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// coerceNumber converts an answer value to a float64 when possible.
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// firstString returns the first key in keys whose value is a non-empty
// string, or "" when none matches.
func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
