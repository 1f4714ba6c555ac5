package quiz

import "strings"

// Matches reports whether a user-submitted answer is correct against the
// stored canonical answer.
//
// For mcq the user answer runs through the same letter / index / text
// resolution used during normalization; an unresolvable answer is simply
// wrong, never an error. For numeric the user answer is coerced to a number
// and compared for exact equality — no tolerance band.
func (r Record) Matches(userAnswer any) bool {
	switch r.Type {
	case TypeNumeric:
		want, ok := r.Answer.(float64)
		if !ok {
			return false
		}
		got, ok := coerceNumber(userAnswer)
		return ok && got == want

	default:
		want, ok := r.Answer.(string)
		if !ok {
			return false
		}
		got, ok := resolveOptionKey(r.Options, userAnswer)
		return ok && strings.EqualFold(got, want)
	}
}
