package quiz

// QuestionType describes how a question is answered.
type QuestionType string

const (
	// TypeMCQ means the user picks one lettered option.
	TypeMCQ QuestionType = "mcq"

	// TypeNumeric means the user types a numeric answer.
	TypeNumeric QuestionType = "numeric"
)

// Section identifies a topic the caller wants questions for.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Question is the canonical question record produced by normalization.
// Model output never reaches callers without passing through this shape.
type Question struct {
	ID        string       `json:"id"`
	SectionID string       `json:"section_id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Type      QuestionType `json:"type"`

	// Options maps a single-letter key (A, B, C, ...) to option text.
	// Always empty for numeric questions. Letter order is key order.
	Options map[string]string `json:"options"`

	// Answer is the canonical answer: the letter key for mcq (always a key
	// present in Options), the numeric value (float64) for numeric.
	Answer any `json:"answer,omitempty"`

	Explanation string `json:"explanation,omitempty"`
}

// Public returns a copy with the answer-bearing fields stripped, safe to
// hand back from a generation response.
func (q Question) Public() Question {
	q.Answer = nil
	q.Explanation = ""
	return q
}

// Record is the answer-bearing remnant of a question retained for checking.
// Options are kept so a user answer given as an index or as option text can
// be resolved to the same letter key space at check time.
type Record struct {
	Type        QuestionType
	Answer      any
	Options     map[string]string
	Explanation string
}

// RecordOf extracts the checkable remnant of a canonical question.
func RecordOf(q Question) Record {
	return Record{
		Type:        q.Type,
		Answer:      q.Answer,
		Options:     q.Options,
		Explanation: q.Explanation,
	}
}
