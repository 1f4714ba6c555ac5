package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/probquiz/probquiz/internal/llm"
)

// Sentinel errors surfaced to the transport layer.
var (
	// ErrUpstream indicates the completion provider call failed.
	ErrUpstream = errors.New("completion provider unavailable")

	// ErrInvalidOutput indicates the model output yielded no usable questions.
	ErrInvalidOutput = errors.New("invalid model output")

	// ErrNotFound indicates the batch or question is unknown or expired.
	// The three cases are deliberately indistinguishable.
	ErrNotFound = errors.New("question not found")
)

// AnswerStore retains the answer-bearing remnants of generated batches so
// answer checks never re-invoke the model.
type AnswerStore interface {
	// Put stores the items under a fresh batch ID and returns it.
	Put(items map[string]Record) string

	// Get returns the record for (batchID, questionID). Missing batch,
	// expired batch and missing question all report !ok.
	Get(batchID, questionID string) (Record, bool)
}

// Config controls generation behavior.
type Config struct {
	// MinCount, MaxCount bound the per-request question count; DefaultCount
	// applies when the caller omits it or sends a non-positive value.
	MinCount     int
	MaxCount     int
	DefaultCount int

	// MaxTokens is the token budget for the completion.
	MaxTokens int

	// Temperature controls model output randomness (0.0-1.0).
	Temperature float64

	// StrictOutput requests native structured output from the provider.
	// The tolerant parsing pipeline still runs over the result.
	StrictOutput bool
}

// DefaultConfig returns a Config with recommended defaults.
func DefaultConfig() Config {
	return Config{
		MinCount:     1,
		MaxCount:     12,
		DefaultCount: 6,
		MaxTokens:    4096,
		Temperature:  0.7,
	}
}

// Service turns generation and check requests into provider calls and
// canonical records. It is stateless apart from the injected AnswerStore.
type Service struct {
	provider llm.Provider
	store    AnswerStore
	config   Config
}

// NewService creates a Service with the given provider, store and config.
func NewService(provider llm.Provider, store AnswerStore, cfg Config) *Service {
	return &Service{provider: provider, store: store, config: cfg}
}

// GenerateRequest asks for a fresh batch of questions.
type GenerateRequest struct {
	Sections []Section `json:"sections"`
	Count    int       `json:"count"`
}

// GenerateResult is a freshly generated batch. Questions carry no answer
// fields; Dropped counts candidates discarded during normalization.
type GenerateResult struct {
	BatchID   string     `json:"batch_id"`
	Questions []Question `json:"questions"`
	Dropped   int        `json:"dropped,omitempty"`
}

// CheckRequest asks whether a user answer to a previously generated
// question is correct.
type CheckRequest struct {
	BatchID    string `json:"batch_id"`
	QuestionID string `json:"question_id"`
	Answer     any    `json:"answer"`
}

// CheckResult reveals correctness plus the canonical answer and explanation.
type CheckResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer any    `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// Generate builds a prompt for the requested sections, runs the model
// output through extraction and normalization, stores the answer key and
// returns the answer-stripped batch.
//
// The store is only written once the full response has normalized to at
// least one question: a failed generation never leaves a partial batch.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if len(req.Sections) == 0 {
		return nil, fmt.Errorf("at least one section is required")
	}

	count := s.clampCount(req.Count)

	ctx = llm.WithPurpose(ctx, "question-gen")

	creq := llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(req.Sections, count),
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}
	if s.config.StrictOutput {
		creq.Schema = BatchSchema
	}

	comp, err := s.provider.Complete(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	obj, err := ExtractObject(comp.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	fallbackSection := req.Sections[0].ID
	questions, dropped := normalizeBatch(obj, fallbackSection)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no candidate question survived normalization", ErrInvalidOutput)
	}
	if dropped > 0 {
		log.Printf("quiz: dropped %d of %d candidates with unresolvable answers", dropped, dropped+len(questions))
	}

	items := make(map[string]Record, len(questions))
	public := make([]Question, len(questions))
	for i, q := range questions {
		items[q.ID] = RecordOf(q)
		public[i] = q.Public()
	}

	batchID := s.store.Put(items)

	return &GenerateResult{
		BatchID:   batchID,
		Questions: public,
		Dropped:   dropped,
	}, nil
}

// Check resolves a user answer against the stored canonical record.
func (s *Service) Check(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	rec, ok := s.store.Get(req.BatchID, req.QuestionID)
	if !ok {
		return nil, ErrNotFound
	}

	return &CheckResult{
		Correct:       rec.Matches(req.Answer),
		CorrectAnswer: rec.Answer,
		Explanation:   rec.Explanation,
	}, nil
}

func (s *Service) clampCount(n int) int {
	if n <= 0 {
		return s.config.DefaultCount
	}
	if n < s.config.MinCount {
		return s.config.MinCount
	}
	if n > s.config.MaxCount {
		return s.config.MaxCount
	}
	return n
}

// normalizeBatch pulls the candidate list out of the extracted object and
// normalizes each candidate independently. A candidate that fails drops
// alone; its siblings proceed.
func normalizeBatch(obj map[string]any, fallbackSection string) ([]Question, int) {
	candidates := candidateList(obj)

	var questions []Question
	dropped := 0
	seen := map[string]bool{}

	for i, c := range candidates {
		q, err := Normalize(c, fallbackSection, i)
		if err != nil {
			dropped++
			continue
		}
		// Duplicate IDs would make store lookups ambiguous. The positional
		// fallback can itself collide, so bump until the ID is free.
		if seen[q.ID] {
			for n := i + 1; ; n++ {
				id := fmt.Sprintf("q%d", n)
				if !seen[id] {
					q.ID = id
					break
				}
			}
		}
		seen[q.ID] = true
		questions = append(questions, q)
	}

	return questions, dropped
}

// candidateList returns the raw candidate question objects. The usual shape
// is {"questions": [...]}; a bare object that looks like a single question
// is accepted as a one-element batch.
func candidateList(obj map[string]any) []map[string]any {
	if seq, ok := obj["questions"].([]any); ok {
		out := make([]map[string]any, 0, len(seq))
		for _, item := range seq {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}

	for _, key := range []string{"question", "content", "content_md", "options", "answer", "text"} {
		if _, ok := obj[key]; ok {
			return []map[string]any{obj}
		}
	}

	return nil
}
