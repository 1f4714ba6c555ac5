package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/probquiz/probquiz/internal/llm"
)

// fakeStore is a minimal AnswerStore for service tests.
type fakeStore struct {
	puts    int
	batches map[string]map[string]Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{batches: map[string]map[string]Record{}}
}

func (s *fakeStore) Put(items map[string]Record) string {
	s.puts++
	id := "batch-1"
	s.batches[id] = items
	return id
}

func (s *fakeStore) Get(batchID, questionID string) (Record, bool) {
	items, ok := s.batches[batchID]
	if !ok {
		return Record{}, false
	}
	rec, ok := items[questionID]
	return rec, ok
}

const fencedBatch = "Here you go!\n```json\n{\"questions\": [" +
	"{\"id\": \"q1\", \"section_id\": \"bayes\", \"question\": \"Which posterior is larger?\", \"options\": [\"P(A|B)\", \"P(B|A)\"], \"answer\": 1, \"explanation\": \"Apply Bayes.\"}," +
	"{\"id\": \"q2\", \"section_id\": \"bayes\", \"type\": \"numeric\", \"question\": \"P of heads?\", \"answer\": \"0.5\", \"explanation\": \"Fair coin.\"}" +
	"]}\n```\nEnjoy."

func TestGenerate_EndToEnd(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockCompletion{Text: fencedBatch})
	store := newFakeStore()
	svc := NewService(provider, store, DefaultConfig())

	res, err := svc.Generate(context.Background(), GenerateRequest{
		Sections: []Section{{ID: "bayes", Title: "Bayes' theorem"}},
		Count:    2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BatchID == "" {
		t.Fatal("expected a batch ID")
	}
	if len(res.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(res.Questions))
	}
	if res.Dropped != 0 {
		t.Fatalf("expected no drops, got %d", res.Dropped)
	}

	// Answers and explanations never leave the service.
	for _, q := range res.Questions {
		if q.Answer != nil {
			t.Errorf("question %s leaked its answer", q.ID)
		}
		if q.Explanation != "" {
			t.Errorf("question %s leaked its explanation", q.ID)
		}
	}

	mcq := res.Questions[0]
	if mcq.Type != TypeMCQ {
		t.Fatalf("q1 type = %q, want mcq", mcq.Type)
	}
	if mcq.Options["B"] != "P(B|A)" {
		t.Fatalf("q1 options = %v", mcq.Options)
	}

	// The correct option resolves through letter, index and text alike.
	for _, answer := range []any{"B", "b", float64(1), "1", "P(B|A)"} {
		chk, err := svc.Check(context.Background(), CheckRequest{
			BatchID: res.BatchID, QuestionID: "q1", Answer: answer,
		})
		if err != nil {
			t.Fatalf("check(%v): unexpected error: %v", answer, err)
		}
		if !chk.Correct {
			t.Errorf("check(%v): expected correct", answer)
		}
		if chk.CorrectAnswer != "B" {
			t.Errorf("check(%v): correct_answer = %v, want B", answer, chk.CorrectAnswer)
		}
		if chk.Explanation != "Apply Bayes." {
			t.Errorf("check(%v): explanation = %q", answer, chk.Explanation)
		}
	}

	chk, err := svc.Check(context.Background(), CheckRequest{
		BatchID: res.BatchID, QuestionID: "q1", Answer: "A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chk.Correct {
		t.Error("wrong option must not be correct")
	}

	// Numeric question: string answer coerced at generation time.
	chk, err = svc.Check(context.Background(), CheckRequest{
		BatchID: res.BatchID, QuestionID: "q2", Answer: "0.5",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !chk.Correct {
		t.Error("0.5 must match the stored numeric answer")
	}
	if chk.CorrectAnswer != float64(0.5) {
		t.Errorf("correct_answer = %v, want 0.5", chk.CorrectAnswer)
	}
}

func TestGenerate_NoSections(t *testing.T) {
	svc := NewService(llm.NewMockProvider(), newFakeStore(), DefaultConfig())

	_, err := svc.Generate(context.Background(), GenerateRequest{})
	if err == nil {
		t.Fatal("expected an error for empty sections")
	}
}

func TestGenerate_ProviderErrorIsUpstream(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockCompletion{Err: &llm.ErrProviderUnavailable{}})
	store := newFakeStore()
	svc := NewService(provider, store, DefaultConfig())

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Sections: []Section{{ID: "s"}},
	})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if store.puts != 0 {
		t.Fatal("store must not be written on failure")
	}
}

func TestGenerate_NoJSONIsInvalidOutput(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockCompletion{Text: "I cannot help with that."})
	store := newFakeStore()
	svc := NewService(provider, store, DefaultConfig())

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Sections: []Section{{ID: "s"}},
	})
	if !errors.Is(err, ErrInvalidOutput) {
		t.Fatalf("expected ErrInvalidOutput, got %v", err)
	}
	if store.puts != 0 {
		t.Fatal("store must not be written on failure")
	}
}

func TestGenerate_AllCandidatesDropped(t *testing.T) {
	text := `{"questions": [{"question": "pick", "options": ["x", "y"], "answer": "neither"}]}`
	provider := llm.NewMockProvider(llm.MockCompletion{Text: text})
	store := newFakeStore()
	svc := NewService(provider, store, DefaultConfig())

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Sections: []Section{{ID: "s"}},
	})
	if !errors.Is(err, ErrInvalidOutput) {
		t.Fatalf("expected ErrInvalidOutput, got %v", err)
	}
	if store.puts != 0 {
		t.Fatal("store must not be written when every candidate drops")
	}
}

func TestGenerate_PartialDropSurvives(t *testing.T) {
	text := `{"questions": [
		{"question": "good", "options": ["x", "y"], "answer": 0, "explanation": "e"},
		{"question": "bad", "options": ["x", "y"], "answer": "neither"}
	]}`
	provider := llm.NewMockProvider(llm.MockCompletion{Text: text})
	svc := NewService(provider, newFakeStore(), DefaultConfig())

	res, err := svc.Generate(context.Background(), GenerateRequest{
		Sections: []Section{{ID: "s"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Questions) != 1 {
		t.Fatalf("expected 1 surviving question, got %d", len(res.Questions))
	}
	if res.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", res.Dropped)
	}
}

func TestGenerate_SingleBareQuestion(t *testing.T) {
	text := `{"question": "pick", "options": ["x", "y"], "answer": 1}`
	provider := llm.NewMockProvider(llm.MockCompletion{Text: text})
	svc := NewService(provider, newFakeStore(), DefaultConfig())

	res, err := svc.Generate(context.Background(), GenerateRequest{
		Sections: []Section{{ID: "s"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(res.Questions))
	}
}

func TestGenerate_DuplicateIDsReassigned(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			"fallback target free",
			`{"questions": [
				{"id": "q1", "question": "a", "options": ["x", "y"], "answer": 0},
				{"id": "q1", "question": "b", "options": ["x", "y"], "answer": 1}
			]}`,
		},
		{
			// The positional fallback for the second candidate is q2,
			// which is exactly the colliding ID.
			"fallback target also taken",
			`{"questions": [
				{"id": "q2", "question": "a", "options": ["x", "y"], "answer": 0},
				{"id": "q2", "question": "b", "options": ["x", "y"], "answer": 1}
			]}`,
		},
		{
			// The second candidate has no ID and synthesizes q2, colliding
			// with the first candidate's explicit ID.
			"synthesized ID collides",
			`{"questions": [
				{"id": "q2", "question": "a", "options": ["x", "y"], "answer": 0},
				{"question": "b", "options": ["x", "y"], "answer": 1}
			]}`,
		},
	}

	for _, tc := range tests {
		provider := llm.NewMockProvider(llm.MockCompletion{Text: tc.text})
		store := newFakeStore()
		svc := NewService(provider, store, DefaultConfig())

		res, err := svc.Generate(context.Background(), GenerateRequest{
			Sections: []Section{{ID: "s"}},
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if len(res.Questions) != 2 {
			t.Fatalf("%s: expected 2 questions, got %d", tc.name, len(res.Questions))
		}
		if res.Questions[0].ID == res.Questions[1].ID {
			t.Fatalf("%s: duplicate IDs survived: %s", tc.name, res.Questions[0].ID)
		}

		// Every returned ID has its own stored record, with its own answer.
		if got := len(store.batches[res.BatchID]); got != 2 {
			t.Fatalf("%s: stored %d records, want 2", tc.name, got)
		}
		for i, want := range []string{"A", "B"} {
			chk, err := svc.Check(context.Background(), CheckRequest{
				BatchID: res.BatchID, QuestionID: res.Questions[i].ID, Answer: want,
			})
			if err != nil {
				t.Fatalf("%s: check %s: %v", tc.name, res.Questions[i].ID, err)
			}
			if !chk.Correct {
				t.Errorf("%s: question %s lost its own answer key", tc.name, res.Questions[i].ID)
			}
		}
	}
}

func TestGenerate_CountClamped(t *testing.T) {
	cfg := DefaultConfig()
	svc := NewService(nil, nil, cfg)

	tests := []struct {
		in   int
		want int
	}{
		{0, cfg.DefaultCount},
		{-3, cfg.DefaultCount},
		{1, 1},
		{6, 6},
		{12, 12},
		{50, cfg.MaxCount},
	}
	for _, tc := range tests {
		if got := svc.clampCount(tc.in); got != tc.want {
			t.Errorf("clampCount(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestGenerate_StrictModeSetsSchema(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockCompletion{Text: fencedBatch})
	cfg := DefaultConfig()
	cfg.StrictOutput = true
	svc := NewService(provider, newFakeStore(), cfg)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Sections: []Section{{ID: "bayes"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.Calls) != 1 || provider.Calls[0].Schema != BatchSchema {
		t.Fatal("strict mode must pass the batch schema to the provider")
	}
}

func TestCheck_NotFound(t *testing.T) {
	svc := NewService(nil, newFakeStore(), DefaultConfig())

	_, err := svc.Check(context.Background(), CheckRequest{
		BatchID: "nope", QuestionID: "q1", Answer: "A",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
