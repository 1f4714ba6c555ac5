package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/probquiz/probquiz/internal/answers"
	"github.com/probquiz/probquiz/internal/llm"
	"github.com/probquiz/probquiz/internal/quiz"
)

const batchJSON = `{"questions": [
	{"id": "q1", "section_id": "bayes", "question": "Which is larger?", "options": ["P(A|B)", "P(B|A)"], "answer": 1, "explanation": "Apply Bayes."},
	{"id": "q2", "section_id": "bayes", "type": "numeric", "question": "P of heads?", "answer": 0.5, "explanation": "Fair coin."}
]}`

func newTestServer(completions ...llm.MockCompletion) *httptest.Server {
	provider := llm.NewMockProvider(completions...)
	svc := quiz.NewService(provider, answers.NewMemoryStore(), quiz.DefaultConfig())
	return httptest.NewServer(Router(NewHandler(svc), nil))
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestGenerateThenCheck(t *testing.T) {
	srv := newTestServer(llm.MockCompletion{Text: batchJSON})
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/api/quiz/generate",
		`{"sections": [{"id": "bayes", "title": "Bayes' theorem"}], "count": 2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d, body = %v", resp.StatusCode, body)
	}

	batchID, _ := body["batch_id"].(string)
	if batchID == "" {
		t.Fatal("expected a batch_id")
	}

	questions, _ := body["questions"].([]any)
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %v", body["questions"])
	}
	for _, item := range questions {
		q := item.(map[string]any)
		if _, ok := q["answer"]; ok {
			t.Errorf("question %v leaked its answer", q["id"])
		}
		if _, ok := q["explanation"]; ok {
			t.Errorf("question %v leaked its explanation", q["id"])
		}
	}

	resp, body = postJSON(t, srv.URL+"/api/quiz/check",
		`{"batch_id": "`+batchID+`", "question_id": "q1", "answer": "B"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check status = %d, body = %v", resp.StatusCode, body)
	}
	if body["correct"] != true {
		t.Fatalf("expected correct, got %v", body)
	}
	if body["correct_answer"] != "B" {
		t.Errorf("correct_answer = %v, want B", body["correct_answer"])
	}
	if body["explanation"] != "Apply Bayes." {
		t.Errorf("explanation = %v", body["explanation"])
	}

	resp, body = postJSON(t, srv.URL+"/api/quiz/check",
		`{"batch_id": "`+batchID+`", "question_id": "q2", "answer": "0.5"}`)
	if resp.StatusCode != http.StatusOK || body["correct"] != true {
		t.Fatalf("numeric check failed: %d %v", resp.StatusCode, body)
	}
}

func TestGenerateBadRequest(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"sections": [`},
		{"no sections", `{"count": 3}`},
		{"section without id", `{"sections": [{"title": "no id"}]}`},
	}

	for _, tc := range tests {
		resp, body := postJSON(t, srv.URL+"/api/quiz/generate", tc.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, resp.StatusCode)
		}
		if body["error"] != "bad_request" {
			t.Errorf("%s: error = %v, want bad_request", tc.name, body["error"])
		}
	}
}

func TestGenerateUpstreamUnavailable(t *testing.T) {
	// Empty mock queue: the provider fails every call.
	srv := newTestServer()
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/api/quiz/generate",
		`{"sections": [{"id": "bayes"}]}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if body["error"] != "upstream_unavailable" {
		t.Fatalf("error = %v, want upstream_unavailable", body["error"])
	}
}

func TestGenerateInvalidModelOutput(t *testing.T) {
	srv := newTestServer(llm.MockCompletion{Text: "I refuse to answer in JSON."})
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/api/quiz/generate",
		`{"sections": [{"id": "bayes"}]}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if body["error"] != "invalid_model_output" {
		t.Fatalf("error = %v, want invalid_model_output", body["error"])
	}
}

func TestCheckNotFound(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/api/quiz/check",
		`{"batch_id": "nope", "question_id": "q1", "answer": "A"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body["error"] != "question_not_found" {
		t.Fatalf("error = %v, want question_not_found", body["error"])
	}
}

func TestCheckBadRequest(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/api/quiz/check", `{"answer": "A"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "bad_request" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %q", body["status"])
	}
}
