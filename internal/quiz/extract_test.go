package quiz

import (
	"errors"
	"testing"
)

func TestExtractObject_PlainJSON(t *testing.T) {
	obj, err := ExtractObject(`{"a": 1, "b": "two"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["a"] != float64(1) {
		t.Fatalf("expected a=1, got %v", obj["a"])
	}
	if obj["b"] != "two" {
		t.Fatalf("expected b=\"two\", got %v", obj["b"])
	}
}

func TestExtractObject_FencedWithProse(t *testing.T) {
	text := "Sure! Here are your questions:\n```json\n{\"questions\": [{\"id\": \"q1\"}]}\n```\nLet me know if you need more."

	obj, err := ExtractObject(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	qs, ok := obj["questions"].([]any)
	if !ok || len(qs) != 1 {
		t.Fatalf("expected one question, got %v", obj["questions"])
	}
}

func TestExtractObject_BracesInsideStrings(t *testing.T) {
	// The closing brace inside the string literal must not end the span.
	obj, err := ExtractObject(`{"content": "P(A) = {0.5}", "id": "q1"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["content"] != "P(A) = {0.5}" {
		t.Fatalf("unexpected content: %v", obj["content"])
	}
}

func TestExtractObject_EscapedQuoteInString(t *testing.T) {
	obj, err := ExtractObject(`{"content": "say \"{\" out loud"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["content"] != `say "{" out loud` {
		t.Fatalf("unexpected content: %v", obj["content"])
	}
}

func TestExtractObject_FirstParsingSpanWins(t *testing.T) {
	obj, err := ExtractObject(`{"first": true} {"second": true}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["first"] != true {
		t.Fatal("expected the first span, got the second")
	}
	if _, ok := obj["second"]; ok {
		t.Fatal("second span must not be preferred")
	}
}

func TestExtractObject_SkipsUnparseableSpan(t *testing.T) {
	// The first balanced span is not valid JSON; the later one is.
	obj, err := ExtractObject(`{not json} and then {"ok": true}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["ok"] != true {
		t.Fatalf("expected the later valid span, got %v", obj)
	}
}

func TestExtractObject_NestedSpanInsideBrokenOuter(t *testing.T) {
	// The outer span is balanced but malformed; the inner object parses.
	obj, err := ExtractObject(`{oops {"inner": 1} oops}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["inner"] != float64(1) {
		t.Fatalf("expected inner object, got %v", obj)
	}
}

func TestExtractObject_UnclosedOuterBrace(t *testing.T) {
	obj, err := ExtractObject(`{ truncated... {"a": 1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["a"] != float64(1) {
		t.Fatalf("expected inner object, got %v", obj)
	}
}

func TestExtractObject_NoJSON(t *testing.T) {
	for _, text := range []string{
		"",
		"no braces here at all",
		"{unbalanced",
		"{not json}",
		"}{",
	} {
		_, err := ExtractObject(text)
		if !errors.Is(err, ErrNoJSON) {
			t.Errorf("ExtractObject(%q): expected ErrNoJSON, got %v", text, err)
		}
	}
}
