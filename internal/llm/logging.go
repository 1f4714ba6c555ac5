package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// CompletionEvent describes a single provider call for the audit log.
type CompletionEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventSink receives completion events. Implemented by the eventlog package;
// a NopSink is used when no event database is configured.
type EventSink interface {
	RecordCompletion(ctx context.Context, ev CompletionEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordCompletion(context.Context, CompletionEvent) error { return nil }

// LoggingProvider is a decorator that records every provider call as an event.
type LoggingProvider struct {
	inner Provider
	sink  EventSink
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, sink EventSink) Provider {
	return &LoggingProvider{inner: p, sink: sink}
}

func (l *LoggingProvider) Complete(ctx context.Context, req Request) (*Completion, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	comp, err := l.inner.Complete(ctx, req)

	ev := CompletionEvent{
		Provider:    l.inner.ModelID(),
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if comp != nil {
		ev.InputTokens = comp.Usage.InputTokens
		ev.OutputTokens = comp.Usage.OutputTokens
		ev.Model = comp.Model
		ev.ResponseBody = comp.Text
	}

	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// Record the event but don't fail the request if recording fails.
	if logErr := l.sink.RecordCompletion(ctx, ev); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record completion event: %v\n", logErr)
	}

	return comp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the completion request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	b.WriteString("[user]\n")
	b.WriteString(req.Prompt)
	b.WriteString("\n")

	if req.Schema != nil {
		fmt.Fprintf(&b, "\n[schema: %s]\n", req.Schema.Name)
	}

	return b.String()
}
