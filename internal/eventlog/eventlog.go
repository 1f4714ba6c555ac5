// Package eventlog persists a record of every LLM call the service makes:
// tokens, latency, outcome and the full request/response bodies. It exists
// for operators — debugging bad generations and watching spend — and has no
// part in serving quiz traffic.
package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/probquiz/probquiz/internal/llm"
)

// ErrNotFound indicates no event exists with the requested ID.
var ErrNotFound = errors.New("event not found")

const schema = `
CREATE TABLE IF NOT EXISTS completion_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at    TIMESTAMP NOT NULL,
	provider      TEXT NOT NULL,
	model         TEXT NOT NULL,
	purpose       TEXT NOT NULL DEFAULT '',
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	success       INTEGER NOT NULL DEFAULT 1,
	error_message TEXT NOT NULL DEFAULT '',
	request_body  TEXT NOT NULL DEFAULT '',
	response_body TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_completion_events_created_at ON completion_events (created_at);
CREATE INDEX IF NOT EXISTS idx_completion_events_purpose ON completion_events (purpose);
`

// Event is a stored completion event.
type Event struct {
	ID           int64
	CreatedAt    time.Time
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

// Usage is an aggregate over a group of events.
type Usage struct {
	Group        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
}

// Log is a SQLite-backed event log. It implements llm.EventSink.
type Log struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the event database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init event db: %w", err)
	}

	return &Log{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// RecordCompletion stores one completion event.
func (l *Log) RecordCompletion(ctx context.Context, ev llm.CompletionEvent) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO completion_events
			(created_at, provider, model, purpose, input_tokens, output_tokens,
			 latency_ms, success, error_message, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.now().UTC(), ev.Provider, ev.Model, ev.Purpose,
		ev.InputTokens, ev.OutputTokens, ev.LatencyMs,
		ev.Success, ev.ErrorMessage, ev.RequestBody, ev.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("record completion event: %w", err)
	}
	return nil
}

// List returns the most recent events, newest first, at most limit.
func (l *Log) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, created_at, provider, model, purpose, input_tokens,
		       output_tokens, latency_ms, success, error_message, '', ''
		FROM completion_events
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Get returns one event by ID, including the request and response bodies.
func (l *Log) Get(ctx context.Context, id int64) (Event, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, created_at, provider, model, purpose, input_tokens,
		       output_tokens, latency_ms, success, error_message,
		       request_body, response_body
		FROM completion_events
		WHERE id = ?`, id)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	return ev, err
}

// UsageByModel aggregates calls and token counts per model.
func (l *Log) UsageByModel(ctx context.Context) ([]Usage, error) {
	return l.usage(ctx, "model")
}

// UsageByPurpose aggregates calls and token counts per purpose.
func (l *Log) UsageByPurpose(ctx context.Context) ([]Usage, error) {
	return l.usage(ctx, "purpose")
}

func (l *Log) usage(ctx context.Context, column string) ([]Usage, error) {
	// column is one of two compile-time constants, never user input.
	rows, err := l.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s,
		       COUNT(*),
		       SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END),
		       SUM(input_tokens),
		       SUM(output_tokens)
		FROM completion_events
		GROUP BY %s
		ORDER BY COUNT(*) DESC`, column, column))
	if err != nil {
		return nil, fmt.Errorf("aggregate usage: %w", err)
	}
	defer rows.Close()

	var out []Usage
	for rows.Next() {
		var u Usage
		if err := rows.Scan(&u.Group, &u.Calls, &u.Failures, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (Event, error) {
	var ev Event
	err := s.Scan(
		&ev.ID, &ev.CreatedAt, &ev.Provider, &ev.Model, &ev.Purpose,
		&ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs, &ev.Success,
		&ev.ErrorMessage, &ev.RequestBody, &ev.ResponseBody,
	)
	if err != nil {
		return Event{}, err
	}
	return ev, nil
}
