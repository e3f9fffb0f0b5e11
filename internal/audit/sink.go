package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// LogSink writes events as structured log lines.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink writing to log at info level.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit").Logger()}
}

func (s *LogSink) Write(_ context.Context, event Event) error {
	e := s.log.Info().
		Str("event_id", event.ID).
		Time("occurred_at", event.OccurredAt).
		Str("action", event.Action).
		Str("status", event.Status).
		Str("catalog_version", event.CatalogVersion)
	if event.RequestID != "" {
		e = e.Str("request_id", event.RequestID)
	}
	if event.Action == ActionResponded {
		e = e.Strs("states", event.States).
			Str("primary_intention", event.Primary).
			Strs("secondary_intentions", event.Secondary).
			Str("template_id", event.TemplateID).
			Str("tier", event.Tier).
			Bool("default", event.Default).
			Int("render_issues", event.RenderIssues)
	}
	if event.ErrorMessage != "" {
		e = e.Str("error", event.ErrorMessage)
	}
	e.Msg("audit")
	return nil
}

// MemorySink keeps events in memory, for tests and the CLI.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *MemorySink) Write(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

const auditSchemaSQL = `
CREATE TABLE IF NOT EXISTS response_audit (
	id              UUID PRIMARY KEY,
	occurred_at     TIMESTAMPTZ NOT NULL,
	action          TEXT NOT NULL,
	status          TEXT NOT NULL,
	catalog_version TEXT NOT NULL,
	template_id     TEXT,
	tier            TEXT,
	is_default      BOOLEAN NOT NULL DEFAULT false,
	details         JSONB NOT NULL
)`

const insertAuditSQL = `
INSERT INTO response_audit (id, occurred_at, action, status, catalog_version, template_id, tier, is_default, details)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`

// PostgresSink stores events in the response_audit table next to the catalog
// revisions.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a PostgreSQL audit sink
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Migrate creates the audit table if it does not exist.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, auditSchemaSQL); err != nil {
		return fmt.Errorf("migrate response_audit: %w", err)
	}
	return nil
}

func (s *PostgresSink) Write(ctx context.Context, event Event) error {
	details, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	_, err = s.pool.Exec(ctx, insertAuditSQL,
		event.ID, event.OccurredAt, event.Action, event.Status, event.CatalogVersion,
		event.TemplateID, event.Tier, event.Default, details)
	return err
}
