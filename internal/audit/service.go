package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Action constants for audit logging
const (
	ActionResponded       = "responded"
	ActionCatalogReloaded = "catalog_reloaded"
	ActionCatalogRejected = "catalog_rejected"
)

// Status constants for audit logging
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

const writeTimeout = 5 * time.Second

// Clock interface for testable time operations
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator interface for testable ID generation
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator implements IDGenerator using random UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string { return uuid.NewString() }

// Redactor interface for removing sensitive data
type Redactor interface {
	Redact(data map[string]any) map[string]any
}

// DefaultRedactor replaces the values of sensitive keys, at any depth.
type DefaultRedactor struct {
	sensitiveKeys map[string]bool
}

func NewDefaultRedactor() *DefaultRedactor {
	keys := []string{
		"password", "secret", "token", "api_key", "authorization", "cookie",
		"email", "phone", "iban", "birth_date",
	}
	r := &DefaultRedactor{sensitiveKeys: make(map[string]bool, len(keys))}
	for _, k := range keys {
		r.sensitiveKeys[k] = true
	}
	return r
}

func (r *DefaultRedactor) Redact(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	redacted := make(map[string]any, len(data))
	for k, v := range data {
		switch {
		case r.sensitiveKeys[k]:
			redacted[k] = "[REDACTED]"
		default:
			if nested, ok := v.(map[string]any); ok {
				redacted[k] = r.Redact(nested)
			} else {
				redacted[k] = v
			}
		}
	}
	return redacted
}

// Event is one audit record: a response that was produced, or a catalog change.
type Event struct {
	ID             string         `json:"id"`
	OccurredAt     time.Time      `json:"occurred_at"`
	RequestID      string         `json:"request_id,omitempty"`
	Action         string         `json:"action"`
	Status         string         `json:"status"`
	CatalogVersion string         `json:"catalog_version"`
	States         []string       `json:"states,omitempty"`
	Primary        string         `json:"primary_intention,omitempty"`
	Secondary      []string       `json:"secondary_intentions,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty"`
	TemplateID     string         `json:"template_id,omitempty"`
	Tier           string         `json:"tier,omitempty"`
	Default        bool           `json:"default,omitempty"`
	Acknowledged   []string       `json:"acknowledged,omitempty"`
	RenderIssues   int            `json:"render_issues,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
}

// Sink defines the interface for persisting audit events
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Service queues audit events and writes them to a sink in the background, so
// auditing never delays a response.
type Service struct {
	sink     Sink
	clock    Clock
	idgen    IDGenerator
	redactor Redactor
	log      zerolog.Logger
	queue    chan Event
	stopCh   chan struct{}
	done     sync.WaitGroup
	closed   atomic.Bool
}

// NewService creates a new audit service and starts its worker. Nil collaborators
// get the system defaults.
func NewService(sink Sink, clock Clock, idgen IDGenerator, redactor Redactor, queueSize int, log zerolog.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	if redactor == nil {
		redactor = NewDefaultRedactor()
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	s := &Service{
		sink:     sink,
		clock:    clock,
		idgen:    idgen,
		redactor: redactor,
		log:      log.With().Str("component", "audit").Logger(),
		queue:    make(chan Event, queueSize),
		stopCh:   make(chan struct{}),
	}

	s.done.Add(1)
	go s.worker()

	return s
}

func (s *Service) worker() {
	defer s.done.Done()
	for {
		select {
		case event := <-s.queue:
			s.write(event)
		case <-s.stopCh:
			// drain what is already queued
			for {
				select {
				case event := <-s.queue:
					s.write(event)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.sink.Write(ctx, event); err != nil {
		s.log.Error().Err(err).Str("event_id", event.ID).Msg("write audit event")
	}
}

// Close stops the worker after the queued events are written. Safe to call more
// than once.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stopCh)
	s.done.Wait()
	return nil
}

// Log fills ID, timestamp and status when unset, redacts attributes, and queues
// the event. A full queue drops the event.
func (s *Service) Log(event Event) {
	if s.closed.Load() {
		return
	}
	if event.ID == "" {
		event.ID = s.idgen.Generate()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now().UTC()
	}
	if event.Status == "" {
		event.Status = StatusSuccess
	}
	event.Attributes = s.redactor.Redact(event.Attributes)

	select {
	case s.queue <- event:
	default:
		s.log.Warn().Str("action", event.Action).Str("event_id", event.ID).Msg("audit queue full, dropping event")
	}
}
