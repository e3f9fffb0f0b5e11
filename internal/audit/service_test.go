package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/fouedh91760/a-level-saver-sub001/internal/intent"
	"github.com/fouedh91760/a-level-saver-sub001/internal/resolver"
)

// MockSink is a test implementation of Sink
type MockSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *MockSink) Write(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockSink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// MockClock is a test implementation of Clock
type MockClock struct {
	now time.Time
}

func (m *MockClock) Now() time.Time {
	return m.now
}

// MockIDGen is a test implementation of IDGenerator
type MockIDGen struct {
	id string
}

func (m *MockIDGen) Generate() string {
	return m.id
}

func TestRedactor(t *testing.T) {
	redactor := NewDefaultRedactor()

	tests := []struct {
		name  string
		input map[string]any
		want  map[string]any
	}{
		{
			name:  "redacts email",
			input: map[string]any{"email": "a@b.c", "channel": "mail"},
			want:  map[string]any{"email": "[REDACTED]", "channel": "mail"},
		},
		{
			name:  "redacts token",
			input: map[string]any{"token": "tok_123", "lang": "fr"},
			want:  map[string]any{"token": "[REDACTED]", "lang": "fr"},
		},
		{
			name:  "handles nested maps",
			input: map[string]any{"contact": map[string]any{"phone": "0600", "preferred": "sms"}},
			want:  map[string]any{"contact": map[string]any{"phone": "[REDACTED]", "preferred": "sms"}},
		},
		{
			name:  "nil stays nil",
			input: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactor.Redact(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Redact() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRedactor_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"email": "a@b.c"}
	NewDefaultRedactor().Redact(in)
	if in["email"] != "a@b.c" {
		t.Errorf("input was modified: %v", in)
	}
}

func TestService_Log(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &MockSink{}
	clock := &MockClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	idgen := &MockIDGen{id: "evt-123"}

	svc := NewService(sink, clock, idgen, nil, 10, zerolog.Nop())
	svc.Log(Event{
		Action:         ActionResponded,
		CatalogVersion: "abc",
		TemplateID:     "reschedule",
		Attributes:     map[string]any{"email": "a@b.c"},
	})
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.ID != "evt-123" {
		t.Errorf("expected ID evt-123, got %s", event.ID)
	}
	if !event.OccurredAt.Equal(clock.now) {
		t.Errorf("expected occurred_at %v, got %v", clock.now, event.OccurredAt)
	}
	if event.Status != StatusSuccess {
		t.Errorf("expected status %s, got %s", StatusSuccess, event.Status)
	}
	if event.Attributes["email"] != "[REDACTED]" {
		t.Errorf("email not redacted: %v", event.Attributes["email"])
	}
}

func TestService_CloseDrainsQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &MockSink{}
	svc := NewService(sink, nil, nil, nil, 100, zerolog.Nop())
	for i := 0; i < 50; i++ {
		svc.Log(Event{Action: ActionResponded})
	}
	svc.Close()
	svc.Close()

	if got := len(sink.Events()); got != 50 {
		t.Errorf("expected 50 events after Close, got %d", got)
	}

	svc.Log(Event{Action: ActionResponded})
	if got := len(sink.Events()); got != 50 {
		t.Errorf("events logged after Close must be ignored, got %d", got)
	}
}

func TestService_SinkErrorDoesNotStopWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &MockSink{err: errors.New("sink down")}
	svc := NewService(sink, nil, nil, nil, 10, zerolog.Nop())
	svc.Log(Event{Action: ActionResponded})
	svc.Log(Event{Action: ActionResponded})
	svc.Close()

	if got := len(sink.Events()); got != 0 {
		t.Errorf("expected no stored events, got %d", got)
	}
}

func TestUUIDGenerator(t *testing.T) {
	a, b := UUIDGenerator{}.Generate(), UUIDGenerator{}.Generate()
	if len(a) != 36 || a == b {
		t.Errorf("unexpected ids %q %q", a, b)
	}
}

func TestEventBuilder(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	in := intent.New("ASK_STATUS", []string{"ASK_SESSION"}, map[string]any{"lang": "fr"})
	sel := resolver.Selection{
		TemplateID:   "status_overview",
		Tier:         resolver.TierWildcard,
		Acknowledged: []string{"ASK_SESSION"},
	}

	got := NewEventBuilder(ctx, ActionResponded).
		ForCatalog("v1").
		WithStates([]string{"PAYMENT_PENDING"}).
		WithIntention(in).
		WithSelection(sel).
		WithRenderIssues(2).
		Build()

	want := Event{
		RequestID:      "req-1",
		Action:         ActionResponded,
		Status:         StatusSuccess,
		CatalogVersion: "v1",
		States:         []string{"PAYMENT_PENDING"},
		Primary:        "ASK_STATUS",
		Secondary:      []string{"ASK_SESSION"},
		Attributes:     map[string]any{"lang": "fr"},
		TemplateID:     "status_overview",
		Tier:           "wildcard",
		Acknowledged:   []string{"ASK_SESSION"},
		RenderIssues:   2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}

	failed := NewEventBuilder(context.Background(), ActionCatalogRejected).Failure("bad doc").Build()
	if failed.Status != StatusFailure || failed.ErrorMessage != "bad doc" || failed.RequestID != "" {
		t.Errorf("unexpected failure event %+v", failed)
	}
}

func TestMemorySink(t *testing.T) {
	var s MemorySink
	_ = s.Write(context.Background(), Event{ID: "1"})
	events := s.Events()
	events[0].ID = "changed"
	if s.Events()[0].ID != "1" {
		t.Error("Events() must return a copy")
	}
}
