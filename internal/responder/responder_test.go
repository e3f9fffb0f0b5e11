package responder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fouedh91760/a-level-saver-sub001/internal/audit"
	"github.com/fouedh91760/a-level-saver-sub001/internal/detector"
	"github.com/fouedh91760/a-level-saver-sub001/internal/engine"
	"github.com/fouedh91760/a-level-saver-sub001/internal/intent"
	"github.com/fouedh91760/a-level-saver-sub001/internal/render"
	"github.com/fouedh91760/a-level-saver-sub001/internal/resolver"
	"github.com/fouedh91760/a-level-saver-sub001/internal/telemetry"
	"github.com/fouedh91760/a-level-saver-sub001/internal/testutil"
)

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *recordingAuditor) Log(event audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func pendingPayment() engine.Context {
	return engine.Context{
		"name":      "Ana",
		"today":     "2025-06-01",
		"payment":   map[string]any{"status": "pending", "amount": 120},
		"documents": map[string]any{"missing": []any{}},
	}
}

func TestRespond(t *testing.T) {
	cat := testutil.SampleCatalog(t)

	tests := []struct {
		name         string
		facts        engine.Context
		in           intent.Intention
		wantTemplate string
		wantTier     resolver.Tier
		wantStates   []string
		wantText     string
	}{
		{
			name:         "exact entry for warning state",
			facts:        pendingPayment(),
			in:           intent.New("ASK_STATUS", nil, nil),
			wantTemplate: "payment_reminder",
			wantTier:     resolver.TierExact,
			wantStates:   []string{"PAYMENT_PENDING"},
			wantText:     "Hello Ana, your payment of 120 EUR is still pending.\n-- The exam desk",
		},
		{
			name:         "no state and unknown intention falls back",
			facts:        engine.Context{},
			in:           intent.New("COMPLAINT", nil, nil),
			wantTemplate: "fallback",
			wantTier:     resolver.TierDefault,
			wantStates:   []string{},
			wantText:     "Hello there,\nThanks for your message, an advisor will get back to you.\n-- The exam desk",
		},
		{
			name: "blocking state with loop over sessions",
			facts: engine.Context{
				"name":     "Bo",
				"today":    "2025-06-01",
				"exam":     map[string]any{"date": "2025-05-01"},
				"sessions": []any{map[string]any{"label": "June A"}, map[string]any{"label": "July B"}},
			},
			in:           intent.New("REPORT_DATE", nil, nil),
			wantTemplate: "reschedule",
			wantTier:     resolver.TierExact,
			wantStates:   []string{"EXAM_DATE_PASSED"},
			wantText:     "Hello Bo,\nYour exam on 2025-05-01 has passed. Next sessions:\n- June A\n- July B\n-- The exam desk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Static{C: cat})
			got := r.Respond(context.Background(), tt.facts, tt.in)

			if got.TemplateID != tt.wantTemplate {
				t.Errorf("TemplateID = %s, want %s", got.TemplateID, tt.wantTemplate)
			}
			if got.Selection.Tier != tt.wantTier {
				t.Errorf("Tier = %s, want %s", got.Selection.Tier, tt.wantTier)
			}
			if diff := cmp.Diff(tt.wantStates, got.States); diff != "" {
				t.Errorf("States mismatch (-want +got):\n%s", diff)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if got.CatalogVersion != cat.Version() {
				t.Errorf("CatalogVersion = %s, want %s", got.CatalogVersion, cat.Version())
			}
		})
	}
}

func TestRespond_DoesNotModifyFacts(t *testing.T) {
	facts := pendingPayment()
	New(Static{C: testutil.SampleCatalog(t)}).Respond(context.Background(), facts, intent.New("ASK_STATUS", nil, nil))
	for _, k := range []string{"intention", "state", "states", "urgent", "mention_payment"} {
		if _, ok := facts[k]; ok {
			t.Errorf("facts gained key %q", k)
		}
	}
}

func TestRespond_MissingPartialIsReported(t *testing.T) {
	cat := testutil.MustLoad(t, `templates: {default: "A{{> nope}}B"}`)
	before := promtest.ToFloat64(telemetry.RenderIssues.WithLabelValues(string(render.IssueMissingPartial)))

	got := New(Static{C: cat}).Respond(context.Background(), nil, intent.Intention{})
	if got.Text != "AB" {
		t.Errorf("Text = %q, want %q", got.Text, "AB")
	}
	want := []render.Issue{{Kind: render.IssueMissingPartial, Partial: "nope", Template: "default", Depth: 1}}
	if diff := cmp.Diff(want, got.Issues); diff != "" {
		t.Errorf("Issues mismatch (-want +got):\n%s", diff)
	}
	after := promtest.ToFloat64(telemetry.RenderIssues.WithLabelValues(string(render.IssueMissingPartial)))
	if after-before != 1 {
		t.Errorf("render issue counter moved by %v, want 1", after-before)
	}
}

func TestRespond_DefaultFallbackCounted(t *testing.T) {
	before := promtest.ToFloat64(telemetry.DefaultFallbacks)
	got := New(Static{C: testutil.SampleCatalog(t)}).Respond(context.Background(), engine.Context{}, intent.New("COMPLAINT", nil, nil))
	if !got.Selection.Default {
		t.Fatal("expected default selection")
	}
	if after := promtest.ToFloat64(telemetry.DefaultFallbacks); after-before != 1 {
		t.Errorf("default fallback counter moved by %v, want 1", after-before)
	}
}

func TestRespond_Audits(t *testing.T) {
	cat := testutil.SampleCatalog(t)
	auditor := &recordingAuditor{}
	r := New(Static{C: cat}, WithAuditor(auditor))

	r.Respond(context.Background(), pendingPayment(), intent.New("ASK_STATUS", []string{"ASK_SESSION", "ASK_STATUS"}, map[string]any{"lang": "fr"}))

	if len(auditor.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(auditor.events))
	}
	e := auditor.events[0]
	want := audit.Event{
		Action:         audit.ActionResponded,
		Status:         audit.StatusSuccess,
		CatalogVersion: cat.Version(),
		States:         []string{"PAYMENT_PENDING"},
		Primary:        "ASK_STATUS",
		Secondary:      []string{"ASK_SESSION"},
		Attributes:     map[string]any{"lang": "fr"},
		TemplateID:     "payment_reminder",
		Tier:           "exact",
		Acknowledged:   []string{"ASK_SESSION"},
	}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Errorf("audit event mismatch (-want +got):\n%s", diff)
	}
}

func TestRespond_RenderedAtFromClock(t *testing.T) {
	r := New(Static{C: testutil.SampleCatalog(t)})
	fixed := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	if got := r.Respond(context.Background(), nil, intent.Intention{}); !got.RenderedAt.Equal(fixed) {
		t.Errorf("RenderedAt = %v, want %v", got.RenderedAt, fixed)
	}
}

func TestData(t *testing.T) {
	cat := testutil.SampleCatalog(t)
	facts := engine.Context{"name": "Ana", "urgent": "from facts"}
	c := detector.DetectAll(pendingPayment(), cat.States())
	sel := resolver.Selection{State: "PAYMENT_PENDING", Flags: map[string]bool{"urgent": true}}
	in := intent.New("ASK_STATUS", []string{"ASK_SESSION"}, nil)

	got := Data(facts, in, c, sel)
	want := map[string]any{
		"name":   "Ana",
		"urgent": true,
		"intention": map[string]any{
			"primary":    "ASK_STATUS",
			"secondary":  []any{"ASK_SESSION"},
			"attributes": map[string]any{},
		},
		"state":  "PAYMENT_PENDING",
		"states": []any{"PAYMENT_PENDING"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Data() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAndDetect(t *testing.T) {
	cat := testutil.SampleCatalog(t)
	r := New(Static{C: cat})

	c, version := r.Detect(pendingPayment())
	if version != cat.Version() {
		t.Errorf("Detect version = %s", version)
	}
	if diff := cmp.Diff([]string{"PAYMENT_PENDING"}, c.Names()); diff != "" {
		t.Errorf("Detect names mismatch (-want +got):\n%s", diff)
	}

	res := r.Resolve(pendingPayment(), intent.New("ASK_SESSION", nil, nil))
	if res.Selection.TemplateID != "session_info" || res.Selection.Tier != resolver.TierWildcard {
		t.Errorf("Resolve() = %+v", res.Selection)
	}
}
