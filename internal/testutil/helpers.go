package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
)

// SampleCatalogYAML is a small enrollment-support catalog shared by package tests.
const SampleCatalogYAML = `
default_template: fallback
states:
  - name: CREDENTIALS_INVALID
    priority: 10
    severity: BLOCKING
    description: The exam platform rejected the stored credentials.
    condition: {field: exam_account.credentials_valid, op: is_false}
    flags: {show_credentials_help: true}
  - name: EXAM_DATE_PASSED
    priority: 20
    severity: BLOCKING
    condition:
      all:
        - {field: exam.date, op: before, ref: today}
        - {field: exam.result, op: missing}
    flags: {offer_new_date: true}
  - name: PAYMENT_PENDING
    priority: 30
    severity: WARNING
    condition: {field: payment.status, op: eq, value: pending}
    flags: {mention_payment: true, urgent: true}
  - name: DOCUMENTS_MISSING
    priority: 40
    severity: WARNING
    condition: {field: documents.missing, op: not_empty}
    flags: {list_documents: true, urgent: false}
  - name: DOSSIER_COMPLETE
    priority: 50
    severity: INFO
    condition:
      all:
        - {field: documents.missing, op: empty}
        - {field: payment.status, op: eq, value: paid}
    flags: {congratulate: true}
  - name: SESSION_ASSIGNED
    priority: 60
    severity: INFO
    condition: {field: session.label, op: exists}
    flags: {show_session: true}
intentions:
  - REPORT_DATE
  - ASK_CREDENTIALS
  - ASK_STATUS
  - name: ASK_SESSION
    description: The requester wants to know which exam session they are booked on.
  - COMPLAINT
resolutions:
  - {state: EXAM_DATE_PASSED, intention: REPORT_DATE, template: reschedule, flags: {urgent: true}}
  - {state: CREDENTIALS_INVALID, intention: ASK_CREDENTIALS, template: credentials_help}
  - {state: PAYMENT_PENDING, intention: ASK_STATUS, template: payment_reminder}
  - {state: "*", intention: ASK_STATUS, template: status_overview, flags: {show_status: true}}
  - {state: "*", intention: ASK_SESSION, template: session_info, flags: {show_session_dates: true}}
templates:
  fallback: |-
    Hello {{#if name}}{{name}}{{else}}there{{/if}},
    Thanks for your message, an advisor will get back to you.
    {{> signature}}
  reschedule: |-
    Hello {{name}},
    Your exam on {{exam.date}} has passed.{{#if offer_new_date}} Next sessions:{{#each sessions as s}}
    - {{s.label}}{{/each}}{{/if}}
    {{> signature}}
  credentials_help: |-
    Hello {{name}}, please reset your password at {{{links.reset}}}.
    {{> signature}}
  payment_reminder: |-
    Hello {{name}}, your payment of {{payment.amount}} EUR is still pending.
    {{> signature}}
  status_overview: |-
    Hello {{name}},{{#if mention_payment}} Your payment is pending.{{/if}}{{#if list_documents}} Missing documents: {{documents.missing}}.{{/if}}{{#if show_session}} Session: {{session.label}}.{{/if}}
    {{> signature}}
  session_info: |-
    Hello {{name}},{{#if session.label}} you are booked on {{session.label}}.{{else}} no session is assigned yet.{{/if}}
    {{> signature}}
partials:
  signature: "-- The exam desk"
`

// SampleRaw decodes SampleCatalogYAML.
func SampleRaw(t testing.TB) catalog.Raw {
	t.Helper()
	raw, err := catalog.Decode([]byte(SampleCatalogYAML), catalog.FormatYAML)
	if err != nil {
		t.Fatalf("decode sample catalog: %v", err)
	}
	return raw
}

// SampleCatalog loads SampleCatalogYAML.
func SampleCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(SampleRaw(t))
	if err != nil {
		t.Fatalf("load sample catalog: %v", err)
	}
	return cat
}

// MustLoad decodes and loads a YAML catalog document.
func MustLoad(t testing.TB, doc string) *catalog.Catalog {
	t.Helper()
	raw, err := catalog.Decode([]byte(doc), catalog.FormatYAML)
	if err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	cat, err := catalog.Load(raw)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
