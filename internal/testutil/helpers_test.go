package testutil

import (
	"io"
	"net/http"
	"testing"
)

func TestSampleCatalog(t *testing.T) {
	cat := SampleCatalog(t)

	if got := len(cat.States()); got != 6 {
		t.Errorf("Expected 6 states, got %d", got)
	}
	if cat.DefaultTemplate() != "fallback" {
		t.Errorf("Expected default template 'fallback', got %q", cat.DefaultTemplate())
	}
	if len(cat.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", cat.Warnings())
	}
	if !cat.HasIntention("ASK_SESSION") {
		t.Error("Expected ASK_SESSION to be declared")
	}
}

func TestHTTPRequest_Do(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
		w.Header().Set("X-Custom", r.Header.Get("X-Custom"))
		_, _ = w.Write(body)
	})

	req := &HTTPRequest{
		Method:  "POST",
		Path:    "/v1/respond",
		Body:    `{"facts":{}}`,
		Headers: map[string]string{"X-Custom": "yes"},
	}
	rr := req.Do(t, handler)

	if rr.Body.String() != `{"facts":{}}` {
		t.Errorf("Expected echoed body, got %q", rr.Body.String())
	}
	if rr.Header().Get("X-Method") != "POST" {
		t.Errorf("Expected POST, got %q", rr.Header().Get("X-Method"))
	}
	if rr.Header().Get("X-Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type, got %q", rr.Header().Get("X-Content-Type"))
	}
	if rr.Header().Get("X-Custom") != "yes" {
		t.Errorf("Expected custom header, got %q", rr.Header().Get("X-Custom"))
	}
}

func TestHTTPRequest_DoWithoutBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "" {
			t.Errorf("Expected no content type, got %q", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusNoContent)
	})

	rr := (&HTTPRequest{Method: "GET", Path: "/healthz"}).Do(t, handler)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rr.Code)
	}
}
