package api

import (
	"encoding/json"
	"time"

	"github.com/fouedh91760/a-level-saver-sub001/internal/detector"
	"github.com/fouedh91760/a-level-saver-sub001/internal/resolver"
)

// IntentionDTO is the API-layer requester intention.
type IntentionDTO struct {
	Primary    string         `json:"primary"`
	Secondary  []string       `json:"secondary,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// DetectRequest is the request payload for POST /v1/detect.
type DetectRequest struct {
	Facts   json.RawMessage `json:"facts"`
	Explain bool            `json:"explain,omitempty"`
}

// DetectResponse is the response payload for POST /v1/detect.
type DetectResponse struct {
	States         []string              `json:"states"`
	Blocking       string                `json:"blocking,omitempty"`
	Warnings       []string              `json:"warnings"`
	Infos          []string              `json:"infos"`
	Evaluations    []detector.Evaluation `json:"evaluations,omitempty"`
	CatalogVersion string                `json:"catalogVersion"`
}

// PipelineRequest is the request payload for POST /v1/resolve and /v1/respond.
type PipelineRequest struct {
	Facts     json.RawMessage `json:"facts"`
	Intention *IntentionDTO   `json:"intention"`
}

// ResolveResponse is the response payload for POST /v1/resolve.
type ResolveResponse struct {
	States         []string           `json:"states"`
	Selection      resolver.Selection `json:"selection"`
	CatalogVersion string             `json:"catalogVersion"`
}

// ReloadResponse is the response payload for POST /v1/catalog/reload.
type ReloadResponse struct {
	OK       bool     `json:"ok"`
	Changed  bool     `json:"changed"`
	Version  string   `json:"version"`
	ETag     string   `json:"etag"`
	Warnings []string `json:"warnings,omitempty"`
}

// CatalogSummary is the response payload for GET /v1/catalog.
type CatalogSummary struct {
	Version         string              `json:"version"`
	LoadedAt        time.Time           `json:"loadedAt"`
	Escape          string              `json:"escape"`
	DefaultTemplate string              `json:"defaultTemplate"`
	States          []StateSummary      `json:"states"`
	Intentions      []IntentionSummary  `json:"intentions"`
	Resolutions     []ResolutionSummary `json:"resolutions"`
	Templates       []string            `json:"templates"`
	Partials        []string            `json:"partials"`
	Warnings        []string            `json:"warnings,omitempty"`
}

// StateSummary describes one state definition without its condition.
type StateSummary struct {
	Name        string          `json:"name"`
	Priority    int             `json:"priority"`
	Severity    string          `json:"severity"`
	Description string          `json:"description,omitempty"`
	Flags       map[string]bool `json:"flags,omitempty"`
}

type IntentionSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ResolutionSummary struct {
	State     string          `json:"state"`
	Intention string          `json:"intention"`
	Template  string          `json:"template"`
	Flags     map[string]bool `json:"flags,omitempty"`
}
