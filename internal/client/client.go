package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fouedh91760/a-level-saver-sub001/internal/api"
	"github.com/fouedh91760/a-level-saver-sub001/internal/intent"
	"github.com/fouedh91760/a-level-saver-sub001/internal/responder"
)

// Client is an HTTP client for the responder API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Response   api.ErrorResponse
	Body       string
}

func (e *APIError) Error() string {
	if e.Response.Message != "" {
		return fmt.Sprintf("API error (status %d, %s): %s", e.StatusCode, e.Response.Code, e.Response.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Catalog retrieves the summary of the active catalog
func (c *Client) Catalog(ctx context.Context) (*api.CatalogSummary, error) {
	var out api.CatalogSummary
	if err := c.do(ctx, http.MethodGet, "/v1/catalog", nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Detect classifies facts on the server
func (c *Client) Detect(ctx context.Context, facts map[string]any, explain bool) (*api.DetectResponse, error) {
	raw, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal facts: %w", err)
	}
	var out api.DetectResponse
	if err := c.do(ctx, http.MethodPost, "/v1/detect", api.DetectRequest{Facts: raw, Explain: explain}, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Respond runs the full pipeline on the server
func (c *Client) Respond(ctx context.Context, facts map[string]any, in intent.Intention) (*responder.Response, error) {
	req, err := pipelineRequest(facts, in)
	if err != nil {
		return nil, err
	}
	var out responder.Response
	if err := c.do(ctx, http.MethodPost, "/v1/respond", req, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reload asks the server to re-read its catalog store
func (c *Client) Reload(ctx context.Context) (*api.ReloadResponse, error) {
	var out api.ReloadResponse
	if err := c.do(ctx, http.MethodPost, "/v1/catalog/reload", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func pipelineRequest(facts map[string]any, in intent.Intention) (api.PipelineRequest, error) {
	raw, err := json.Marshal(facts)
	if err != nil {
		return api.PipelineRequest{}, fmt.Errorf("failed to marshal facts: %w", err)
	}
	return api.PipelineRequest{
		Facts: raw,
		Intention: &api.IntentionDTO{
			Primary:    in.Primary,
			Secondary:  in.Secondary,
			Attributes: in.Attributes,
		},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, admin bool, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
		_ = json.Unmarshal(bodyBytes, &apiErr.Response)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
