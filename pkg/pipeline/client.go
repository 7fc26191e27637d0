// Package pipeline drives automatic note processing: when a note settles
// after an edit, it is categorized and, when allowed, enriched through the
// processing server, and the results folded back into the notes store.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/opennote/pkg/ai"
)

// StatusError reports a non-2xx response from the processing server.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body)
}

// IsConfig reports whether the server rejected the request for missing
// configuration rather than failing to serve it.
func (e *StatusError) IsConfig() bool {
	return e.Status == http.StatusBadRequest
}

// Client calls the processing server's endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the API at baseURL, e.g.
// "http://localhost:3001/api".
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Categorize submits a note for categorization.
func (c *Client) Categorize(ctx context.Context, req ai.CategorizeRequest) (ai.CategorizeResult, error) {
	var result ai.CategorizeResult
	if err := c.post(ctx, "/categorize", req, &result); err != nil {
		return ai.CategorizeResult{}, fmt.Errorf("categorization failed: %w", err)
	}
	return result, nil
}

// Enrich submits a note for enrichment.
func (c *Client) Enrich(ctx context.Context, req ai.EnrichRequest) (ai.EnrichResult, error) {
	var result ai.EnrichResult
	if err := c.post(ctx, "/enrich", req, &result); err != nil {
		return ai.EnrichResult{}, fmt.Errorf("enrichment failed: %w", err)
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
