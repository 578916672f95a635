package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

// Client talks to an external ML service that rates generated content.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.QualityAssessor = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Assess sends the draft for scoring and returns a quality in [0,1].
func (c *Client) Assess(ctx context.Context, category domain.Category, title, body string) (float64, error) {
	payload := map[string]any{
		"category": string(category),
		"title":    title,
		"content":  body,
	}

	var resp struct {
		Quality *float64 `json:"quality"`
	}
	if err := c.post(ctx, "/assess", payload, &resp); err != nil {
		return 0, err
	}
	if resp.Quality == nil {
		return 0, fmt.Errorf("assessor response has no quality")
	}
	q := *resp.Quality
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("assessor quality %.3f out of range", q)
	}
	return q, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if v == nil {
		if err := resp.Body.Close(); err != nil {
			return fmt.Errorf("close response body: %w", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
