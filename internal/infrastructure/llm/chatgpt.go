package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SelfEarnBot/internal/config"
	"SelfEarnBot/internal/ports"
)

// ChatClient implements ports.CompletionBackend against OpenAI-compatible
// chat-completions APIs (OpenAI and Mistral share the wire format).
type ChatClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	pricePer1K   float64
	httpClient   *http.Client
}

var _ ports.CompletionBackend = (*ChatClient)(nil)

// NewChatClient builds a client from provider configuration.
func NewChatClient(cfg config.ProviderConfig) *ChatClient {
	return &ChatClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		pricePer1K:   cfg.PricePer1K,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends prompt as a single user message and meters the answer.
func (c *ChatClient) Complete(ctx context.Context, prompt string, maxTokens int) (ports.Completion, error) {
	if c == nil {
		return ports.Completion{}, fmt.Errorf("chat client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return ports.Completion{}, fmt.Errorf("chat client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":      c.model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return ports.Completion{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.Completion{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Completion{}, fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return ports.Completion{}, fmt.Errorf("completion error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.Completion{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return ports.Completion{}, fmt.Errorf("completion returned no choices")
	}

	model := decoded.Model
	if model == "" {
		model = c.model
	}
	tokens := decoded.Usage.TotalTokens
	return ports.Completion{
		Text:       decoded.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: tokens,
		Cost:       float64(tokens) / 1000 * c.pricePer1K,
	}, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a professional writer and developer producing client-ready deliverables."
	}
	return prompt
}
