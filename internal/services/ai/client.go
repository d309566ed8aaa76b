package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Client talks to a chat-completion style analysis endpoint. Its output
// is advisory text only: it feeds the escalation policy and is never an
// authorization signal. Every call is bounded by a timeout so a slow or
// down collaborator can only degrade a response, never block a write.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClientFromEnv builds a client from AI_BASE_URL/AI_MODEL/AI_TIMEOUT.
// Returns nil when AI_BASE_URL is unset; callers treat a nil client as
// "analysis disabled".
func NewClientFromEnv() *Client {
	base := os.Getenv("AI_BASE_URL")
	if base == "" {
		return nil
	}
	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = "qwen3"
	}
	timeout := 10 * time.Second
	if s := os.Getenv("AI_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			timeout = d
		}
	}
	return &Client{baseURL: base, model: model, timeout: timeout, httpClient: &http.Client{}}
}

// Analyze sends the item response evidence to the collaborator and
// returns its free-text assessment.
func (c *Client) Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"stream": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ai analyze: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai analyze: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai analyze: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("ai analyze read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai analyze: status %d", resp.StatusCode)
	}
	var out struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("ai analyze decode: %w", err)
	}
	return out.Message.Content, nil
}
