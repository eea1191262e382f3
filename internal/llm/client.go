// Package llm wraps the external text-generation service behind a single
// Generate call. The model identifier is configuration; nothing in the
// pipeline depends on a specific provider.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgerrors "github.com/UH-CI/course-text-extraction/pkg/errors"
)

// Client generates text from a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// message is a single chat message in the request payload.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request payload for a chat-completions endpoint.
type chatRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
}

// chatResponse is the subset of the response the extractor needs.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// HTTPClient talks to a chat-completions style endpoint.
type HTTPClient struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout bounds every Generate call client-side.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *HTTPClient) {
		c.temperature = t
	}
}

// NewHTTPClient creates a client for the given endpoint and model.
func NewHTTPClient(endpoint, apiKey, model string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		model:       model,
		temperature: 0.3,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends the prompt and returns the raw completion text. Transport
// failures, non-OK statuses, and empty choice lists are all transport errors
// so the caller's retry policy treats them uniformly.
func (c *HTTPClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
		Stream:      false,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", pkgerrors.NewTransport(c.model, "text-generation request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", pkgerrors.NewTransport(c.model,
			fmt.Sprintf("text-generation service returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", pkgerrors.NewTransport(c.model, "decode text-generation response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", pkgerrors.NewTransport(c.model, "text-generation service returned empty choices", nil)
	}

	return parsed.Choices[0].Message.Content, nil
}
