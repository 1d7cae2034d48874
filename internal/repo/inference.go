package repo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// InferenceClient wraps an OpenAI-compatible chat-completion endpoint.
// Safe for concurrent use; the underlying HTTP client pools connections.
type InferenceClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewInferenceClient constructs a client for the configured endpoint.
// An empty endpoint targets the default OpenAI API.
func NewInferenceClient(endpoint, apiKey, model string, timeout time.Duration) *InferenceClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &InferenceClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

// Complete sends a prompt and returns the raw completion text. The call is
// bounded by the configured timeout; failures are not retried here.
func (c *InferenceClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	if c == nil {
		return "", fmt.Errorf("inference client not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("inference returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
