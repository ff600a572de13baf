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

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
)

const (
	// DefaultTemperature keeps generated code close to deterministic.
	DefaultTemperature = 0.2

	// CompleteTimeout bounds a non-streaming request.
	CompleteTimeout = 15 * time.Second

	maxErrorBody = 4096
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	HTTPClient  *http.Client
}

// NewClient creates a client from the loaded configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Temperature: DefaultTemperature,
		HTTPClient:  http.DefaultClient,
	}
}

type chatRequest struct {
	Model       string       `json:"model"`
	Messages    Conversation `json:"messages"`
	Temperature float64      `json:"temperature"`
	Stream      bool         `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation and returns the trimmed answer.
func (c *Client) Complete(ctx context.Context, conv Conversation) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, CompleteTimeout)
	defer cancel()

	resp, err := c.do(ctx, conv, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.StreamFailure("failed to decode generator response", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.StreamFailure("empty response from generator", nil)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// OpenStream starts a streaming request and returns the raw event stream.
// The caller must close it.
func (c *Client) OpenStream(ctx context.Context, conv Conversation) (io.ReadCloser, error) {
	resp, err := c.do(ctx, conv, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, conv Conversation, stream bool) (*http.Response, error) {
	if c.APIKey == "" {
		return nil, errors.ConfigError("GROQ_API_KEY is not set", nil)
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    conv,
		Temperature: c.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.StreamFailure("failed to build generator request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	logging.Debug("generator request", "url", url, "model", c.Model, "messages", len(conv), "stream", stream)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.StreamFailure("generator request failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, errors.StreamFailure(fmt.Sprintf("generator request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))), nil)
	}
	return resp, nil
}
