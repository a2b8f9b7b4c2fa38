// Package llm is a client for OpenAI-compatible chat completion APIs.
// It works against llama-server, ollama, vllm and the hosted providers
// that speak the same wire format.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sethvargo/go-retry"
)

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string        // optional; sent as a Bearer token when set
	APIPath     string        // optional, defaults to "/v1/chat/completions"
	Temperature float64       // optional
	MaxTokens   int           // optional, defaults to 1024
	Timeout     time.Duration // optional, defaults to 2min
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL     string
	apiPath     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	retryBase   time.Duration
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	if cfg.APIPath == "" {
		cfg.APIPath = "/v1/chat/completions"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiPath:     cfg.APIPath,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		retryBase:   500 * time.Millisecond,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Chat sends the conversation and returns the assistant's reply. Transient
// failures (network errors, 429, 5xx) are retried with jittered exponential
// backoff; other errors fail immediately.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	var reply string
	b := retry.WithMaxRetries(3, retry.WithJitter(100*time.Millisecond, retry.NewExponential(c.retryBase)))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		reply, err = c.doRequest(ctx, body)
		return err
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) (string, error) {
	// Body must be a fresh reader on every attempt.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.apiPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isNetworkError(err) {
			return "", retry.RetryableError(err)
		}
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("llm server returned %d: %s", resp.StatusCode, string(errBody))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", retry.RetryableError(err)
		}
		return "", err
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat response")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func isNetworkError(err error) bool {
	if os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
