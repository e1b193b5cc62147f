// Package oai wraps the OpenAI chat-completions endpoint with retry and
// error classification.
package oai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/Oudwins/scout/internals/env"
)

const (
	defaultAttemptTimeout = 90 * time.Second
	maxAttempts           = 3
	backoffBase           = 2 * time.Second
	backoffCap            = 10 * time.Second
)

var ErrMissingAPIKey = errors.New("openai api key not configured: set OPENAI_API_KEY")

// APIError is a non-2xx response from the service. Transient codes are
// retried; everything else propagates immediately.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("openai: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("openai: unexpected status %d", e.StatusCode)
}

// Transient reports whether the failure is worth retrying: rate limiting,
// request timeout, or a server-side fault.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= 500
}

// ConnectionError is a transport-level failure (DNS, refused connection,
// dropped socket). Always retryable.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("openai: connection failure: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
}

// ChatResponse is ephemeral; callers derive persisted artifacts from it.
type ChatResponse struct {
	Content      string
	Usage        Usage
	Model        string
	FinishReason string
	ElapsedTime  float64
}

type chatRequestBody struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponseBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage         `json:"usage"`
	Error *apiErrorBody `json:"error,omitempty"`
}

type apiErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	attemptTimeout time.Duration
	backoffBase    time.Duration
	backoffCap     time.Duration
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithAttemptTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.attemptTimeout = timeout
	}
}

// WithBackoff overrides the retry curve. Used by tests to keep waits short.
func WithBackoff(base, cap time.Duration) Option {
	return func(c *Client) {
		c.backoffBase = base
		c.backoffCap = cap
	}
}

// New builds a client from the process environment. The credential is
// checked eagerly so a missing key fails before any work is dispatched.
func New(envs *env.EnvStruct, opts ...Option) (*Client, error) {
	if envs.API_KEY == "" {
		return nil, ErrMissingAPIKey
	}

	client := &Client{
		baseURL:        strings.TrimRight(envs.BASE_URL, "/"),
		apiKey:         envs.API_KEY,
		httpClient:     &http.Client{},
		attemptTimeout: defaultAttemptTimeout,
		backoffBase:    backoffBase,
		backoffCap:     backoffCap,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Complete issues one chat-completion call with up to three attempts.
// Transient failures (rate limit, timeout, connection loss, 5xx) back off
// exponentially from the base, capped; everything else propagates at once.
func (c *Client) Complete(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.WithCappedDuration(c.backoffCap, retry.NewExponential(c.backoffBase)))

	var response *ChatResponse
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := c.complete(ctx, request)
		if err != nil {
			if isTransient(err) {
				slog.Warn("transient completion failure, retrying", "attempt", attempt, "model", request.Model, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) complete(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(chatRequestBody{
		Model:       request.Model,
		Messages:    request.Messages,
		Temperature: request.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed chatResponseBody
		if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Error != nil {
			apiErr.Type = parsed.Error.Type
			apiErr.Message = parsed.Error.Message
		}
		return nil, apiErr
	}

	var parsed chatResponseBody
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Type: parsed.Error.Type, Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	return &ChatResponse{
		Content:      parsed.Choices[0].Message.Content,
		Usage:        parsed.Usage,
		Model:        request.Model,
		FinishReason: parsed.Choices[0].FinishReason,
		ElapsedTime:  time.Since(start).Seconds(),
	}, nil
}

// isTransient classifies a single attempt's failure. Connection-level
// failures and attempt timeouts count as transient; API errors answer for
// themselves.
func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// SanitizeMessages trims oversized assistant content before it is persisted
// in audit metadata. System and user messages are kept as is.
func SanitizeMessages(messages []Message) []Message {
	sanitized := make([]Message, len(messages))
	for i, msg := range messages {
		if msg.Role == "assistant" && len(msg.Content) > 100 {
			msg.Content = msg.Content[:100] + "... [truncated]"
		}
		sanitized[i] = msg
	}
	return sanitized
}
