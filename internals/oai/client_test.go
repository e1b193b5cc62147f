package oai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Oudwins/scout/internals/env"
)

func testEnv(baseURL string) *env.EnvStruct {
	return &env.EnvStruct{API_KEY: "sk-test", BASE_URL: baseURL}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(testEnv(server.URL), WithBackoff(time.Millisecond, 5*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, server
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(&env.EnvStruct{BASE_URL: "http://localhost"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestCompleteSuccess(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody chatRequestBody
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(completionBody("# Report"))
	})

	resp, err := client.Complete(context.Background(), ChatRequest{
		Model:       "gpt-4o-mini",
		Messages:    []Message{{Role: "system", Content: "prompt"}, {Role: "user", Content: "task"}},
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "# Report" {
		t.Fatalf("expected content, got %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Fatalf("expected 30 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if resp.FinishReason != "stop" {
		t.Fatalf("expected finish reason stop, got %q", resp.FinishReason)
	}
	if resp.ElapsedTime < 0 {
		t.Fatalf("expected non-negative elapsed time")
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody.Model != "gpt-4o-mini" || len(gotBody.Messages) != 2 {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestCompleteRetriesTransient(t *testing.T) {
	t.Parallel()

	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(completionBody("ok"))
	})

	resp, err := client.Complete(context.Background(), ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "ok" {
		t.Fatalf("expected ok, got %q", resp.Content)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestCompleteExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Complete(context.Background(), ChatRequest{Model: "m"})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected terminal 500 APIError, got %v", err)
	}
}

func TestCompleteDoesNotRetryAuthFailure(t *testing.T) {
	t.Parallel()

	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "invalid_request_error", "message": "bad key"},
		})
	})

	_, err := client.Complete(context.Background(), ChatRequest{Model: "m"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected no retry on 401, got %d attempts", attempts)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "bad key" {
		t.Fatalf("expected parsed APIError, got %v", err)
	}
}

func TestCompleteConnectionFailureIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // every attempt now fails at the transport level

	client, err := New(testEnv(server.URL), WithBackoff(time.Millisecond, 5*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Complete(context.Background(), ChatRequest{Model: "m"})
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestAPIErrorTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusRequestTimeout, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
	}
	for _, tt := range tests {
		apiErr := &APIError{StatusCode: tt.status}
		if got := apiErr.Transient(); got != tt.want {
			t.Fatalf("Transient(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestSanitizeMessages(t *testing.T) {
	t.Parallel()

	long := make([]byte, 150)
	for i := range long {
		long[i] = 'a'
	}
	messages := []Message{
		{Role: "system", Content: string(long)},
		{Role: "assistant", Content: string(long)},
		{Role: "assistant", Content: "short"},
	}

	got := SanitizeMessages(messages)
	if got[0].Content != string(long) {
		t.Fatalf("system message should be untouched")
	}
	if len(got[1].Content) != 100+len("... [truncated]") {
		t.Fatalf("assistant message should be truncated, got %d chars", len(got[1].Content))
	}
	if got[2].Content != "short" {
		t.Fatalf("short assistant message should be untouched")
	}
	if messages[1].Content != string(long) {
		t.Fatalf("input slice must not be mutated")
	}
}
