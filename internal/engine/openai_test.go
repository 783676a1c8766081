package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/model"
)

func TestNewOpenAIClient_Defaults(t *testing.T) {
	c := NewOpenAIClient("sk-test")

	if c.apiKey != "sk-test" {
		t.Errorf("apiKey = %q, want %q", c.apiKey, "sk-test")
	}
	if c.model != "gpt-4o-mini" {
		t.Errorf("model = %q, want %q", c.model, "gpt-4o-mini")
	}
	if c.baseURL != "https://api.openai.com/v1" {
		t.Errorf("baseURL = %q, want default OpenAI URL", c.baseURL)
	}
}

func TestWithBaseURL_TrimsTrailingSlash(t *testing.T) {
	c := NewOpenAIClient("sk-test", WithBaseURL("https://example.com/v1/"))
	if c.baseURL != "https://example.com/v1" {
		t.Errorf("baseURL = %q, trailing slash should be trimmed", c.baseURL)
	}
}

func TestOpenAIComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-mock" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer sk-mock")
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v, want system+user pair", req.Messages)
		}

		resp := chatResponse{
			Choices: []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			}{
				{Message: struct {
					Content string `json:"content"`
				}{Content: "Yes"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-mock", WithBaseURL(srv.URL))
	got, err := c.Complete(context.Background(), "You are an FPV drone expert.", "is this a flip post?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Yes" {
		t.Errorf("Complete = %q, want %q", got, "Yes")
	}
}

func TestOpenAIComplete_RateLimitIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`Rate limit reached. Please try again in 12.5s.`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "prompt")
	if !model.IsRateLimit(err) {
		t.Fatalf("err = %v, want a RateLimitError", err)
	}
	if got := RetryWait(err.Error()); got != 17*time.Second {
		t.Errorf("RetryWait over the error text = %v, want 17s", got)
	}
}

func TestOpenAIComplete_OtherErrorsAreNotRateLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "prompt")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if model.IsRateLimit(err) {
		t.Errorf("401 must not be classified as a rate limit: %v", err)
	}
}

func TestOpenAIComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL))
	if _, err := c.Complete(context.Background(), "sys", "prompt"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestGeminiComplete_RateLimitIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`resource exhausted`))
	}))
	defer srv.Close()

	c := NewGeminiClient("g-test", WithGeminiBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "prompt")
	if !model.IsRateLimit(err) {
		t.Fatalf("err = %v, want a RateLimitError", err)
	}
}

func TestGeminiComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SystemInstruction == nil {
			t.Error("expected system_instruction to be set")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"No"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient("g-test", WithGeminiBaseURL(srv.URL))
	got, err := c.Complete(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "No" {
		t.Errorf("Complete = %q, want %q", got, "No")
	}
}
