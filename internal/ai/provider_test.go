package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAIProvider_Chat(t *testing.T) {
	var gotReq openAIChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing bearer auth")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "SELECT 1"}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-test", time.Second)
	got, err := p.Chat(context.Background(),
		[]Message{{Role: "user", Content: "count employees"}},
		Options{Temperature: 0, MaxTokens: 500},
	)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got != "SELECT 1" {
		t.Fatalf("unexpected reply %q", got)
	}
	if gotReq.Model != "gpt-test" || gotReq.MaxTokens != 500 {
		t.Fatalf("request not forwarded: %+v", gotReq)
	}
}

func TestOpenAIProvider_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-test", time.Second)
	_, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected error body surfaced, got %v", err)
	}
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	p := NewOpenAIProvider("http://localhost:1", "", "gpt-test", time.Second)
	if _, err := p.Chat(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestOllamaProvider_Chat(t *testing.T) {
	var gotReq ollamaChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "SELECT 2"},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3:latest", time.Second)
	got, err := p.Chat(context.Background(),
		[]Message{{Role: "user", Content: "count"}},
		Options{Temperature: 0, MaxTokens: 100},
	)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got != "SELECT 2" {
		t.Fatalf("unexpected reply %q", got)
	}
	if gotReq.Stream {
		t.Fatal("expected non-streaming request")
	}
	if gotReq.Options["num_predict"] != float64(100) {
		t.Fatalf("options not forwarded: %v", gotReq.Options)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Get(context.Background(), "nope", ""); err == nil {
		t.Fatal("expected error for unregistered provider")
	}
}
