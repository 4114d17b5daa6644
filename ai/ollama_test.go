package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/quizpilot/config"
)

func ollamaConfig(url string) config.AIConfig {
	return config.AIConfig{
		Backend:        config.BackendOllama,
		OllamaURL:      url,
		OllamaModel:    "llama3",
		RequestTimeout: 5 * time.Second,
	}
}

func TestOllama_UsableAnswer(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": " 2\n"})
	}))
	defer srv.Close()

	c := NewOllamaClient(ollamaConfig(srv.URL))
	choice, ok := c.Answer(context.Background(), capitalQuestion)
	if !ok || choice != 2 {
		t.Fatalf("Answer = (%d, %v), want (2, true)", choice, ok)
	}

	if gotReq.Model != "llama3" {
		t.Errorf("request model = %q, want llama3", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("request must set stream:false")
	}
	if !strings.Contains(gotReq.Prompt, "2. Paris") {
		t.Error("prompt does not enumerate options")
	}
}

func TestOllama_ProseReplyIsNotUsable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "I think it's Paris"})
	}))
	defer srv.Close()

	c := NewOllamaClient(ollamaConfig(srv.URL))
	if _, ok := c.Answer(context.Background(), capitalQuestion); ok {
		t.Fatal("prose reply reported as usable")
	}
}

func TestOllama_ServerErrorIsNotUsable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient(ollamaConfig(srv.URL))
	if _, ok := c.Answer(context.Background(), capitalQuestion); ok {
		t.Fatal("500 response reported as usable")
	}
}

func TestOllama_BodyErrorFieldIsNotUsable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'llama3' not found"})
	}))
	defer srv.Close()

	c := NewOllamaClient(ollamaConfig(srv.URL))
	if _, ok := c.Answer(context.Background(), capitalQuestion); ok {
		t.Fatal("body-level error reported as usable")
	}
}

func TestOllama_UnreachableBackendIsNotUsable(t *testing.T) {
	c := NewOllamaClient(ollamaConfig("http://127.0.0.1:1"))
	if _, ok := c.Answer(context.Background(), capitalQuestion); ok {
		t.Fatal("unreachable backend reported as usable")
	}
}
