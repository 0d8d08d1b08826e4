package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseProviderFlag(t *testing.T) {
	cases := []struct {
		flag     string
		provider string
		model    string
	}{
		{"", "openai", ""},
		{"openai", "openai", ""},
		{"openai/gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"openrouter/meta-llama/llama-3-70b", "openrouter", "meta-llama/llama-3-70b"},
	}
	for _, tc := range cases {
		cfg, err := ParseProviderFlag(tc.flag)
		if err != nil {
			t.Errorf("ParseProviderFlag(%q) failed: %v", tc.flag, err)
			continue
		}
		if cfg.Provider != tc.provider || cfg.Model != tc.model {
			t.Errorf("ParseProviderFlag(%q) = %+v, want %s/%s", tc.flag, cfg, tc.provider, tc.model)
		}
	}
}

func TestNewProviderRejectsUnknown(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "delphi"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestChatProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.MaxTokens != 32 {
			t.Errorf("expected max_tokens 32, got %d", req.MaxTokens)
		}

		w.Write([]byte(`{"choices": [{"message": {"content": "  Chess.  "}}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	got, err := p.Complete(context.Background(), "name this cluster", CompletionOpts{MaxTokens: 32})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "Chess." {
		t.Errorf("expected trimmed content, got %q", got)
	}
}

func TestChatProviderSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if _, err := p.Complete(context.Background(), "prompt", CompletionOpts{}); err == nil {
		t.Fatal("expected error for rate-limited response")
	}
}
