package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/promptlist/internal/shared"
)

func newFakeGemini(t *testing.T, status int, reply string) (*httptest.Server, *string) {
	t.Helper()
	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		sent = string(raw)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`)
			return
		}

		resp := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": reply}},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &sent
}

func TestGeminiGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("Requires API key", func(t *testing.T) {
		_, err := NewGeminiGenerator(ctx, GeminiConfig{}, nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Generate wraps the prompt", func(t *testing.T) {
		srv, sent := newFakeGemini(t, http.StatusOK, "1. Song A -- Artist A\n2. Song B -- Artist B")

		g, err := NewGeminiGenerator(ctx, GeminiConfig{APIKey: "key", BaseURL: srv.URL}, shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatalf("failed to create generator: %v", err)
		}

		text, err := g.Generate(ctx, "rainy day jazz")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(text, "1. Song A") {
			t.Errorf("unexpected text %q", text)
		}
		if !strings.Contains(*sent, "rainy day jazz") || !strings.Contains(*sent, "Song Name -- Artist Name") {
			t.Errorf("request did not carry the wrapped prompt: %s", *sent)
		}
	})

	t.Run("Empty prompt", func(t *testing.T) {
		srv, _ := newFakeGemini(t, http.StatusOK, "")
		g, _ := NewGeminiGenerator(ctx, GeminiConfig{APIKey: "key", BaseURL: srv.URL}, shared.NewLogger(io.Discard))

		if _, err := g.Generate(ctx, "   "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Upstream failure", func(t *testing.T) {
		srv, _ := newFakeGemini(t, http.StatusInternalServerError, "")
		g, _ := NewGeminiGenerator(ctx, GeminiConfig{APIKey: "key", BaseURL: srv.URL}, shared.NewLogger(io.Discard))

		if _, err := g.Generate(ctx, "anything"); !errors.Is(err, shared.ErrGeneration) {
			t.Errorf("expected ErrGeneration, got %v", err)
		}
	})

	t.Run("Empty reply", func(t *testing.T) {
		srv, _ := newFakeGemini(t, http.StatusOK, "   ")
		g, _ := NewGeminiGenerator(ctx, GeminiConfig{APIKey: "key", BaseURL: srv.URL}, shared.NewLogger(io.Discard))

		if _, err := g.Generate(ctx, "anything"); !errors.Is(err, shared.ErrGeneration) {
			t.Errorf("expected ErrGeneration, got %v", err)
		}
	})
}

func TestWrapPrompt(t *testing.T) {
	got := WrapPrompt("  chill  ")
	if !strings.HasPrefix(got, "chill\n\n") || !strings.HasSuffix(got, FormatInstruction) {
		t.Errorf("unexpected wrapped prompt %q", got)
	}
}
