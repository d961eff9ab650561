package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-booking-agent/core/config"
	"go-booking-agent/core/errors"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"bare":          `{"title":"Sync"}`,
		"json fence":    "```json\n{\"title\":\"Sync\"}\n```",
		"upper fence":   "```JSON\n{\"title\":\"Sync\"}\n```",
		"plain fence":   "```\n{\"title\":\"Sync\"}\n```",
		"prose wrapped": "Here is the plan:\n```json\n{\n  \"title\": \"Sync\"\n}\n```\nLet me know!",
		"padded":        "  \n{\"title\":\"Sync\"}\n\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ExtractJSON(in)
			require.NoError(t, err)
			assert.Equal(t, "Sync", got["title"])
		})
	}
}

func TestExtractJSONFailures(t *testing.T) {
	for name, in := range map[string]string{
		"prose":      "I cannot help with that.",
		"array":      `["a","b"]`,
		"null":       "null",
		"bad fenced": "```json\n{title: Sync}\n```",
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractJSON(in)
			assert.True(t, errors.HasCode(err, errors.ErrParse), "got %v", err)
		})
	}
}

func newOpenAIStub(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(config.CompletionConfig{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	})
}

func TestOpenAIComplete(t *testing.T) {
	c := newOpenAIStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	})

	out, err := c.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "Be concise."},
		{Role: RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestOpenAICompleteProviderErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		},
		"bad envelope": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
		"null content": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":null}}]}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newOpenAIStub(t, h).Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
			assert.True(t, errors.HasCode(err, errors.ErrProvider), "got %v", err)
		})
	}
}

func TestOpenAICompleteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAIClient(config.CompletionConfig{BaseURL: url, APIKey: "k", Model: "m"})
	_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	assert.True(t, errors.HasCode(err, errors.ErrProvider))
}

func TestOpenAICompleteNotConfigured(t *testing.T) {
	_, err := NewOpenAIClient(config.CompletionConfig{}).Complete(context.Background(), nil)
	assert.True(t, errors.HasCode(err, errors.ErrConfiguration))
}

func TestNewSelectsProvider(t *testing.T) {
	p, err := New(context.Background(), config.CompletionConfig{Provider: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, p)

	_, err = New(context.Background(), config.CompletionConfig{Provider: "gemini"})
	assert.True(t, errors.HasCode(err, errors.ErrConfiguration))

	_, err = New(context.Background(), config.CompletionConfig{Provider: "llama"})
	assert.Error(t, err)
}

func TestSplitForGemini(t *testing.T) {
	system, history, last := splitForGemini([]Message{
		{Role: RoleSystem, Content: "You are Planner."},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	})

	require.NotNil(t, system)
	assert.Equal(t, []genai.Part{genai.Text("You are Planner.")}, system.Parts)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, []genai.Part{genai.Text("second")}, last)
}

func TestSplitForGeminiWithoutTrailingUser(t *testing.T) {
	_, _, last := splitForGemini([]Message{{Role: RoleSystem, Content: "s"}})
	assert.Nil(t, last)
}
