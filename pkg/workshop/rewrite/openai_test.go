package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatEndpoint(t *testing.T) {
	assert.Equal(t, defaultOpenAIEndpoint, chatEndpoint(""))
	assert.Equal(t, "http://localhost:8080/v1/chat/completions", chatEndpoint("http://localhost:8080"))
	assert.Equal(t, "http://localhost:8080/v1/chat/completions", chatEndpoint("http://localhost:8080/v1/"))
	assert.Equal(t, "http://h/x/chat/completions", chatEndpoint("http://h/x/chat/completions"))
}

func TestOpenAI_Generate(t *testing.T) {
	var received chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"\"Hi.\""}}]}`))
	}))
	defer srv.Close()

	var trace bytes.Buffer
	gen := NewOpenAI(Options{APIKey: "secret", BaseURL: srv.URL, Model: "test-model", Trace: &trace})

	text, err := gen.Generate(context.Background(), `Make this text more concise: "Hello world."`)
	require.NoError(t, err)
	assert.Equal(t, "Hi.", text)

	assert.Equal(t, "test-model", received.Model)
	require.Len(t, received.Messages, 1)
	assert.Equal(t, "user", received.Messages[0].Role)
	assert.Equal(t, `Make this text more concise: "Hello world."`, received.Messages[0].Content)

	assert.Contains(t, trace.String(), "/v1/chat/completions")
	assert.NotContains(t, trace.String(), "secret")
}

func TestOpenAI_Errors(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewOpenAI(Options{APIKey: "k", BaseURL: srv.URL}).Generate(context.Background(), "p")
		assert.ErrorContains(t, err, "(429)")
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("NoChoices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := NewOpenAI(Options{APIKey: "k", BaseURL: srv.URL}).Generate(context.Background(), "p")
		assert.True(t, errors.Is(err, ErrEmptyResult))
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, err := NewOpenAI(Options{}).Generate(context.Background(), "p")
		assert.True(t, errors.Is(err, ErrMissingAPIKey))
	})
}
