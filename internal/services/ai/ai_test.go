package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizer_Summarize(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o",
"choices":[{"index":0,"message":{"role":"assistant","content":"  摘要内容  "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	s := NewSummarizer(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	summary, err := s.Summarize(context.Background(), "NVDA beat earnings")
	require.NoError(t, err)
	assert.Equal(t, "摘要内容", summary)

	assert.Equal(t, "gpt-4o", received["model"])
	messages := received["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, systemPrompt, messages[0].(map[string]any)["content"])
	assert.Contains(t, messages[1].(map[string]any)["content"], "Transcript:\nNVDA beat earnings")
}

func TestSummarizer_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	s := NewSummarizer(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	_, err := s.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeExternalService))
}

func TestSummarizer_Validation(t *testing.T) {
	_, err := NewSummarizer(Config{}).Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewSummarizer(Config{APIKey: "sk"}).Summarize(context.Background(), "  ")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

func TestTranscriber_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "audio.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0644))

	tr := NewTranscriber(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	text, err := tr.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestTranscriber_MissingKey(t *testing.T) {
	_, err := NewTranscriber(Config{}).Transcribe(context.Background(), "x.mp3")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestTranscriber_TooLarge(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "json error body", body: `{"error":{"message":"Maximum content size limit exceeded","type":"invalid_request_error"}}`},
		{name: "plain body", body: `413 Request Entity Too Large`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			path := filepath.Join(t.TempDir(), "audio.mp3")
			require.NoError(t, os.WriteFile(path, []byte("ID3"), 0644))

			_, err := NewTranscriber(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"}).
				Transcribe(context.Background(), path)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrCodeSizeLimit))
			assert.Equal(t, http.StatusRequestEntityTooLarge, apperrors.GetHTTPCode(err))
		})
	}
}
