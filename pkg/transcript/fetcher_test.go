package transcript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		content     string
		want        TranscriptFormat
	}{
		{"vtt extension", "https://cdn.example.com/a.vtt?sig=1", "", "", FormatVTT},
		{"srt extension", "https://cdn.example.com/a.srt", "", "", FormatSRT},
		{"youtube timedtext endpoint", "https://www.youtube.com/api/timedtext?v=abc&lang=en", "", "", FormatTimedText},
		{"xml content type", "https://host/x", "text/xml; charset=UTF-8", "", FormatTimedText},
		{"json content type", "https://aisubtitle.hdslb.com/bfs/ai_subtitle/prod/1", "application/json", "", FormatBilibili},
		{"vtt header", "https://host/x", "text/plain", "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhi", FormatVTT},
		{"json body", "https://host/x", "text/plain", `{"body":[]}`, FormatBilibili},
		{"plain", "https://host/x", "text/plain", "just words", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectFormat(tt.url, tt.contentType, tt.content))
		})
	}
}

func TestFetchText_BilibiliWithHeaders(t *testing.T) {
	var gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"body":[{"from":0,"to":1,"content":"第一句"},{"from":1,"to":2,"content":"第二句"}]}`))
	}))
	defer server.Close()

	opts := DefaultFetchOptions()
	opts.Headers = map[string]string{"Referer": "https://www.bilibili.com"}
	fetcher := NewFetcher(opts)

	text, err := fetcher.FetchText(context.Background(), server.URL+"/subtitle")
	require.NoError(t, err)
	assert.Equal(t, "第一句 第二句", text)
	assert.Equal(t, "https://www.bilibili.com", gotReferer)
}

func TestFetch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(DefaultFetchOptions()).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetch_EmptyURL(t *testing.T) {
	_, err := NewFetcher(DefaultFetchOptions()).Fetch(context.Background(), "")
	assert.Error(t, err)
}
