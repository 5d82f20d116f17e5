package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYouTubeServer(t *testing.T, playerJSON func(base string) string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123def45", r.URL.Query().Get("v"))
		fmt.Fprintf(w, `<html><head><meta property="og:title" content="Fed Week"></head><body>
<script>var ytInitialPlayerResponse = %s;var meta = {};</script></body></html>`, playerJSON(server.URL))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		switch r.URL.Query().Get("lang") {
		case "en":
			fmt.Fprint(w, `<?xml version="1.0" encoding="utf-8"?><transcript><text start="0" dur="1.5">stocks &amp;amp; bonds</text><text start="1.5" dur="2">rallied today</text></transcript>`)
		default:
			fmt.Fprint(w, `<transcript></transcript>`)
		}
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestYouTube_Captions(t *testing.T) {
	server := newYouTubeServer(t, func(base string) string {
		return fmt.Sprintf(`{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
{"baseUrl":"%[1]s/api/timedtext?lang=de","languageCode":"de"},
{"baseUrl":"%[1]s/api/timedtext?lang=en","languageCode":"en","kind":"asr"}]}},
"videoDetails":{"videoId":"abc123def45","title":"Fed Week","author":"Savvy"}}`, base)
	})

	yt := NewYouTube(YouTubeConfig{BaseURL: server.URL})
	text, err := yt.Captions(context.Background(), "https://www.youtube.com/watch?v=abc123def45")
	require.NoError(t, err)
	assert.Equal(t, "stocks & bonds rallied today", text)
}

func TestYouTube_Captions_NoTracks(t *testing.T) {
	server := newYouTubeServer(t, func(string) string {
		return `{"playabilityStatus":{"status":"OK"}}`
	})

	yt := NewYouTube(YouTubeConfig{BaseURL: server.URL})
	_, err := yt.Captions(context.Background(), "https://youtu.be/abc123def45")
	assert.ErrorIs(t, err, ErrNoCaptions)
}

func TestYouTube_Captions_EmptyTrack(t *testing.T) {
	server := newYouTubeServer(t, func(base string) string {
		return fmt.Sprintf(`{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
{"baseUrl":"%s/api/timedtext?lang=fr","languageCode":"fr"}]}}}`, base)
	})

	yt := NewYouTube(YouTubeConfig{BaseURL: server.URL})
	_, err := yt.Captions(context.Background(), "https://youtu.be/abc123def45")
	assert.ErrorIs(t, err, ErrNoCaptions)
}

func TestYouTube_Captions_WatchPageError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	yt := NewYouTube(YouTubeConfig{BaseURL: server.URL})
	_, err := yt.Captions(context.Background(), "https://youtu.be/abc123def45")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCaptions)
}

func TestYouTube_Describe(t *testing.T) {
	server := newYouTubeServer(t, func(string) string {
		return `{"videoDetails":{"videoId":"abc123def45","title":"ignored","author":"Savvy"}}`
	})

	yt := NewYouTube(YouTubeConfig{BaseURL: server.URL})
	info, err := yt.Describe(context.Background(), "https://youtu.be/abc123def45")
	require.NoError(t, err)
	assert.Equal(t, "abc123def45", info.ID)
	assert.Equal(t, "Fed Week", info.Title)
	assert.Equal(t, "Savvy", info.Uploader)
	assert.Equal(t, server.URL+"/watch?v=abc123def45", info.URL)
}
