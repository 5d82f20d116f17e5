package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FetchOptions configures transcript fetching behavior
type FetchOptions struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string // Extra request headers (Referer, Cookie)
	MaxSize   int64             // Maximum transcript size in bytes
}

// DefaultFetchOptions returns default fetch options
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		Timeout:   30 * time.Second,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxSize:   10 * 1024 * 1024, // 10MB max for transcripts
	}
}

// Fetcher handles downloading caption documents from URLs
type Fetcher struct {
	client  *http.Client
	options FetchOptions
	parser  *Parser
}

// NewFetcher creates a new transcript fetcher
func NewFetcher(options FetchOptions) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        5,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
		parser:  NewParser(),
	}
}

// TranscriptResult contains the fetched transcript and metadata
type TranscriptResult struct {
	Content     string
	Format      TranscriptFormat
	ContentType string
	Size        int64
}

// Fetch downloads a transcript from the given URL
func (f *Fetcher) Fetch(ctx context.Context, url string) (*TranscriptResult, error) {
	if url == "" {
		return nil, fmt.Errorf("empty transcript URL")
	}
	if strings.HasPrefix(url, "//") {
		url = "https:" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.options.UserAgent)
	req.Header.Set("Accept", "text/vtt,text/xml,application/json,text/plain,*/*")
	for k, v := range f.options.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if f.options.MaxSize > 0 && resp.ContentLength > f.options.MaxSize {
		return nil, fmt.Errorf("transcript too large: %d bytes (max: %d)", resp.ContentLength, f.options.MaxSize)
	}

	var reader io.Reader = resp.Body
	if f.options.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, f.options.MaxSize)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	content := string(body)
	contentType := resp.Header.Get("Content-Type")

	return &TranscriptResult{
		Content:     content,
		Format:      detectFormat(url, contentType, content),
		ContentType: contentType,
		Size:        int64(len(body)),
	}, nil
}

// FetchText downloads and parses a caption document, returning its plain text
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	result, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	parsed, err := f.parser.Parse(result.Content, result.Format)
	if err != nil {
		return "", err
	}
	return parsed.ToPlainText(), nil
}

// detectFormat determines the transcript format from URL, content type, and content
func detectFormat(url, contentType, content string) TranscriptFormat {
	path := strings.ToLower(url)
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	switch {
	case strings.HasSuffix(path, ".vtt"):
		return FormatVTT
	case strings.HasSuffix(path, ".srt"):
		return FormatSRT
	case strings.HasSuffix(path, ".xml"), strings.Contains(path, "/api/timedtext"):
		return FormatTimedText
	}

	contentTypeLower := strings.ToLower(contentType)
	switch {
	case strings.Contains(contentTypeLower, "vtt"):
		return FormatVTT
	case strings.Contains(contentTypeLower, "subrip"):
		return FormatSRT
	case strings.Contains(contentTypeLower, "xml"):
		return FormatTimedText
	case strings.Contains(contentTypeLower, "json"):
		return FormatBilibili
	}

	start := strings.TrimSpace(content)
	if len(start) > 1000 {
		start = start[:1000]
	}

	switch {
	case strings.HasPrefix(start, "WEBVTT"):
		return FormatVTT
	case strings.Contains(start, "-->"):
		return FormatSRT
	case strings.HasPrefix(start, "<"):
		return FormatTimedText
	case strings.HasPrefix(start, "{"):
		return FormatBilibili
	}

	return FormatText
}
