package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// maxChildrenPerRequest is Notion's cap on blocks per create/append call
	maxChildrenPerRequest = 100

	// Database property names the page schema relies on
	propName     = "Name"
	propURL      = "URL"
	propPlatform = "Platform"
	propDate     = "Date"
)

// ErrNotConfigured is returned when the API key or database id is missing
var ErrNotConfigured = apperrors.New(apperrors.ErrCodeConfigRequired, "notion credentials are not configured")

// PartialPageError reports a page that was created but whose body could
// not be appended in full. The page exists and is found by URL lookups.
type PartialPageError struct {
	PageID  string
	Written int
	Total   int
	Err     error
}

func (e *PartialPageError) Error() string {
	return fmt.Sprintf("page %s created with %d of %d blocks: %v", e.PageID, e.Written, e.Total, e.Err)
}

func (e *PartialPageError) Unwrap() error {
	return e.Err
}

// Config holds configuration for the Notion client
type Config struct {
	APIKey            string
	DatabaseID        string
	BaseURL           string        // Default: https://api.notion.com/v1
	Version           string        // Default: 2022-06-28
	RequestsPerSecond float64       // Default: 3
	BlockTextLimit    int           // Default: 2000
	Timeout           time.Duration // Default: 30s
}

// Client talks to the Notion REST API
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	config      Config
}

// NewClient creates a new Notion client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.notion.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Version == "" {
		cfg.Version = "2022-06-28"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 3
	}
	if cfg.BlockTextLimit <= 0 {
		cfg.BlockTextLimit = 2000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		config:      cfg,
	}
}

// Configured reports whether both the API key and database id are present
func (c *Client) Configured() bool {
	return c.config.APIKey != "" && c.config.DatabaseID != ""
}

// FindByURL reports whether a page with the given URL property exists
func (c *Client) FindByURL(ctx context.Context, url string) (bool, error) {
	id, err := c.FindPage(ctx, url)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// FindPage returns the id of the first page whose URL property equals url,
// or "" when there is none
func (c *Client) FindPage(ctx context.Context, url string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	req := queryRequest{PageSize: 1}
	req.Filter.Property = propURL
	req.Filter.URL.Equals = url

	var resp queryResponse
	path := fmt.Sprintf("/databases/%s/query", c.config.DatabaseID)
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", fmt.Errorf("query by url: %w", err)
	}

	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].ID, nil
}

// CreatePage creates a database page with the summary as paragraph blocks
// and returns the new page id. Bodies longer than 100 blocks are appended in
// follow-up requests. If one of those fails the page id is returned with a
// *PartialPageError.
func (c *Client) CreatePage(ctx context.Context, page Page) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	blocks := paragraphBlocks(page.Body, c.config.BlockTextLimit)
	first, rest := splitBlocks(blocks, maxChildrenPerRequest)

	req := createPageRequest{
		Properties: pageProperties(page),
		Children:   first,
	}
	req.Parent.DatabaseID = c.config.DatabaseID

	var resp pageResponse
	if err := c.do(ctx, http.MethodPost, "/pages", req, &resp); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}

	written := len(first)
	for len(rest) > 0 {
		var batch []block
		batch, rest = splitBlocks(rest, maxChildrenPerRequest)
		if err := c.AppendBlocks(ctx, resp.ID, batch); err != nil {
			return resp.ID, &PartialPageError{PageID: resp.ID, Written: written, Total: len(blocks), Err: err}
		}
		written += len(batch)
	}

	zerolog.Ctx(ctx).Debug().
		Str("page_id", resp.ID).
		Int("blocks", len(blocks)).
		Msg("notion page created")

	return resp.ID, nil
}

// AppendBlocks appends paragraph blocks to an existing page
func (c *Client) AppendBlocks(ctx context.Context, pageID string, blocks []block) error {
	req := appendChildrenRequest{Children: blocks}
	path := fmt.Sprintf("/blocks/%s/children", pageID)
	if err := c.do(ctx, http.MethodPatch, path, req, nil); err != nil {
		return fmt.Errorf("append blocks: %w", err)
	}
	return nil
}

// CountBlocks returns the number of top-level blocks on a page
func (c *Client) CountBlocks(ctx context.Context, pageID string) (int, error) {
	var count int
	cursor := ""
	for {
		path := fmt.Sprintf("/blocks/%s/children?page_size=%d", pageID, maxChildrenPerRequest)
		if cursor != "" {
			path += "&start_cursor=" + neturl.QueryEscape(cursor)
		}

		var resp queryResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return 0, fmt.Errorf("list blocks: %w", err)
		}
		count += len(resp.Results)

		if !resp.HasMore || resp.NextCursor == "" {
			return count, nil
		}
		cursor = resp.NextCursor
	}
}

// RepairBody appends the blocks of body that a page created from it is
// missing. Existing blocks are taken to be the leading part of body, which
// holds for pages written by CreatePage. It returns the number of blocks
// appended.
func (c *Client) RepairBody(ctx context.Context, pageID, body string) (int, error) {
	if !c.Configured() {
		return 0, ErrNotConfigured
	}

	blocks := paragraphBlocks(body, c.config.BlockTextLimit)
	existing, err := c.CountBlocks(ctx, pageID)
	if err != nil {
		return 0, err
	}
	if existing >= len(blocks) {
		return 0, nil
	}

	var appended int
	rest := blocks[existing:]
	for len(rest) > 0 {
		var batch []block
		batch, rest = splitBlocks(rest, maxChildrenPerRequest)
		if err := c.AppendBlocks(ctx, pageID, batch); err != nil {
			return appended, err
		}
		appended += len(batch)
	}

	zerolog.Ctx(ctx).Info().
		Str("page_id", pageID).
		Int("existing", existing).
		Int("appended", appended).
		Msg("notion page body repaired")

	return appended, nil
}

// do performs one throttled JSON request. A nil body sends no payload.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Notion-Version", c.config.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.ExternalServiceError("notion", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return apperrors.ExternalServiceError("notion", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if jsonErr := json.Unmarshal(data, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return apperrors.ExternalServiceError("notion",
				fmt.Errorf("status %d %s: %s", resp.StatusCode, apiErr.Code, apiErr.Message)).
				WithDetail("status", resp.StatusCode)
		}
		return apperrors.ExternalServiceError("notion", fmt.Errorf("status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.ExternalServiceError("notion", errors.Join(errors.New("decode response"), err))
	}
	return nil
}

// pageProperties builds the Name/URL/Platform/Date property map
func pageProperties(page Page) map[string]any {
	props := map[string]any{
		propName: map[string]any{
			"title": []map[string]any{{"text": map[string]string{"content": page.Title}}},
		},
		propURL: map[string]any{"url": page.URL},
		propPlatform: map[string]any{
			"select": map[string]string{"name": page.Platform},
		},
	}
	if page.Date != "" {
		props[propDate] = map[string]any{"date": map[string]string{"start": page.Date}}
	}
	return props
}

// ChunkText splits text into pieces of at most limit characters
func ChunkText(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func paragraphBlocks(text string, limit int) []block {
	chunks := ChunkText(text, limit)
	blocks := make([]block, 0, len(chunks))
	for _, chunk := range chunks {
		var rt richText
		rt.Type = "text"
		rt.Text.Content = chunk

		var b block
		b.Object = "block"
		b.Type = "paragraph"
		b.Paragraph.RichText = []richText{rt}
		blocks = append(blocks, b)
	}
	return blocks
}

func splitBlocks(blocks []block, n int) ([]block, []block) {
	if len(blocks) <= n {
		return blocks, nil
	}
	return blocks[:n], blocks[n:]
}
