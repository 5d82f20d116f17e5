package platforms

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
)

// pageMetadata is what a watch page exposes through Open Graph and
// schema.org itemprop tags
type pageMetadata struct {
	Title       string
	Uploader    string
	PublishedAt time.Time
}

// fetchPage GETs a page and returns its body, capped at 8 MiB
func fetchPage(ctx context.Context, client *http.Client, pageURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.ExternalServiceError(req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ExternalServiceError(req.URL.Host, fmt.Errorf("status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
}

// parsePageMetadata reads title, uploader and publish date from page HTML
func parsePageMetadata(body []byte) (*pageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	meta := &pageMetadata{}
	meta.Title = firstAttr(doc, "content",
		`meta[property="og:title"]`,
		`meta[name="title"]`,
		`meta[itemprop="name"]`,
	)
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	meta.Uploader = firstAttr(doc, "content",
		`[itemprop="author"] [itemprop="name"]`,
		`meta[name="author"]`,
		`meta[itemprop="author"]`,
	)

	published := firstAttr(doc, "content",
		`meta[itemprop="datePublished"]`,
		`meta[itemprop="uploadDate"]`,
		`meta[property="og:video:release_date"]`,
	)
	if published != "" {
		meta.PublishedAt = parsePublished(published)
	}

	return meta, nil
}

func firstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr(attr); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func parsePublished(v string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
