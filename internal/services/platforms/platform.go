// Package platforms resolves video URLs to the YouTube or Bilibili
// integration that can describe them and fetch their captions.
package platforms

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/killallgit/vidsum/internal/models"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	// ErrNoCaptions means the video has no usable caption track. It routes
	// extraction to the audio fallback and is not a failure on its own.
	ErrNoCaptions = apperrors.New(apperrors.ErrCodeNotFound, "no captions available")

	// ErrUnsupportedURL is returned when no platform recognizes a URL
	ErrUnsupportedURL = apperrors.New(apperrors.ErrCodeValidation, "unsupported video URL")

	// ErrInvalidVideoID is returned when a recognized URL carries no video id
	ErrInvalidVideoID = apperrors.New(apperrors.ErrCodeValidation, "could not extract video id")
)

// VideoInfo is the metadata needed to file a summary
type VideoInfo struct {
	ID          string
	Title       string
	Uploader    string
	URL         string
	Platform    models.Platform
	PublishedAt time.Time
}

// Platform is one supported video site
type Platform interface {
	// Name returns the platform tag stored with records
	Name() models.Platform

	// Matches reports whether rawURL belongs to this platform
	Matches(rawURL string) bool

	// VideoID extracts the platform video id from rawURL
	VideoID(rawURL string) (string, error)

	// Captions returns the caption text of a video, or ErrNoCaptions
	Captions(ctx context.Context, rawURL string) (string, error)

	// Describe fetches title and uploader for a video
	Describe(ctx context.Context, rawURL string) (*VideoInfo, error)
}

// Registry dispatches URLs to platforms
type Registry struct {
	platforms []Platform
}

// NewRegistry creates a registry over the given platforms, checked in order
func NewRegistry(platforms ...Platform) *Registry {
	return &Registry{platforms: platforms}
}

// Resolve returns the platform that recognizes rawURL
func (r *Registry) Resolve(rawURL string) (Platform, error) {
	for _, p := range r.platforms {
		if p.Matches(rawURL) {
			return p, nil
		}
	}
	return nil, apperrors.Wrap(ErrUnsupportedURL, apperrors.ErrCodeValidation, fmt.Sprintf("unsupported video URL: %s", rawURL))
}

// Platforms returns the registered platforms
func (r *Registry) Platforms() []Platform {
	return r.platforms
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
