package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DownloadOptions configures the download behavior
type DownloadOptions struct {
	TempDir       string            // Directory for temporary files
	MaxSize       int64             // Maximum file size in bytes (0 = no limit)
	Timeout       time.Duration     // Download timeout
	ProgressFunc  ProgressFunc      // Optional progress callback
	UserAgent     string            // User agent string
	Headers       map[string]string // Extra request headers (Referer, Cookie)
	ValidateAudio bool              // Validate content-type is audio
}

// ProgressFunc is called during download to report progress
type ProgressFunc func(downloaded, total int64)

// DefaultOptions returns default download options
func DefaultOptions() DownloadOptions {
	return DownloadOptions{
		TempDir:       os.TempDir(),
		MaxSize:       2 * 1024 * 1024 * 1024,
		Timeout:       15 * time.Minute,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ValidateAudio: true,
	}
}

// DownloadResult contains information about a successful download
type DownloadResult struct {
	FilePath      string    // Path to downloaded file
	ContentType   string    // Content-Type from response
	ContentLength int64     // Size in bytes
	ETag          string    // ETag header if present
	LastModified  time.Time // Last-Modified header if present
}

// Downloader fetches media streams into temporary files
type Downloader struct {
	client  *http.Client
	options DownloadOptions
}

// NewDownloader creates a new downloader with the given options
func NewDownloader(options DownloadOptions) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true, // Don't compress audio
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
	}
}

// DownloadToTemp downloads a URL to a temporary file named after prefix
func (d *Downloader) DownloadToTemp(ctx context.Context, url string, prefix string) (*DownloadResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("prefix", prefix).Msg("starting stream download")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.options.UserAgent)
	req.Header.Set("Accept", "audio/*,*/*")
	for k, v := range d.options.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("audio download blocked (403 Forbidden): missing referer or session cookies")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if d.options.ValidateAudio && !isAudioContentType(contentType) {
		return nil, fmt.Errorf("invalid content type: %s", contentType)
	}

	contentLength := resp.ContentLength
	if d.options.MaxSize > 0 && contentLength > d.options.MaxSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", contentLength, d.options.MaxSize)
	}

	tempFile, err := d.createTempFile(prefix, url, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := d.downloadToFile(resp.Body, tempFile, contentLength)
	tempPath := tempFile.Name()
	tempFile.Close()

	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	if written == 0 {
		os.Remove(tempPath)
		return nil, fmt.Errorf("server returned an empty body")
	}

	logger.Debug().Int64("bytes", written).Str("path", tempPath).Msg("stream download complete")

	result := &DownloadResult{
		FilePath:      tempPath,
		ContentType:   contentType,
		ContentLength: written,
		ETag:          resp.Header.Get("ETag"),
	}

	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		if t, err := http.ParseTime(lastMod); err == nil {
			result.LastModified = t
		}
	}

	return result, nil
}

// createTempFile creates a temporary file for the download
func (d *Downloader) createTempFile(prefix, url, contentType string) (*os.File, error) {
	ext := extensionFor(url, contentType)

	if err := os.MkdirAll(d.options.TempDir, 0755); err != nil {
		return nil, err
	}

	// Pattern: <prefix>_<random>.<ext>
	pattern := fmt.Sprintf("%s_*%s", prefix, ext)
	return os.CreateTemp(d.options.TempDir, pattern)
}

// extensionFor picks a file extension from the URL path, then the content type
func extensionFor(url, contentType string) string {
	path := url
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	if idx := strings.LastIndex(path, "."); idx >= 0 && idx > strings.LastIndex(path, "/") {
		if ext := path[idx+1:]; isValidAudioExtension(ext) {
			return "." + strings.ToLower(ext)
		}
	}

	switch ct := strings.ToLower(contentType); {
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "mp4"), strings.Contains(ct, "m4a"):
		return ".m4a"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	default:
		return ".mp3"
	}
}

// downloadToFile downloads response body to file with optional progress tracking
func (d *Downloader) downloadToFile(src io.Reader, dst *os.File, totalSize int64) (int64, error) {
	reader := src
	if d.options.ProgressFunc != nil && totalSize > 0 {
		reader = &progressReader{
			reader:   src,
			total:    totalSize,
			callback: d.options.ProgressFunc,
		}
	}

	if d.options.MaxSize > 0 {
		reader = &io.LimitedReader{
			R: reader,
			N: d.options.MaxSize,
		}
	}

	return io.Copy(dst, reader)
}

// CleanupTempFile removes a temporary file. Missing files are not an error.
func CleanupTempFile(path string) error {
	if path == "" {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CleanupOldTempFiles removes entries in tempDir matching pattern whose
// modification time is older than maxAge. Directories are removed recursively.
func CleanupOldTempFiles(tempDir, pattern string, maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(tempDir, pattern))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int

	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(match); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// isAudioContentType checks if content type is audio
func isAudioContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "audio/") ||
		contentType == "application/octet-stream" // Some servers use this for audio
}

// isValidAudioExtension checks if extension is valid for audio files
func isValidAudioExtension(ext string) bool {
	ext = strings.ToLower(ext)
	validExts := []string{"mp3", "m4a", "m4s", "aac", "ogg", "wav", "flac", "opus", "webm"}
	for _, valid := range validExts {
		if ext == valid {
			return true
		}
	}
	return false
}

// progressReader wraps a reader to report progress
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	callback   ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		if pr.callback != nil {
			pr.callback(pr.downloaded, pr.total)
		}
	}
	return n, err
}
