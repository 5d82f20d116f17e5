package audio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/killallgit/vidsum/internal/services/platforms"
	"github.com/killallgit/vidsum/pkg/download"
	"github.com/killallgit/vidsum/pkg/ytdlp"
	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

// YtDlpDownloader is the primary downloader
type YtDlpDownloader struct {
	client *ytdlp.Client
}

// NewYtDlpDownloader creates a downloader backed by yt-dlp
func NewYtDlpDownloader(client *ytdlp.Client) *YtDlpDownloader {
	return &YtDlpDownloader{client: client}
}

// Download fetches bestaudio/best into dir
func (d *YtDlpDownloader) Download(ctx context.Context, url, dir string) (string, error) {
	return d.client.DownloadAudio(ctx, url, dir, "audio", refererFor(url))
}

func refererFor(url string) string {
	if strings.Contains(url, "bilibili.com") {
		return "https://www.bilibili.com/"
	}
	return "https://www.youtube.com/"
}

// Stream is a direct media URL plus the headers its host requires
type Stream struct {
	URL     string
	Headers map[string]string
}

// StreamResolver turns a video page URL into a direct audio stream
type StreamResolver interface {
	Matches(url string) bool
	Resolve(ctx context.Context, url string) (*Stream, error)
}

// StreamDownloader is the secondary downloader. It resolves a direct audio
// stream without yt-dlp and fetches it over HTTP.
type StreamDownloader struct {
	resolvers []StreamResolver
	options   download.DownloadOptions
}

// NewStreamDownloader creates a stream downloader. options.TempDir is
// replaced by the run directory on each download.
func NewStreamDownloader(options download.DownloadOptions, resolvers ...StreamResolver) *StreamDownloader {
	return &StreamDownloader{resolvers: resolvers, options: options}
}

// Download resolves and fetches the audio stream of url into dir
func (d *StreamDownloader) Download(ctx context.Context, url, dir string) (string, error) {
	for _, resolver := range d.resolvers {
		if !resolver.Matches(url) {
			continue
		}

		stream, err := resolver.Resolve(ctx, url)
		if err != nil {
			return "", fmt.Errorf("resolve audio stream: %w", err)
		}

		opts := d.options
		opts.TempDir = dir
		opts.Headers = stream.Headers
		// Media CDNs label DASH audio as video/mp4 or octet-stream
		opts.ValidateAudio = false

		result, err := download.NewDownloader(opts).DownloadToTemp(ctx, stream.URL, "audio_stream")
		if err != nil {
			return "", err
		}
		return result.FilePath, nil
	}
	return "", fmt.Errorf("no stream resolver for %s", url)
}

// FallbackDownloader tries the primary downloader and, on any error, the
// secondary exactly once. Each attempt gets its own timeout so a primary
// that hangs until its deadline still leaves the secondary a full budget.
type FallbackDownloader struct {
	primary        Downloader
	secondary      Downloader
	attemptTimeout time.Duration
}

// NewFallbackDownloader creates a downloader with one fallback. A zero
// attemptTimeout leaves the attempts bounded by the caller's context only.
func NewFallbackDownloader(primary, secondary Downloader, attemptTimeout time.Duration) *FallbackDownloader {
	return &FallbackDownloader{primary: primary, secondary: secondary, attemptTimeout: attemptTimeout}
}

// Download runs the primary, then the secondary if the primary failed
func (d *FallbackDownloader) Download(ctx context.Context, url, dir string) (string, error) {
	path, err := d.attempt(ctx, d.primary, url, dir)
	if err == nil && path != "" {
		return path, nil
	}
	if err == nil {
		err = errors.New("primary downloader returned no file")
	}
	// Only the caller giving up stops the fallback, not the primary's own deadline
	if d.secondary == nil || ctx.Err() != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Warn().Err(err).Str("url", url).Msg("primary download failed, trying secondary downloader")

	path, secondaryErr := d.attempt(ctx, d.secondary, url, dir)
	if secondaryErr != nil {
		return "", fmt.Errorf("primary: %w; secondary: %w", err, secondaryErr)
	}
	return path, nil
}

func (d *FallbackDownloader) attempt(ctx context.Context, downloader Downloader, url, dir string) (string, error) {
	if d.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.attemptTimeout)
		defer cancel()
	}
	return downloader.Download(ctx, url, dir)
}

// YouTubeStreamResolver picks the highest bitrate audio-only format
type YouTubeStreamResolver struct {
	client    *youtube.Client
	userAgent string
}

// NewYouTubeStreamResolver creates a resolver using the given HTTP client
func NewYouTubeStreamResolver(httpClient *http.Client, userAgent string) *YouTubeStreamResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &YouTubeStreamResolver{
		client:    &youtube.Client{HTTPClient: httpClient},
		userAgent: userAgent,
	}
}

// Matches reports whether url is a YouTube URL
func (r *YouTubeStreamResolver) Matches(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}

// Resolve returns the stream URL of the best audio format
func (r *YouTubeStreamResolver) Resolve(ctx context.Context, url string) (*Stream, error) {
	video, err := r.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}

	formats := video.Formats.Type("audio")
	if len(formats) == 0 {
		return nil, fmt.Errorf("no audio formats for %s", video.ID)
	}

	best := formats[0]
	for _, f := range formats[1:] {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	streamURL, err := r.client.GetStreamURLContext(ctx, video, &best)
	if err != nil {
		return nil, fmt.Errorf("get stream url: %w", err)
	}

	headers := map[string]string{}
	if r.userAgent != "" {
		headers["User-Agent"] = r.userAgent
	}
	return &Stream{URL: streamURL, Headers: headers}, nil
}

// BilibiliStreamResolver resolves DASH audio through the playurl API
type BilibiliStreamResolver struct {
	bilibili *platforms.Bilibili
}

// NewBilibiliStreamResolver creates a resolver over the Bilibili platform client
func NewBilibiliStreamResolver(bilibili *platforms.Bilibili) *BilibiliStreamResolver {
	return &BilibiliStreamResolver{bilibili: bilibili}
}

// Matches reports whether url is a Bilibili video URL
func (r *BilibiliStreamResolver) Matches(url string) bool {
	return r.bilibili.Matches(url)
}

// Resolve returns the best DASH audio stream with referer and cookies
func (r *BilibiliStreamResolver) Resolve(ctx context.Context, url string) (*Stream, error) {
	bvid, err := r.bilibili.VideoID(url)
	if err != nil {
		return nil, err
	}
	streamURL, err := r.bilibili.AudioStreamURL(ctx, bvid)
	if err != nil {
		return nil, err
	}
	return &Stream{URL: streamURL, Headers: r.bilibili.Headers(bvid)}, nil
}
