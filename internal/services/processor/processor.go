// Package processor runs one video through the whole pipeline: duplicate
// check, transcript extraction, summarization and publishing.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/killallgit/vidsum/internal/models"
	"github.com/killallgit/vidsum/internal/services/dedup"
	"github.com/killallgit/vidsum/internal/services/extraction"
	"github.com/killallgit/vidsum/internal/services/platforms"
	"github.com/killallgit/vidsum/internal/services/publish"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrUnsupportedURL is returned when no platform recognizes the request URL
var ErrUnsupportedURL = platforms.ErrUnsupportedURL

// Status is the outcome of processing one video
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Request identifies a video to process. Title, Uploader and VideoID are
// optional and filled from the platform when empty.
type Request struct {
	URL      string `json:"url" binding:"required"`
	Title    string `json:"title,omitempty"`
	Uploader string `json:"uploader,omitempty"`
	VideoID  string `json:"video_id,omitempty"`

	// PublishedAt is set by callers that already know the upload time
	PublishedAt time.Time `json:"-"`
}

// Outcome describes what happened to a request
type Outcome struct {
	Status           Status            `json:"status"`
	VideoID          string            `json:"video_id"`
	Platform         models.Platform   `json:"platform"`
	SkippedBy        dedup.Source      `json:"skipped_by,omitempty"`
	TranscriptSource extraction.Source `json:"transcript_source,omitempty"`
	SummaryPath      string            `json:"summary_path,omitempty"`
	RemoteSynced     bool              `json:"remote_synced"`
	Error            string            `json:"error,omitempty"`
}

// Resolver maps URLs to platforms
type Resolver interface {
	Resolve(rawURL string) (platforms.Platform, error)
}

// Gate checks both record stores for a video
type Gate interface {
	Check(ctx context.Context, url, videoID string) dedup.Source
}

// Extractor produces transcripts
type Extractor interface {
	Extract(ctx context.Context, captions extraction.CaptionProvider, url string) (*extraction.Result, error)
}

// Summarizer turns a transcript into a summary
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Publisher records a finished summary
type Publisher interface {
	Publish(ctx context.Context, meta publish.Metadata, summary string) (*publish.Publication, error)
}

// Config holds processor timeouts
type Config struct {
	SummarizeTimeout time.Duration
	DescribeTimeout  time.Duration
}

// Processor wires the pipeline stages together
type Processor struct {
	config     Config
	resolver   Resolver
	gate       Gate
	extractor  Extractor
	summarizer Summarizer
	publisher  Publisher
}

// New creates a processor
func New(cfg Config, resolver Resolver, gate Gate, extractor Extractor, summarizer Summarizer, publisher Publisher) *Processor {
	return &Processor{
		config:     cfg,
		resolver:   resolver,
		gate:       gate,
		extractor:  extractor,
		summarizer: summarizer,
		publisher:  publisher,
	}
}

// Process runs the pipeline for one video. An unsupported URL returns
// ErrUnsupportedURL and no outcome; every other failure returns an outcome
// with StatusFailed alongside the error.
func (p *Processor) Process(ctx context.Context, req Request) (*Outcome, error) {
	req.URL = strings.TrimSpace(req.URL)

	platform, err := p.resolver.Resolve(req.URL)
	if err != nil {
		return nil, err
	}

	videoID := req.VideoID
	if videoID == "" {
		if videoID, err = platform.VideoID(req.URL); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
		}
	}

	logger := zerolog.Ctx(ctx).With().
		Str("video_id", videoID).
		Str("platform", string(platform.Name())).
		Logger()
	ctx = logger.WithContext(ctx)

	outcome := &Outcome{VideoID: videoID, Platform: platform.Name()}

	if source := p.gate.Check(ctx, req.URL, videoID); source != dedup.SourceNone {
		logger.Info().Str("source", string(source)).Msg("video already processed, skipping")
		outcome.Status = StatusSkipped
		outcome.SkippedBy = source
		return outcome, nil
	}

	logger.Info().Str("url", req.URL).Msg("processing video")

	result, err := p.extractor.Extract(ctx, platform, req.URL)
	if err != nil {
		return p.fail(logger, outcome, "transcript extraction failed", err)
	}
	outcome.TranscriptSource = result.Source

	summary, err := p.summarize(ctx, result.Text)
	if err != nil {
		return p.fail(logger, outcome, "summarization failed", err)
	}

	meta := p.metadata(ctx, platform, req, videoID)
	meta.AudioUsed = result.AudioUsed()

	pub, err := p.publisher.Publish(ctx, meta, summary)
	if pub != nil {
		outcome.SummaryPath = pub.SummaryPath
		outcome.RemoteSynced = pub.RemoteSynced
	}
	if err != nil {
		return p.fail(logger, outcome, "publish failed", err)
	}

	outcome.Status = StatusProcessed
	logger.Info().
		Str("summary_path", outcome.SummaryPath).
		Bool("remote_synced", outcome.RemoteSynced).
		Str("transcript_source", string(outcome.TranscriptSource)).
		Msg("video processed")
	return outcome, nil
}

// Summarize runs extraction and summarization only, without touching the
// record stores
func (p *Processor) Summarize(ctx context.Context, url string) (string, error) {
	platform, err := p.resolver.Resolve(strings.TrimSpace(url))
	if err != nil {
		return "", err
	}

	result, err := p.extractor.Extract(ctx, platform, url)
	if err != nil {
		return "", err
	}
	return p.summarize(ctx, result.Text)
}

func (p *Processor) summarize(ctx context.Context, transcript string) (string, error) {
	if p.config.SummarizeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.SummarizeTimeout)
		defer cancel()
	}

	summary, err := p.summarizer.Summarize(ctx, transcript)
	if errors.Is(err, context.DeadlineExceeded) {
		return "", apperrors.TimeoutError("summarize", p.config.SummarizeTimeout.String()).WithCause(err)
	}
	return summary, err
}

// metadata merges caller-supplied fields with what the platform reports.
// A Describe failure leaves the gaps to the publisher's defaults.
func (p *Processor) metadata(ctx context.Context, platform platforms.Platform, req Request, videoID string) publish.Metadata {
	meta := publish.Metadata{
		VideoID:     videoID,
		Title:       req.Title,
		Uploader:    req.Uploader,
		URL:         req.URL,
		Platform:    platform.Name(),
		PublishedAt: req.PublishedAt,
	}
	if meta.Title != "" && meta.Uploader != "" {
		return meta
	}

	describeCtx := ctx
	if p.config.DescribeTimeout > 0 {
		var cancel context.CancelFunc
		describeCtx, cancel = context.WithTimeout(ctx, p.config.DescribeTimeout)
		defer cancel()
	}

	info, err := platform.Describe(describeCtx, req.URL)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("could not describe video, using supplied metadata")
		return meta
	}

	if meta.Title == "" {
		meta.Title = info.Title
	}
	if meta.Uploader == "" {
		meta.Uploader = info.Uploader
	}
	if meta.PublishedAt.IsZero() {
		meta.PublishedAt = info.PublishedAt
	}
	return meta
}

func (p *Processor) fail(logger zerolog.Logger, outcome *Outcome, msg string, err error) (*Outcome, error) {
	logger.Error().Err(err).Msg(msg)
	outcome.Status = StatusFailed
	outcome.Error = err.Error()
	return outcome, err
}
