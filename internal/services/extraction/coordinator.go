// Package extraction produces the transcript of a video, trying platform
// captions first and falling back to audio transcription.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/killallgit/vidsum/internal/services/platforms"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrExtractionFailed is returned when neither captions nor audio produced text
var ErrExtractionFailed = apperrors.New(apperrors.ErrCodeExtractionFailed, "transcript extraction failed")

// Source is where a transcript came from
type Source string

const (
	SourceCaption Source = "caption"
	SourceAudio   Source = "audio"
)

// Result is the transcript of one video
type Result struct {
	Text   string
	Source Source
}

// AudioUsed reports whether the audio fallback produced the transcript
func (r *Result) AudioUsed() bool {
	return r.Source == SourceAudio
}

// CaptionProvider returns platform caption text for a video
type CaptionProvider interface {
	Captions(ctx context.Context, url string) (string, error)
}

// AudioPipeline downloads and transcribes the audio of a video
type AudioPipeline interface {
	Run(ctx context.Context, url string) (string, error)
}

// Coordinator runs TryCaption then TryAudio, with no retries
type Coordinator struct {
	audio          AudioPipeline
	captionTimeout time.Duration
}

// NewCoordinator creates a new extraction coordinator
func NewCoordinator(audio AudioPipeline, captionTimeout time.Duration) *Coordinator {
	return &Coordinator{audio: audio, captionTimeout: captionTimeout}
}

// Extract returns the transcript of url
func (c *Coordinator) Extract(ctx context.Context, captions CaptionProvider, url string) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("url", url).Logger()

	if text, ok := c.tryCaption(ctx, logger, captions, url); ok {
		logger.Info().Int("chars", len([]rune(text))).Msg("transcript extracted from captions")
		return &Result{Text: text, Source: SourceCaption}, nil
	}

	if c.audio == nil {
		return nil, fmt.Errorf("%w: no captions and no audio pipeline", ErrExtractionFailed)
	}

	logger.Info().Msg("falling back to audio transcription")
	text, err := c.audio.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if text = strings.TrimSpace(text); text == "" {
		return nil, fmt.Errorf("%w: audio transcription returned no text", ErrExtractionFailed)
	}

	logger.Info().Int("chars", len([]rune(text))).Msg("transcript extracted from audio")
	return &Result{Text: text, Source: SourceAudio}, nil
}

// tryCaption returns the caption text and whether it is usable. A missing
// caption track and a provider failure both route to audio, logged at
// different levels.
func (c *Coordinator) tryCaption(ctx context.Context, logger zerolog.Logger, captions CaptionProvider, url string) (string, bool) {
	if captions == nil {
		return "", false
	}

	if c.captionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.captionTimeout)
		defer cancel()
	}

	text, err := captions.Captions(ctx, url)
	switch {
	case errors.Is(err, platforms.ErrNoCaptions):
		logger.Info().Err(err).Msg("no captions available")
		return "", false
	case err != nil:
		logger.Warn().Err(err).Msg("caption provider failed")
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		logger.Info().Msg("caption provider returned empty text")
		return "", false
	}
	return text, true
}
