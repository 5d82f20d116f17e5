// Package monitor polls configured channels and feeds newly published
// videos to the processor.
package monitor

import (
	"context"
	"time"

	"bitbucket.org/creachadair/stringset"
	"github.com/killallgit/vidsum/internal/models"
	"github.com/killallgit/vidsum/internal/services/processor"
	"github.com/rs/zerolog"
)

// Candidate is one video found in a channel listing
type Candidate struct {
	VideoID  string
	URL      string
	Title    string
	Uploader string
	Platform models.Platform

	// PublishedAt is an instant for Bilibili and a local calendar day for
	// YouTube. HasDate is false when the listing carried no date.
	PublishedAt time.Time
	HasDate     bool
}

// Source lists one platform's configured channels
type Source interface {
	Platform() models.Platform
	Channels() []string

	// List returns the newest uploads of a channel in listing order
	List(ctx context.Context, channel string, limit int) ([]Candidate, error)

	// IsNew applies the platform's recency rule, filling a missing date
	// when the platform allows it
	IsNew(ctx context.Context, c *Candidate, now time.Time) (bool, error)
}

// Processor runs one video through the pipeline
type Processor interface {
	Process(ctx context.Context, req processor.Request) (*processor.Outcome, error)
}

// LocalStore reports whether a video was already recorded
type LocalStore interface {
	IsProcessed(ctx context.Context, videoID string) (bool, error)
}

// Counts tallies one platform's candidates in a run
type Counts struct {
	Listed        int `json:"listed"`
	Processed     int `json:"processed"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
	ListingErrors int `json:"listing_errors"`
}

// RunSummary is the result of one scheduler run
type RunSummary struct {
	StartedAt time.Time                  `json:"started_at"`
	Duration  time.Duration              `json:"duration"`
	Platforms map[models.Platform]*Counts `json:"platforms"`
}

// Total sums the counts of every platform
func (s *RunSummary) Total() Counts {
	var total Counts
	for _, c := range s.Platforms {
		total.Listed += c.Listed
		total.Processed += c.Processed
		total.Skipped += c.Skipped
		total.Failed += c.Failed
		total.ListingErrors += c.ListingErrors
	}
	return total
}

// Config holds scheduler settings
type Config struct {
	PageSize        int           // Default: 10
	ListingTimeout  time.Duration // Per channel listing
	MetadataTimeout time.Duration // Per recency check; falls back to ListingTimeout
}

// Scheduler scans every source once per Run, sequentially
type Scheduler struct {
	config    Config
	sources   []Source
	local     LocalStore
	processor Processor
	now       func() time.Time
}

// NewScheduler creates a scheduler over sources, scanned in the given order
func NewScheduler(cfg Config, local LocalStore, proc Processor, sources ...Source) *Scheduler {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = cfg.ListingTimeout
	}
	return &Scheduler{
		config:    cfg,
		sources:   sources,
		local:     local,
		processor: proc,
		now:       time.Now,
	}
}

// Run scans all channels once. Failures of single listings or candidates are
// logged and counted; only context cancellation ends a run early.
func (s *Scheduler) Run(ctx context.Context) (*RunSummary, error) {
	logger := zerolog.Ctx(ctx)
	start := s.now()
	summary := &RunSummary{
		StartedAt: start,
		Platforms: make(map[models.Platform]*Counts),
	}

	logger.Info().Int("sources", len(s.sources)).Msg("starting monitor run")

	seen := stringset.New()
	for _, src := range s.sources {
		counts := &Counts{}
		summary.Platforms[src.Platform()] = counts

		for _, channel := range src.Channels() {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			s.scanChannel(ctx, src, channel, seen, counts)
		}

		logger.Info().
			Str("platform", string(src.Platform())).
			Int("processed", counts.Processed).
			Int("skipped", counts.Skipped).
			Int("failed", counts.Failed).
			Msg("platform scan complete")
	}

	summary.Duration = s.now().Sub(start)
	return summary, nil
}

func (s *Scheduler) scanChannel(ctx context.Context, src Source, channel string, seen stringset.Set, counts *Counts) {
	logger := zerolog.Ctx(ctx).With().
		Str("platform", string(src.Platform())).
		Str("channel", channel).
		Logger()

	listCtx := ctx
	if s.config.ListingTimeout > 0 {
		var cancel context.CancelFunc
		listCtx, cancel = context.WithTimeout(ctx, s.config.ListingTimeout)
		defer cancel()
	}

	candidates, err := src.List(listCtx, channel, s.config.PageSize)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list channel")
		counts.ListingErrors++
		return
	}
	logger.Debug().Int("candidates", len(candidates)).Msg("channel listed")

	for i := range candidates {
		if ctx.Err() != nil {
			return
		}

		c := &candidates[i]
		if c.VideoID == "" || seen.Contains(c.VideoID) {
			continue
		}
		seen.Add(c.VideoID)
		counts.Listed++

		s.handle(ctx, logger, src, c, counts)
	}
}

func (s *Scheduler) handle(ctx context.Context, logger zerolog.Logger, src Source, c *Candidate, counts *Counts) {
	logger = logger.With().Str("video_id", c.VideoID).Logger()

	known, err := s.local.IsProcessed(ctx, c.VideoID)
	if err != nil {
		logger.Warn().Err(err).Msg("local store check failed, continuing")
	}
	if known {
		counts.Skipped++
		return
	}

	fresh, err := s.isNew(ctx, src, c)
	if err != nil {
		logger.Error().Err(err).Msg("could not determine upload date")
		counts.Failed++
		return
	}
	if !fresh {
		logger.Debug().Time("published", c.PublishedAt).Msg("outside the recency window")
		counts.Skipped++
		return
	}

	logger.Info().Str("title", c.Title).Msg("new video found")
	outcome, err := s.processor.Process(ctx, processor.Request{
		URL:         c.URL,
		Title:       c.Title,
		Uploader:    c.Uploader,
		VideoID:     c.VideoID,
		PublishedAt: c.PublishedAt,
	})
	switch {
	case err != nil:
		logger.Error().Err(err).Msg("failed to process video")
		counts.Failed++
	case outcome.Status == processor.StatusSkipped:
		counts.Skipped++
	default:
		counts.Processed++
	}
}

// isNew bounds the recency check, which may fetch full video metadata
func (s *Scheduler) isNew(ctx context.Context, src Source, c *Candidate) (bool, error) {
	if s.config.MetadataTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.MetadataTimeout)
		defer cancel()
	}
	return src.IsNew(ctx, c, s.now())
}
