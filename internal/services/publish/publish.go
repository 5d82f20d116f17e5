// Package publish records a finished summary: a markdown file first, then
// the remote Notion page, then the local video record.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/creachadair/atomicfile"
	"github.com/killallgit/vidsum/internal/models"
	"github.com/killallgit/vidsum/internal/services/notion"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// maxTitleRunes bounds the title part of a summary file name
	maxTitleRunes = 50

	dateLayout      = "2006-01-02"
	unknownUploader = "Unknown"
)

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_\- ]`)

// Metadata describes the video a summary belongs to
type Metadata struct {
	VideoID     string
	Title       string
	Uploader    string
	URL         string
	Platform    models.Platform
	PublishedAt time.Time
	AudioUsed   bool
}

// Publication is what a successful Publish produced
type Publication struct {
	SummaryPath  string
	RemotePageID string
	RemoteSynced bool
	Record       *models.VideoRecord
}

// RemoteStore creates remote pages
type RemoteStore interface {
	Configured() bool
	CreatePage(ctx context.Context, page notion.Page) (string, error)
}

// LocalStore upserts video records
type LocalStore interface {
	Record(ctx context.Context, record *models.VideoRecord) error
}

// Config holds configuration for the publish coordinator
type Config struct {
	OutputDir     string // Default: output
	RemoteTimeout time.Duration
}

// Coordinator writes the summary file and both record stores
type Coordinator struct {
	config Config
	remote RemoteStore
	local  LocalStore
	now    func() time.Time
}

// NewCoordinator creates a publish coordinator. remote may be nil.
func NewCoordinator(cfg Config, remote RemoteStore, local LocalStore) *Coordinator {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	return &Coordinator{config: cfg, remote: remote, local: local, now: time.Now}
}

// Publish writes the summary file, creates the remote page and upserts the
// local record, in that order. A file or local store failure is returned; a
// remote failure is logged and reported through Publication.RemoteSynced.
func (c *Coordinator) Publish(ctx context.Context, meta Metadata, summary string) (*Publication, error) {
	logger := zerolog.Ctx(ctx).With().Str("video_id", meta.VideoID).Logger()

	now := c.now()
	date := now.Format(dateLayout)
	title := DisplayTitle(meta.Title, meta.VideoID)
	uploader := SanitizeName(meta.Uploader)
	if uploader == "" {
		uploader = unknownUploader
	}

	path := SummaryPath(c.config.OutputDir, uploader, title, date)
	if err := writeSummary(path, title, meta.URL, date, summary); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePublishFailed, "failed to write summary file").
			WithDetail("path", path)
	}
	logger.Info().Str("path", path).Msg("summary saved")

	pub := &Publication{SummaryPath: path}
	pub.RemotePageID, pub.RemoteSynced = c.createRemote(ctx, logger, notion.Page{
		Title:    title,
		URL:      meta.URL,
		Platform: string(meta.Platform),
		Date:     date,
		Body:     summary,
	})

	published := now.Unix()
	if !meta.PublishedAt.IsZero() {
		published = meta.PublishedAt.Unix()
	}

	record := &models.VideoRecord{
		VideoID:         meta.VideoID,
		Title:           title,
		UploaderID:      uploader,
		Platform:        meta.Platform,
		URL:             meta.URL,
		PublishDate:     published,
		ProcessedDate:   now.Unix(),
		SummaryPath:     path,
		AudioDownloaded: meta.AudioUsed,
		RemoteSynced:    pub.RemoteSynced,
	}
	if err := c.local.Record(ctx, record); err != nil {
		return pub, apperrors.Wrap(err, apperrors.ErrCodePublishFailed, "failed to record video").
			WithDetail("video_id", meta.VideoID)
	}
	pub.Record = record

	return pub, nil
}

func (c *Coordinator) createRemote(ctx context.Context, logger zerolog.Logger, page notion.Page) (string, bool) {
	if c.remote == nil || !c.remote.Configured() {
		logger.Warn().Msg("remote store not configured, skipping remote record")
		return "", false
	}

	if c.config.RemoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RemoteTimeout)
		defer cancel()
	}

	id, err := c.remote.CreatePage(ctx, page)
	var partial *notion.PartialPageError
	if errors.As(err, &partial) {
		logger.Error().Err(partial.Err).
			Str("page_id", partial.PageID).
			Int("blocks_written", partial.Written).
			Int("blocks_total", partial.Total).
			Msg("remote record created with a truncated body, reconcile will complete it")
		return id, false
	}
	if err != nil {
		logger.Error().Err(err).Str("url", page.URL).Msg("failed to create remote record, local record will be marked unsynced")
		return id, false
	}
	logger.Info().Str("page_id", id).Msg("remote record created")
	return id, true
}

// SanitizeName replaces characters other than letters, digits, '_', '-' and
// space with '_' and trims surrounding whitespace
func SanitizeName(name string) string {
	return strings.TrimSpace(unsafeNameChars.ReplaceAllString(name, "_"))
}

// DisplayTitle returns title, or Video_<id> when the title is blank
func DisplayTitle(title, videoID string) string {
	if strings.TrimSpace(title) == "" {
		return "Video_" + videoID
	}
	return title
}

// SummaryPath returns <dir>/<uploader>/<title, at most 50 runes> - <date>.md
func SummaryPath(outputDir, uploader, title, date string) string {
	safeTitle := SanitizeName(title)
	if runes := []rune(safeTitle); len(runes) > maxTitleRunes {
		safeTitle = string(runes[:maxTitleRunes])
	}
	return filepath.Join(outputDir, uploader, fmt.Sprintf("%s - %s.md", safeTitle, date))
}

// RenderSummary returns the markdown document stored for a video
func RenderSummary(title, url, date, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Summary: %s\n\n", title)
	fmt.Fprintf(&b, "**URL**: %s\n", url)
	fmt.Fprintf(&b, "**Date**: %s\n\n", date)
	b.WriteString(summary)
	return b.String()
}

func writeSummary(path, title, url, date, summary string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := atomicfile.New(path, 0644)
	if err != nil {
		return err
	}
	defer f.Cancel()

	if _, err := io.WriteString(f, RenderSummary(title, url, date, summary)); err != nil {
		return err
	}
	return f.Close()
}
