package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/killallgit/vidsum/internal/models"
	"github.com/killallgit/vidsum/pkg/ytdlp"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// YouTubeLister lists channels and fetches single-video metadata via yt-dlp
type YouTubeLister interface {
	FlatPlaylist(ctx context.Context, url string, limit int) (*ytdlp.Playlist, error)
	Metadata(ctx context.Context, url string) (*ytdlp.Entry, error)
}

// VideoIDResolver extracts YouTube video ids from URLs
type VideoIDResolver interface {
	VideoID(rawURL string) (string, error)
	WatchURL(videoID string) string
}

// YouTubeSource lists YouTube channels. Feed URLs are read as RSS; every
// other channel URL goes through a yt-dlp flat playlist.
type YouTubeSource struct {
	lister   YouTubeLister
	ids      VideoIDResolver
	feeds    *gofeed.Parser
	channels []string
	loc      *time.Location
}

// NewYouTubeSource creates a YouTube source. userAgent is sent with feed
// requests.
func NewYouTubeSource(lister YouTubeLister, ids VideoIDResolver, channels []string, userAgent string) *YouTubeSource {
	feeds := gofeed.NewParser()
	if userAgent != "" {
		feeds.UserAgent = userAgent
	}
	return &YouTubeSource{
		lister:   lister,
		ids:      ids,
		feeds:    feeds,
		channels: channels,
		loc:      time.Local,
	}
}

func (s *YouTubeSource) Platform() models.Platform {
	return models.PlatformYouTube
}

func (s *YouTubeSource) Channels() []string {
	return s.channels
}

func (s *YouTubeSource) List(ctx context.Context, channel string, limit int) ([]Candidate, error) {
	if isFeedURL(channel) {
		return s.listFeed(ctx, channel, limit)
	}
	return s.listPlaylist(ctx, channel, limit)
}

func isFeedURL(channel string) bool {
	return strings.Contains(channel, "youtube.com/feeds/")
}

func (s *YouTubeSource) listFeed(ctx context.Context, channel string, limit int) ([]Candidate, error) {
	feed, err := s.feeds.ParseURLWithContext(channel, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse channel feed: %w", err)
	}

	uploader := feed.Title
	if len(feed.Authors) > 0 && feed.Authors[0].Name != "" {
		uploader = feed.Authors[0].Name
	}

	var candidates []Candidate
	for _, item := range feed.Items {
		if limit > 0 && len(candidates) >= limit {
			break
		}

		id := feedVideoID(item)
		if id == "" {
			id, _ = s.ids.VideoID(item.Link)
		}
		if id == "" {
			continue
		}

		c := Candidate{
			VideoID:  id,
			URL:      s.ids.WatchURL(id),
			Title:    item.Title,
			Uploader: uploader,
			Platform: models.PlatformYouTube,
		}
		if item.PublishedParsed != nil {
			c.PublishedAt = startOfDay(item.PublishedParsed.In(s.loc))
			c.HasDate = true
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// feedVideoID reads the yt:videoId extension of a channel feed entry
func feedVideoID(item *gofeed.Item) string {
	values := item.Extensions["yt"]["videoId"]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

func (s *YouTubeSource) listPlaylist(ctx context.Context, channel string, limit int) ([]Candidate, error) {
	playlist, err := s.lister.FlatPlaylist(ctx, channel, limit)
	if err != nil {
		return nil, err
	}

	uploader := playlist.UploaderName()
	candidates := make([]Candidate, 0, len(playlist.Entries))
	for _, e := range playlist.Entries {
		if e.ID == "" {
			continue
		}
		c := Candidate{
			VideoID:  e.ID,
			URL:      s.ids.WatchURL(e.ID),
			Title:    e.Title,
			Uploader: uploader,
			Platform: models.PlatformYouTube,
		}
		c.PublishedAt, c.HasDate = e.UploadDay(s.loc)
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// IsNew reports whether the upload day is yesterday or later. A candidate
// without a date gets one full metadata fetch; if that carries no date
// either, the candidate is not new.
func (s *YouTubeSource) IsNew(ctx context.Context, c *Candidate, now time.Time) (bool, error) {
	if !c.HasDate {
		entry, err := s.lister.Metadata(ctx, c.URL)
		if err != nil {
			return false, err
		}
		c.PublishedAt, c.HasDate = entry.UploadDay(s.loc)
		if !c.HasDate {
			zerolog.Ctx(ctx).Debug().Str("video_id", c.VideoID).Msg("no upload date available")
			return false, nil
		}
		if c.Title == "" {
			c.Title = entry.Title
		}
	}

	yesterday := startOfDay(now.In(s.loc)).AddDate(0, 0, -1)
	return !c.PublishedAt.Before(yesterday), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
