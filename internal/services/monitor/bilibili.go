package monitor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/killallgit/vidsum/internal/models"
	"github.com/killallgit/vidsum/internal/services/platforms"
)

// BilibiliWindow is how old an upload may be and still count as new
const BilibiliWindow = 24 * time.Hour

// BilibiliLister lists a user's uploads
type BilibiliLister interface {
	ListUploads(ctx context.Context, mid int64, pageSize int) ([]platforms.Upload, error)
	VideoURL(bvid string) string
}

// BilibiliSource lists uploads of Bilibili users by uid
type BilibiliSource struct {
	lister BilibiliLister
	uids   []int64
	window time.Duration
}

// NewBilibiliSource creates a source for the given uids. window <= 0 uses
// BilibiliWindow.
func NewBilibiliSource(lister BilibiliLister, uids []int64, window time.Duration) *BilibiliSource {
	if window <= 0 {
		window = BilibiliWindow
	}
	return &BilibiliSource{lister: lister, uids: uids, window: window}
}

func (s *BilibiliSource) Platform() models.Platform {
	return models.PlatformBilibili
}

func (s *BilibiliSource) Channels() []string {
	channels := make([]string, len(s.uids))
	for i, uid := range s.uids {
		channels[i] = strconv.FormatInt(uid, 10)
	}
	return channels
}

func (s *BilibiliSource) List(ctx context.Context, channel string, limit int) ([]Candidate, error) {
	mid, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid bilibili uid %q: %w", channel, err)
	}

	uploads, err := s.lister.ListUploads(ctx, mid, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(uploads))
	for _, u := range uploads {
		candidates = append(candidates, Candidate{
			VideoID:     u.BVID,
			URL:         s.lister.VideoURL(u.BVID),
			Title:       u.Title,
			Uploader:    u.Author,
			Platform:    models.PlatformBilibili,
			PublishedAt: time.Unix(u.Created, 0),
			HasDate:     u.Created > 0,
		})
	}
	return candidates, nil
}

// IsNew reports whether the upload is at most window old. The boundary is
// inclusive.
func (s *BilibiliSource) IsNew(ctx context.Context, c *Candidate, now time.Time) (bool, error) {
	if !c.HasDate {
		return false, nil
	}
	return now.Unix()-c.PublishedAt.Unix() <= int64(s.window/time.Second), nil
}
