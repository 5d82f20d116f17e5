package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/killallgit/vidsum/internal/models"
	"github.com/killallgit/vidsum/pkg/transcript"
	"github.com/rs/zerolog"
)

// playerResponseMarker precedes the player JSON embedded in watch pages
const playerResponseMarker = "ytInitialPlayerResponse = "

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)

// YouTubeConfig holds configuration for the YouTube platform
type YouTubeConfig struct {
	BaseURL   string   // Default: https://www.youtube.com
	Languages []string // Caption language preference. Default: [en]
	UserAgent string
	Timeout   time.Duration
}

// YouTube fetches captions by scraping the watch page caption tracks
type YouTube struct {
	config  YouTubeConfig
	client  *http.Client
	fetcher *transcript.Fetcher
	parser  *transcript.Parser
}

// NewYouTube creates the YouTube platform
func NewYouTube(cfg YouTubeConfig) *YouTube {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.youtube.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	fetchOpts := transcript.DefaultFetchOptions()
	fetchOpts.UserAgent = cfg.UserAgent
	if cfg.Timeout > 0 {
		fetchOpts.Timeout = cfg.Timeout
	}

	return &YouTube{
		config:  cfg,
		client:  newHTTPClient(cfg.Timeout),
		fetcher: transcript.NewFetcher(fetchOpts),
		parser:  transcript.NewParser(),
	}
}

// Name returns the platform tag
func (y *YouTube) Name() models.Platform {
	return models.PlatformYouTube
}

// Matches reports whether rawURL is a YouTube URL
func (y *YouTube) Matches(rawURL string) bool {
	return strings.Contains(rawURL, "youtube.com") || strings.Contains(rawURL, "youtu.be")
}

// VideoID extracts the id from youtu.be, watch, embed, v and shorts URLs
func (y *YouTube) VideoID(rawURL string) (string, error) {
	id := youtubeVideoID(rawURL)
	if id == "" || !youtubeIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %s", ErrInvalidVideoID, rawURL)
	}
	return id, nil
}

func youtubeVideoID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	if host == "youtu.be" {
		return segments[0]
	}

	if u.Path == "/watch" {
		return u.Query().Get("v")
	}
	if len(segments) >= 2 {
		switch segments[0] {
		case "embed", "v", "shorts", "live":
			return segments[1]
		}
	}
	return ""
}

// WatchURL returns the canonical watch URL for a video id
func (y *YouTube) WatchURL(videoID string) string {
	return y.config.BaseURL + "/watch?v=" + url.QueryEscape(videoID)
}

// captionTrack is one entry of playerCaptionsTracklistRenderer.captionTracks
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
		Author  string `json:"author"`
	} `json:"videoDetails"`
}

// Captions returns the text of the preferred caption track
func (y *YouTube) Captions(ctx context.Context, rawURL string) (string, error) {
	id, err := y.VideoID(rawURL)
	if err != nil {
		return "", err
	}

	player, err := y.playerResponse(ctx, id)
	if err != nil {
		return "", err
	}

	if player.Captions == nil {
		return "", fmt.Errorf("%w: no caption tracks for %s", ErrNoCaptions, id)
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	track, ok := pickBestTrack(tracks, y.config.Languages)
	if !ok {
		return "", fmt.Errorf("%w: no usable caption tracks for %s", ErrNoCaptions, id)
	}

	zerolog.Ctx(ctx).Debug().
		Str("video_id", id).
		Str("language", track.LanguageCode).
		Str("kind", track.Kind).
		Msg("fetching caption track")

	result, err := y.fetcher.Fetch(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("fetch caption track: %w", err)
	}

	parsed, err := y.parser.Parse(result.Content, transcript.FormatTimedText)
	if err != nil {
		return "", fmt.Errorf("parse caption track: %w", err)
	}

	text := parsed.ToPlainText()
	if text == "" {
		return "", fmt.Errorf("%w: caption track for %s is empty", ErrNoCaptions, id)
	}
	return text, nil
}

// Describe reads title and uploader from the watch page
func (y *YouTube) Describe(ctx context.Context, rawURL string) (*VideoInfo, error) {
	id, err := y.VideoID(rawURL)
	if err != nil {
		return nil, err
	}

	body, err := fetchPage(ctx, y.client, y.WatchURL(id), map[string]string{"User-Agent": y.config.UserAgent})
	if err != nil {
		return nil, err
	}

	meta, err := parsePageMetadata(body)
	if err != nil {
		return nil, err
	}

	info := &VideoInfo{
		ID:          id,
		Title:       meta.Title,
		Uploader:    meta.Uploader,
		URL:         y.WatchURL(id),
		Platform:    models.PlatformYouTube,
		PublishedAt: meta.PublishedAt,
	}

	// The player JSON is a better source when meta tags are stripped
	if info.Title == "" || info.Uploader == "" {
		if player, err := decodePlayerResponse(body); err == nil && player.VideoDetails != nil {
			if info.Title == "" {
				info.Title = player.VideoDetails.Title
			}
			if info.Uploader == "" {
				info.Uploader = player.VideoDetails.Author
			}
		}
	}

	return info, nil
}

func (y *YouTube) playerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	body, err := fetchPage(ctx, y.client, y.WatchURL(videoID), map[string]string{"User-Agent": y.config.UserAgent})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	return decodePlayerResponse(body)
}

// decodePlayerResponse decodes the JSON value that follows the marker
func decodePlayerResponse(body []byte) (*playerResponse, error) {
	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, fmt.Errorf("%w: player response not found in watch page", ErrNoCaptions)
	}

	var player playerResponse
	dec := json.NewDecoder(bytes.NewReader(body[idx+len(playerResponseMarker):]))
	if err := dec.Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return &player, nil
}

// needsPoToken reports whether a track URL only works inside a browser
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack prefers a manual track in a preferred language, then an
// auto-generated one, then any English track, then the first usable track
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}

	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}
