package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/killallgit/vidsum/internal/models"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/killallgit/vidsum/pkg/transcript"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var bvidPattern = regexp.MustCompile(`BV\w+`)

// BilibiliConfig holds configuration for the Bilibili platform
type BilibiliConfig struct {
	APIBaseURL        string // Default: https://api.bilibili.com
	WebBaseURL        string // Default: https://www.bilibili.com
	SESSDATA          string
	BiliJCT           string
	Buvid3            string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64 // Default: 2
}

// Bilibili talks to the public Bilibili web APIs
type Bilibili struct {
	config      BilibiliConfig
	client      *http.Client
	rateLimiter *rate.Limiter
	fetcher     *transcript.Fetcher
	parser      *transcript.Parser
	wbi         *wbiSigner
}

// NewBilibili creates the Bilibili platform
func NewBilibili(cfg BilibiliConfig) *Bilibili {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.bilibili.com"
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.WebBaseURL == "" {
		cfg.WebBaseURL = "https://www.bilibili.com"
	}
	cfg.WebBaseURL = strings.TrimRight(cfg.WebBaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}

	b := &Bilibili{
		config:      cfg,
		client:      newHTTPClient(cfg.Timeout),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		parser:      transcript.NewParser(),
	}

	fetchOpts := transcript.DefaultFetchOptions()
	fetchOpts.UserAgent = cfg.UserAgent
	if cfg.Timeout > 0 {
		fetchOpts.Timeout = cfg.Timeout
	}
	fetchOpts.Headers = map[string]string{"Referer": cfg.WebBaseURL + "/"}
	b.fetcher = transcript.NewFetcher(fetchOpts)
	b.wbi = newWBISigner(b.navKeys)

	return b
}

// Name returns the platform tag
func (b *Bilibili) Name() models.Platform {
	return models.PlatformBilibili
}

// Matches reports whether rawURL is a Bilibili video URL
func (b *Bilibili) Matches(rawURL string) bool {
	return strings.Contains(rawURL, "bilibili.com")
}

// VideoID extracts the BV id from rawURL
func (b *Bilibili) VideoID(rawURL string) (string, error) {
	id := bvidPattern.FindString(rawURL)
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidVideoID, rawURL)
	}
	return id, nil
}

// VideoURL returns the canonical page URL for a BV id
func (b *Bilibili) VideoURL(bvid string) string {
	return b.config.WebBaseURL + "/video/" + bvid
}

// Headers returns the request headers media hosts expect for a video
func (b *Bilibili) Headers(bvid string) map[string]string {
	headers := map[string]string{
		"User-Agent": b.config.UserAgent,
		"Referer":    b.VideoURL(bvid) + "/",
	}
	if cookie := b.cookieHeader(); cookie != "" {
		headers["Cookie"] = cookie
	}
	return headers
}

func (b *Bilibili) cookieHeader() string {
	var parts []string
	if b.config.SESSDATA != "" {
		parts = append(parts, "SESSDATA="+b.config.SESSDATA)
	}
	if b.config.BiliJCT != "" {
		parts = append(parts, "bili_jct="+b.config.BiliJCT)
	}
	if b.config.Buvid3 != "" {
		parts = append(parts, "buvid3="+b.config.Buvid3)
	}
	return strings.Join(parts, "; ")
}

// apiResponse is the envelope of every Bilibili web API response
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ViewInfo is the subset of /x/web-interface/view used here
type ViewInfo struct {
	BVID    string `json:"bvid"`
	CID     int64  `json:"cid"`
	Title   string `json:"title"`
	PubDate int64  `json:"pubdate"`
	Owner   struct {
		MID  int64  `json:"mid"`
		Name string `json:"name"`
	} `json:"owner"`
}

// View fetches the video metadata, including the cid of its first part
func (b *Bilibili) View(ctx context.Context, bvid string) (*ViewInfo, error) {
	var view ViewInfo
	params := url.Values{"bvid": {bvid}}
	if err := b.get(ctx, "/x/web-interface/view", params, bvid, &view); err != nil {
		return nil, fmt.Errorf("view %s: %w", bvid, err)
	}
	if view.CID == 0 {
		return nil, apperrors.ExternalServiceError("bilibili", fmt.Errorf("view %s: missing cid", bvid))
	}
	return &view, nil
}

type playerInfo struct {
	Subtitle struct {
		Subtitles []struct {
			Lan         string `json:"lan"`
			SubtitleURL string `json:"subtitle_url"`
			URL         string `json:"url"`
		} `json:"subtitles"`
	} `json:"subtitle"`
}

// Captions returns the text of the first subtitle track of the video
func (b *Bilibili) Captions(ctx context.Context, rawURL string) (string, error) {
	bvid, err := b.VideoID(rawURL)
	if err != nil {
		return "", err
	}

	view, err := b.View(ctx, bvid)
	if err != nil {
		return "", err
	}

	var player playerInfo
	params := url.Values{"bvid": {bvid}, "cid": {fmt.Sprint(view.CID)}}
	if err := b.get(ctx, "/x/player/v2", params, bvid, &player); err != nil {
		return "", fmt.Errorf("player info %s: %w", bvid, err)
	}

	var subtitleURL string
	for _, sub := range player.Subtitle.Subtitles {
		subtitleURL = sub.SubtitleURL
		if subtitleURL == "" {
			subtitleURL = sub.URL
		}
		if subtitleURL != "" {
			zerolog.Ctx(ctx).Debug().Str("bvid", bvid).Str("language", sub.Lan).Msg("fetching subtitle")
			break
		}
	}
	if subtitleURL == "" {
		return "", fmt.Errorf("%w: no subtitles for %s", ErrNoCaptions, bvid)
	}

	result, err := b.fetcher.Fetch(ctx, subtitleURL)
	if err != nil {
		return "", fmt.Errorf("fetch subtitle: %w", err)
	}

	parsed, err := b.parser.Parse(result.Content, transcript.FormatBilibili)
	if err != nil {
		return "", fmt.Errorf("parse subtitle: %w", err)
	}

	text := parsed.ToPlainText()
	if text == "" {
		return "", fmt.Errorf("%w: subtitle for %s is empty", ErrNoCaptions, bvid)
	}
	return text, nil
}

// Describe returns title, uploader and publish time from the view API
func (b *Bilibili) Describe(ctx context.Context, rawURL string) (*VideoInfo, error) {
	bvid, err := b.VideoID(rawURL)
	if err != nil {
		return nil, err
	}

	info := &VideoInfo{
		ID:       bvid,
		URL:      b.VideoURL(bvid),
		Platform: models.PlatformBilibili,
	}

	view, err := b.View(ctx, bvid)
	if err == nil {
		info.Title = view.Title
		info.Uploader = view.Owner.Name
		if view.PubDate > 0 {
			info.PublishedAt = time.Unix(view.PubDate, 0)
		}
		return info, nil
	}

	// Fall back to the page meta tags when the API refuses the request
	zerolog.Ctx(ctx).Warn().Err(err).Str("bvid", bvid).Msg("view API failed, reading page metadata")
	body, pageErr := fetchPage(ctx, b.client, info.URL, b.Headers(bvid))
	if pageErr != nil {
		return nil, err
	}
	meta, pageErr := parsePageMetadata(body)
	if pageErr != nil {
		return nil, err
	}
	info.Title = strings.TrimSuffix(meta.Title, "_哔哩哔哩_bilibili")
	info.Uploader = meta.Uploader
	info.PublishedAt = meta.PublishedAt
	return info, nil
}

type playURLInfo struct {
	Dash *struct {
		Audio []struct {
			ID        int      `json:"id"`
			BaseURL   string   `json:"baseUrl"`
			BaseURL2  string   `json:"base_url"`
			BackupURL []string `json:"backupUrl"`
			Bandwidth int      `json:"bandwidth"`
		} `json:"audio"`
	} `json:"dash"`
	DURL []struct {
		URL string `json:"url"`
	} `json:"durl"`
}

// AudioStreamURL resolves a direct URL of the best audio stream. The URL
// must be fetched with Headers(bvid).
func (b *Bilibili) AudioStreamURL(ctx context.Context, bvid string) (string, error) {
	view, err := b.View(ctx, bvid)
	if err != nil {
		return "", err
	}

	var play playURLInfo
	params := url.Values{
		"bvid":  {bvid},
		"cid":   {fmt.Sprint(view.CID)},
		"fnval": {"16"},
		"fourk": {"0"},
	}
	if err := b.get(ctx, "/x/player/playurl", params, bvid, &play); err != nil {
		return "", fmt.Errorf("playurl %s: %w", bvid, err)
	}

	if play.Dash != nil && len(play.Dash.Audio) > 0 {
		streams := play.Dash.Audio
		sort.SliceStable(streams, func(i, j int) bool {
			return streams[i].Bandwidth > streams[j].Bandwidth
		})
		best := streams[0]
		switch {
		case best.BaseURL != "":
			return best.BaseURL, nil
		case best.BaseURL2 != "":
			return best.BaseURL2, nil
		case len(best.BackupURL) > 0:
			return best.BackupURL[0], nil
		}
	}
	if len(play.DURL) > 0 && play.DURL[0].URL != "" {
		return play.DURL[0].URL, nil
	}

	return "", apperrors.ExternalServiceError("bilibili", fmt.Errorf("playurl %s: no audio stream", bvid))
}

// Upload is one entry of an uploader's video list
type Upload struct {
	BVID    string `json:"bvid"`
	Title   string `json:"title"`
	Created int64  `json:"created"`
	Author  string `json:"author"`
	MID     int64  `json:"mid"`
}

type arcSearch struct {
	List struct {
		VList []Upload `json:"vlist"`
	} `json:"list"`
}

// ListUploads returns the newest uploads of a user, newest first
func (b *Bilibili) ListUploads(ctx context.Context, mid int64, pageSize int) ([]Upload, error) {
	if pageSize <= 0 {
		pageSize = 10
	}

	params := url.Values{
		"mid":   {fmt.Sprint(mid)},
		"ps":    {fmt.Sprint(pageSize)},
		"pn":    {"1"},
		"order": {"pubdate"},
	}
	signed, err := b.wbi.Sign(ctx, params, time.Now())
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	var result arcSearch
	if err := b.get(ctx, "/x/space/wbi/arc/search", signed, "", &result); err != nil {
		return nil, fmt.Errorf("list uploads of %d: %w", mid, err)
	}
	return result.List.VList, nil
}

type navInfo struct {
	WbiImg struct {
		ImgURL string `json:"img_url"`
		SubURL string `json:"sub_url"`
	} `json:"wbi_img"`
}

// navKeys fetches the current WBI key pair. The nav endpoint answers with a
// non-zero code for anonymous sessions but still carries the keys.
func (b *Bilibili) navKeys(ctx context.Context) (string, string, error) {
	resp, err := b.do(ctx, "/x/web-interface/nav", nil, "")
	if err != nil {
		return "", "", err
	}

	var nav navInfo
	if err := json.Unmarshal(resp.Data, &nav); err != nil {
		return "", "", fmt.Errorf("decode nav: %w", err)
	}
	img, sub := keyFromURL(nav.WbiImg.ImgURL), keyFromURL(nav.WbiImg.SubURL)
	if img == "" || sub == "" {
		return "", "", apperrors.ExternalServiceError("bilibili", fmt.Errorf("nav response carries no wbi keys"))
	}
	return img, sub, nil
}

// get performs a GET against the API and decodes data into out
func (b *Bilibili) get(ctx context.Context, path string, params url.Values, bvid string, out any) error {
	resp, err := b.do(ctx, path, params, bvid)
	if err != nil {
		return err
	}
	if resp.Code != 0 {
		return apperrors.ExternalServiceError("bilibili", fmt.Errorf("code %d: %s", resp.Code, resp.Message)).
			WithDetail("code", resp.Code)
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (b *Bilibili) do(ctx context.Context, path string, params url.Values, bvid string) (*apiResponse, error) {
	if err := b.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := b.config.APIBaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	referer := b.config.WebBaseURL + "/"
	if bvid != "" {
		referer = b.VideoURL(bvid) + "/"
	}
	req.Header.Set("User-Agent", b.config.UserAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "application/json")
	if cookie := b.cookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, apperrors.ExternalServiceError("bilibili", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ExternalServiceError("bilibili", fmt.Errorf("status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, apperrors.ExternalServiceError("bilibili", err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.ExternalServiceError("bilibili", fmt.Errorf("decode response: %w", err))
	}
	return &envelope, nil
}
