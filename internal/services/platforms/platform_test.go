package platforms

import (
	"errors"
	"testing"

	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	yt := NewYouTube(YouTubeConfig{})
	bili := NewBilibili(BilibiliConfig{})
	registry := NewRegistry(yt, bili)

	tests := []struct {
		name    string
		url     string
		want    Platform
		wantErr bool
	}{
		{name: "youtube watch", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: yt},
		{name: "youtube short link", url: "https://youtu.be/dQw4w9WgXcQ", want: yt},
		{name: "bilibili", url: "https://www.bilibili.com/video/BV1xx411c7mD", want: bili},
		{name: "unsupported", url: "https://vimeo.com/12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Resolve(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedURL))
				assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestYouTube_VideoID(t *testing.T) {
	yt := NewYouTube(YouTubeConfig{})

	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=30s", want: "dQw4w9WgXcQ"},
		{url: "https://youtube.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{url: "https://www.youtube.com/v/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{url: "https://www.youtube.com/shorts/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{url: "https://m.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{url: "https://www.youtube.com/@channel/videos", wantErr: true},
		{url: "https://www.youtube.com/watch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := yt.VideoID(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidVideoID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBilibili_VideoID(t *testing.T) {
	bili := NewBilibili(BilibiliConfig{})

	id, err := bili.VideoID("https://www.bilibili.com/video/BV1xx411c7mD/?spm_id_from=333")
	require.NoError(t, err)
	assert.Equal(t, "BV1xx411c7mD", id)

	_, err = bili.VideoID("https://www.bilibili.com/video/av170001")
	assert.ErrorIs(t, err, ErrInvalidVideoID)
}

func TestPickBestTrack(t *testing.T) {
	manualEN := captionTrack{BaseURL: "u1", LanguageCode: "en"}
	asrEN := captionTrack{BaseURL: "u2", LanguageCode: "en", Kind: "asr"}
	enGB := captionTrack{BaseURL: "u3", LanguageCode: "en-GB"}
	zh := captionTrack{BaseURL: "u4", LanguageCode: "zh-Hans"}
	poToken := captionTrack{BaseURL: "u5&exp=xpe", LanguageCode: "en"}

	tests := []struct {
		name   string
		tracks []captionTrack
		want   captionTrack
		ok     bool
	}{
		{name: "manual preferred over asr", tracks: []captionTrack{asrEN, manualEN}, want: manualEN, ok: true},
		{name: "asr in preferred language", tracks: []captionTrack{zh, asrEN}, want: asrEN, ok: true},
		{name: "any english", tracks: []captionTrack{zh, enGB}, want: enGB, ok: true},
		{name: "first track", tracks: []captionTrack{zh}, want: zh, ok: true},
		{name: "po token only", tracks: []captionTrack{poToken}, ok: false},
		{name: "none", tracks: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickBestTrack(tt.tracks, []string{"en"})
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePageMetadata(t *testing.T) {
	html := `<html><head>
<title>fallback - YouTube</title>
<meta property="og:title" content="Market Outlook">
<meta itemprop="datePublished" content="2026-10-18T08:00:00-07:00">
</head><body>
<span itemprop="author" itemscope itemtype="http://schema.org/Person">
  <link itemprop="url" href="http://www.youtube.com/@savvy">
  <link itemprop="name" content="Savvy Capitalist">
</span>
</body></html>`

	meta, err := parsePageMetadata([]byte(html))
	require.NoError(t, err)
	assert.Equal(t, "Market Outlook", meta.Title)
	assert.Equal(t, "Savvy Capitalist", meta.Uploader)
	assert.Equal(t, 2026, meta.PublishedAt.Year())
}
