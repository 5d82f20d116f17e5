package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/killallgit/vidsum/internal/database"
	"github.com/killallgit/vidsum/internal/models"
	"github.com/killallgit/vidsum/internal/services/audio"
	"github.com/killallgit/vidsum/internal/services/dedup"
	"github.com/killallgit/vidsum/internal/services/extraction"
	"github.com/killallgit/vidsum/internal/services/notion"
	"github.com/killallgit/vidsum/internal/services/platforms"
	"github.com/killallgit/vidsum/internal/services/publish"
	"github.com/killallgit/vidsum/internal/services/videos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testURL = "https://example.com/watch?v=abc123"

// fakePlatform recognizes example.com URLs and has no captions
type fakePlatform struct {
	captions    string
	describeErr error
}

func (f *fakePlatform) Name() models.Platform { return models.PlatformYouTube }

func (f *fakePlatform) Matches(rawURL string) bool {
	return strings.HasPrefix(rawURL, "https://example.com/")
}

func (f *fakePlatform) VideoID(rawURL string) (string, error) {
	_, id, ok := strings.Cut(rawURL, "v=")
	if !ok || id == "" {
		return "", platforms.ErrInvalidVideoID
	}
	return id, nil
}

func (f *fakePlatform) Captions(ctx context.Context, rawURL string) (string, error) {
	if f.captions == "" {
		return "", platforms.ErrNoCaptions
	}
	return f.captions, nil
}

func (f *fakePlatform) Describe(ctx context.Context, rawURL string) (*platforms.VideoInfo, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &platforms.VideoInfo{Title: "Described Title", Uploader: "Described Channel"}, nil
}

type sparseDownloader struct{ size int64 }

func (d *sparseDownloader) Download(ctx context.Context, url, dir string) (string, error) {
	path := filepath.Join(dir, "audio.m4a")
	return path, writeSparse(path, d.size)
}

type sparseCompressor struct {
	size  int64
	calls int
}

func (c *sparseCompressor) Compress(ctx context.Context, path string) (string, error) {
	c.calls++
	out := strings.TrimSuffix(path, filepath.Ext(path)) + "_compressed.mp3"
	return out, writeSparse(out, c.size)
}

func writeSparse(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Truncate(size)
}

// MockTranscriber is a mock implementation of audio.Transcriber
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

// MockSummarizer is a mock implementation of Summarizer
type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	args := m.Called(ctx, transcript)
	return args.String(0), args.Error(1)
}

// fakeRemote is an in-memory remote store keyed by URL
type fakeRemote struct {
	pages     map[string]notion.Page
	createErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{pages: map[string]notion.Page{}}
}

func (r *fakeRemote) Configured() bool { return true }

func (r *fakeRemote) FindByURL(ctx context.Context, url string) (bool, error) {
	_, ok := r.pages[url]
	return ok, nil
}

func (r *fakeRemote) CreatePage(ctx context.Context, page notion.Page) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	r.pages[page.URL] = page
	return "page-" + page.URL, nil
}

type harness struct {
	processor   *Processor
	remote      *fakeRemote
	store       videos.Service
	compressor  *sparseCompressor
	transcriber *MockTranscriber
	summarizer  *MockSummarizer
	outputDir   string
	workDir     string
}

func newHarness(t *testing.T, platform *fakePlatform) *harness {
	t.Helper()

	db, err := database.Open(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		remote:      newFakeRemote(),
		store:       videos.NewService(videos.NewRepository(db.DB)),
		compressor:  &sparseCompressor{size: 5_000_000},
		transcriber: new(MockTranscriber),
		summarizer:  new(MockSummarizer),
		outputDir:   t.TempDir(),
		workDir:     t.TempDir(),
	}

	pipeline := audio.NewPipeline(audio.PipelineConfig{WorkDir: h.workDir},
		&sparseDownloader{size: 30_000_000}, h.compressor, h.transcriber)

	h.processor = New(Config{SummarizeTimeout: time.Minute},
		platforms.NewRegistry(platform),
		dedup.NewGate(h.remote, h.store, 0),
		extraction.NewCoordinator(pipeline, 0),
		h.summarizer,
		publish.NewCoordinator(publish.Config{OutputDir: h.outputDir}, h.remote, h.store),
	)
	return h
}

func TestProcess_EndToEndAudioFallback(t *testing.T) {
	h := newHarness(t, &fakePlatform{})
	h.transcriber.On("Transcribe", mock.Anything, mock.MatchedBy(func(path string) bool {
		return strings.HasSuffix(path, "_compressed.mp3")
	})).Return("hello world", nil).Once()
	h.summarizer.On("Summarize", mock.Anything, "hello world").Return("摘要内容", nil).Once()

	ctx := context.Background()
	outcome, err := h.processor.Process(ctx, Request{URL: testURL, Title: "Title", Uploader: "Channel"})
	require.NoError(t, err)

	assert.Equal(t, StatusProcessed, outcome.Status)
	assert.Equal(t, "abc123", outcome.VideoID)
	assert.Equal(t, extraction.SourceAudio, outcome.TranscriptSource)
	assert.True(t, outcome.RemoteSynced)
	assert.Equal(t, 1, h.compressor.calls)

	today := time.Now().Format("2006-01-02")
	assert.Equal(t, filepath.Join(h.outputDir, "Channel", "Title - "+today+".md"), outcome.SummaryPath)
	data, err := os.ReadFile(outcome.SummaryPath)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "摘要内容"))

	assert.Len(t, h.remote.pages, 1)
	assert.Equal(t, "youtube", h.remote.pages[testURL].Platform)

	record, err := h.store.GetVideo(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, record.AudioDownloaded)
	assert.True(t, record.RemoteSynced)

	entries, err := os.ReadDir(h.workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	h.transcriber.AssertExpectations(t)
	h.summarizer.AssertExpectations(t)
}

func TestProcess_SecondRunIsSkipped(t *testing.T) {
	h := newHarness(t, &fakePlatform{captions: "caption text"})
	h.summarizer.On("Summarize", mock.Anything, "caption text").Return("summary", nil).Once()

	ctx := context.Background()
	first, err := h.processor.Process(ctx, Request{URL: testURL})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, first.Status)
	assert.Equal(t, extraction.SourceCaption, first.TranscriptSource)
	assert.Contains(t, first.SummaryPath, filepath.Join("Described Channel", "Described Title - "))

	second, err := h.processor.Process(ctx, Request{URL: testURL})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Equal(t, dedup.SourceRemote, second.SkippedBy)

	// remote lost the page; the local store still prevents reprocessing
	h.remote.pages = map[string]notion.Page{}
	third, err := h.processor.Process(ctx, Request{URL: testURL})
	require.NoError(t, err)
	assert.Equal(t, dedup.SourceLocal, third.SkippedBy)

	h.summarizer.AssertExpectations(t)
	h.transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}

func TestProcess_UnsupportedURL(t *testing.T) {
	h := newHarness(t, &fakePlatform{})

	outcome, err := h.processor.Process(context.Background(), Request{URL: "https://vimeo.com/1"})
	assert.Nil(t, outcome)
	assert.True(t, errors.Is(err, ErrUnsupportedURL))

	_, err = h.processor.Process(context.Background(), Request{URL: "https://example.com/watch"})
	assert.True(t, errors.Is(err, ErrUnsupportedURL))
}

func TestProcess_SummarizerFailure(t *testing.T) {
	h := newHarness(t, &fakePlatform{captions: "caption text"})
	h.summarizer.On("Summarize", mock.Anything, "caption text").Return("", errors.New("rate limited"))

	ctx := context.Background()
	outcome, err := h.processor.Process(ctx, Request{URL: testURL})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Empty(t, h.remote.pages)

	processed, err := h.store.IsProcessed(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcess_ExtractionFailure(t *testing.T) {
	h := newHarness(t, &fakePlatform{})
	h.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return("", errors.New("provider down"))

	outcome, err := h.processor.Process(context.Background(), Request{URL: testURL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, extraction.ErrExtractionFailed))
	assert.Equal(t, StatusFailed, outcome.Status)
	h.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestProcess_RemoteFailureStillProcessed(t *testing.T) {
	h := newHarness(t, &fakePlatform{captions: "caption text", describeErr: errors.New("offline")})
	h.remote.createErr = errors.New("notion down")
	h.summarizer.On("Summarize", mock.Anything, "caption text").Return("summary", nil)

	ctx := context.Background()
	outcome, err := h.processor.Process(ctx, Request{URL: testURL})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, outcome.Status)
	assert.False(t, outcome.RemoteSynced)
	assert.Contains(t, outcome.SummaryPath, filepath.Join("Unknown", "Video_abc123 - "))

	unsynced, err := h.store.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "abc123", unsynced[0].VideoID)
}

func TestSummarize_DoesNotPublish(t *testing.T) {
	h := newHarness(t, &fakePlatform{captions: "caption text"})
	h.summarizer.On("Summarize", mock.Anything, "caption text").Return("summary", nil)

	summary, err := h.processor.Summarize(context.Background(), testURL)
	require.NoError(t, err)
	assert.Equal(t, "summary", summary)
	assert.Empty(t, h.remote.pages)
}
