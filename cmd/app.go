package cmd

import (
	"fmt"
	"net/http"

	"github.com/killallgit/vidsum/internal/database"
	"github.com/killallgit/vidsum/internal/services/ai"
	"github.com/killallgit/vidsum/internal/services/audio"
	"github.com/killallgit/vidsum/internal/services/cache"
	"github.com/killallgit/vidsum/internal/services/cleanup"
	"github.com/killallgit/vidsum/internal/services/dedup"
	"github.com/killallgit/vidsum/internal/services/extraction"
	"github.com/killallgit/vidsum/internal/services/monitor"
	"github.com/killallgit/vidsum/internal/services/notion"
	"github.com/killallgit/vidsum/internal/services/platforms"
	"github.com/killallgit/vidsum/internal/services/processor"
	"github.com/killallgit/vidsum/internal/services/publish"
	"github.com/killallgit/vidsum/internal/services/videos"
	"github.com/killallgit/vidsum/pkg/config"
	"github.com/killallgit/vidsum/pkg/download"
	"github.com/killallgit/vidsum/pkg/ffmpeg"
	"github.com/killallgit/vidsum/pkg/ytdlp"
)

// application holds every service built from one configuration
type application struct {
	cfg        *config.Config
	db         *database.DB
	videos     videos.Service
	notion     *notion.Client
	youtube    *platforms.YouTube
	bilibili   *platforms.Bilibili
	ytdlp      *ytdlp.Client
	processor  *processor.Processor
	reconciler *publish.Reconciler
	scheduler  *monitor.Scheduler
	cleanup    *cleanup.Service
	remoteHits *cache.MemoryCache
}

// newApplication opens the local store and wires the pipeline
func newApplication(cfg *config.Config) (*application, error) {
	db, err := database.Open(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	app := &application{
		cfg:    cfg,
		db:     db,
		videos: videos.NewService(videos.NewRepository(db.DB)),
		notion: notion.NewClient(notion.Config{
			APIKey:            cfg.Notion.APIKey,
			DatabaseID:        cfg.Notion.DatabaseID,
			BaseURL:           cfg.Notion.BaseURL,
			Version:           cfg.Notion.Version,
			RequestsPerSecond: cfg.Notion.RequestsPerSecond,
			BlockTextLimit:    cfg.Notion.BlockTextLimit,
			Timeout:           cfg.Timeouts.Remote,
		}),
		youtube: platforms.NewYouTube(platforms.YouTubeConfig{
			BaseURL:   cfg.YouTube.WatchBaseURL,
			Languages: cfg.YouTube.CaptionLanguages,
			UserAgent: cfg.Downloads.UserAgent,
			Timeout:   cfg.Timeouts.Caption,
		}),
		bilibili: platforms.NewBilibili(platforms.BilibiliConfig{
			APIBaseURL: cfg.Bilibili.APIBaseURL,
			SESSDATA:   cfg.Bilibili.SESSDATA,
			BiliJCT:    cfg.Bilibili.BiliJCT,
			Buvid3:     cfg.Bilibili.Buvid3,
			UserAgent:  cfg.Downloads.UserAgent,
			Timeout:    cfg.Timeouts.Caption,
		}),
		ytdlp: ytdlp.New(ytdlp.Options{
			Path:        cfg.Downloads.YtDlpPath,
			CookiesFile: cfg.Downloads.CookiesFile,
			UserAgent:   cfg.Downloads.UserAgent,
		}),
		cleanup:    cleanup.NewService(cfg.Storage.AudioCacheDir, cfg.Storage.MaxTempAge),
		remoteHits: cache.NewMemoryCache(cfg.Dedup.CacheEntries),
	}

	registry := platforms.NewRegistry(app.youtube, app.bilibili)
	aiConfig := ai.Config{
		APIKey:             cfg.OpenAI.APIKey,
		BaseURL:            cfg.OpenAI.BaseURL,
		SummaryModel:       cfg.OpenAI.SummaryModel,
		TranscriptionModel: cfg.OpenAI.TranscriptionModel,
	}

	app.processor = processor.New(
		processor.Config{
			SummarizeTimeout: cfg.Timeouts.Summarize,
			DescribeTimeout:  cfg.Timeouts.Caption,
		},
		registry,
		dedup.NewGate(dedup.NewCachedRemote(app.notion, app.remoteHits, cfg.Dedup.CacheTTL), app.videos, cfg.Timeouts.Remote),
		extraction.NewCoordinator(app.audioPipeline(aiConfig), cfg.Timeouts.Caption),
		ai.NewSummarizer(aiConfig),
		publish.NewCoordinator(publish.Config{
			OutputDir:     cfg.Storage.OutputDir,
			RemoteTimeout: cfg.Timeouts.Remote,
		}, app.notion, app.videos),
	)

	app.reconciler = publish.NewReconciler(app.notion, app.videos, cfg.Timeouts.Remote)

	app.scheduler = monitor.NewScheduler(
		monitor.Config{
			PageSize:        cfg.Monitor.PageSize,
			ListingTimeout:  cfg.Timeouts.Listing,
			MetadataTimeout: cfg.Timeouts.Metadata,
		},
		app.videos,
		app.processor,
		monitor.NewBilibiliSource(app.bilibili, cfg.Monitor.BilibiliUIDs, cfg.Monitor.Window),
		monitor.NewYouTubeSource(app.ytdlp, app.youtube, cfg.Monitor.YouTubeChannels, cfg.Downloads.UserAgent),
	)

	return app, nil
}

func (a *application) audioPipeline(aiConfig ai.Config) *audio.Pipeline {
	cfg := a.cfg

	streamOpts := download.DefaultOptions()
	streamOpts.MaxSize = cfg.Downloads.MaxSize
	streamOpts.Timeout = cfg.Timeouts.Download
	streamOpts.UserAgent = cfg.Downloads.UserAgent

	downloader := audio.NewFallbackDownloader(
		audio.NewYtDlpDownloader(a.ytdlp),
		audio.NewStreamDownloader(streamOpts,
			audio.NewYouTubeStreamResolver(&http.Client{Timeout: cfg.Timeouts.Caption}, cfg.Downloads.UserAgent),
			audio.NewBilibiliStreamResolver(a.bilibili),
		),
		cfg.Timeouts.Download,
	)

	compressOpts := ffmpeg.DefaultCompressOptions()
	if cfg.Processing.CompressBitrate != "" {
		compressOpts.Bitrate = cfg.Processing.CompressBitrate
	}
	if cfg.Processing.CompressChannels > 0 {
		compressOpts.Channels = cfg.Processing.CompressChannels
	}
	compressor := audio.NewFFmpegCompressor(
		ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Timeouts.Compress),
		compressOpts,
		cfg.Processing.ProviderMaxBytes,
	)

	return audio.NewPipeline(audio.PipelineConfig{
		WorkDir:           cfg.Storage.AudioCacheDir,
		ProviderMaxBytes:  cfg.Processing.ProviderMaxBytes,
		CompressThreshold: cfg.Processing.CompressThreshold,
		CompressTimeout:   cfg.Timeouts.Compress,
		TranscribeTimeout: cfg.Timeouts.Transcribe,
	}, downloader, compressor, ai.NewTranscriber(aiConfig))
}

// Close releases the database and stops background work
func (a *application) Close() error {
	a.remoteHits.Stop()
	return a.db.Close()
}
