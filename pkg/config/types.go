package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	OpenAI      OpenAIConfig     `mapstructure:"openai"`
	Notion      NotionConfig     `mapstructure:"notion"`
	Bilibili    BilibiliConfig   `mapstructure:"bilibili"`
	YouTube     YouTubeConfig    `mapstructure:"youtube"`
	Downloads   DownloadsConfig  `mapstructure:"downloads"`
	Processing  ProcessingConfig `mapstructure:"processing"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Monitor     MonitorConfig    `mapstructure:"monitor"`
	Dedup       DedupConfig      `mapstructure:"dedup"`
	Timeouts    TimeoutsConfig   `mapstructure:"timeouts"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains local record store settings
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// OpenAIConfig contains settings for the summarization and transcription provider
type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	SummaryModel       string `mapstructure:"summary_model"`
	TranscriptionModel string `mapstructure:"transcription_model"`
}

// NotionConfig contains remote record store settings
type NotionConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	DatabaseID        string  `mapstructure:"database_id"`
	BaseURL           string  `mapstructure:"base_url"`
	Version           string  `mapstructure:"version"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BlockTextLimit    int     `mapstructure:"block_text_limit"`
}

// BilibiliConfig contains Bilibili API settings and optional session credentials
type BilibiliConfig struct {
	APIBaseURL string `mapstructure:"api_base_url"`
	SESSDATA   string `mapstructure:"sessdata"`
	BiliJCT    string `mapstructure:"bili_jct"`
	Buvid3     string `mapstructure:"buvid3"`
}

// YouTubeConfig contains YouTube page settings
type YouTubeConfig struct {
	WatchBaseURL    string   `mapstructure:"watch_base_url"`
	CaptionLanguages []string `mapstructure:"caption_languages"`
}

// DownloadsConfig contains audio download settings
type DownloadsConfig struct {
	YtDlpPath   string `mapstructure:"ytdlp_path"`
	CookiesFile string `mapstructure:"cookies_file"`
	CookiesTxt  string `mapstructure:"cookies_txt"`
	UserAgent   string `mapstructure:"user_agent"`
	MaxSize     int64  `mapstructure:"max_size"`
}

// ProcessingConfig contains audio processing settings
type ProcessingConfig struct {
	FFmpegPath        string `mapstructure:"ffmpeg_path"`
	FFprobePath       string `mapstructure:"ffprobe_path"`
	ProviderMaxBytes  int64  `mapstructure:"provider_max_bytes"`
	CompressThreshold int64  `mapstructure:"compress_threshold"`
	CompressBitrate   string `mapstructure:"compress_bitrate"`
	CompressChannels  int    `mapstructure:"compress_channels"`
}

// StorageConfig contains filesystem settings
type StorageConfig struct {
	OutputDir     string        `mapstructure:"output_dir"`
	AudioCacheDir string        `mapstructure:"audio_cache_dir"`
	MaxTempAge    time.Duration `mapstructure:"max_temp_age"`
}

// MonitorConfig contains channel polling settings
type MonitorConfig struct {
	BilibiliUIDs    []int64       `mapstructure:"bilibili_uids"`
	YouTubeChannels []string      `mapstructure:"youtube_channels"`
	PageSize        int           `mapstructure:"page_size"`
	Window          time.Duration `mapstructure:"window"`
	Interval        time.Duration `mapstructure:"interval"`
}

// TimeoutsConfig bounds each external call
type TimeoutsConfig struct {
	Caption    time.Duration `mapstructure:"caption"`
	Download   time.Duration `mapstructure:"download"`
	Compress   time.Duration `mapstructure:"compress"`
	Transcribe time.Duration `mapstructure:"transcribe"`
	Summarize  time.Duration `mapstructure:"summarize"`
	Remote     time.Duration `mapstructure:"remote"`
	Listing    time.Duration `mapstructure:"listing"`
	Metadata   time.Duration `mapstructure:"metadata"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// DedupConfig controls the in-process cache of remote duplicate hits
type DedupConfig struct {
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CacheEntries int           `mapstructure:"cache_entries"`
}
