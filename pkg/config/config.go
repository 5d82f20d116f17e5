package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	once    sync.Once
	initErr error
)

// envBindings maps config keys to the bare environment variable names the
// deployment already uses. VIDSUM_* overrides work for every key as well.
var envBindings = map[string]string{
	"openai.api_key":        "OPENAI_API_KEY",
	"notion.api_key":        "NOTION_API_KEY",
	"notion.database_id":    "NOTION_DATABASE_ID",
	"bilibili.sessdata":     "BILIBILI_SESSDATA",
	"bilibili.bili_jct":     "BILIBILI_JCT",
	"bilibili.buvid3":       "BILIBILI_BUVID3",
	"downloads.cookies_txt": "COOKIES_TXT",
}

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		setDefaults()

		viper.SetEnvPrefix("VIDSUM")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		for key, env := range envBindings {
			// BindEnv only errors when no key is given
			_ = viper.BindEnv(key, "VIDSUM_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
		}

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// AllSettings returns every effective setting with secrets redacted
func AllSettings() map[string]any {
	settings := viper.AllSettings()
	for key := range envBindings {
		parts := strings.SplitN(key, ".", 2)
		section, ok := settings[parts[0]].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := section[parts[1]].(string); ok && v != "" {
			section[parts[1]] = "<redacted>"
		}
	}
	return settings
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if viper.GetString("database.path") == "" {
		return fmt.Errorf("database.path is required")
	}

	if viper.GetInt64("processing.compress_threshold") > viper.GetInt64("processing.provider_max_bytes") {
		return fmt.Errorf("processing.compress_threshold must not exceed processing.provider_max_bytes")
	}

	if viper.GetInt("notion.block_text_limit") <= 0 {
		viper.Set("notion.block_text_limit", 2000)
	}

	if viper.GetInt("monitor.page_size") <= 0 {
		viper.Set("monitor.page_size", 10)
	}

	// Missing credentials are not fatal here; the operation that needs them fails
	if viper.GetString("openai.api_key") == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; summarization and transcription will fail")
	}
	if viper.GetString("notion.api_key") == "" || viper.GetString("notion.database_id") == "" {
		log.Warn().Msg("Notion credentials are not set; remote records are disabled")
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Processing.CompressThreshold > c.Processing.ProviderMaxBytes {
		return fmt.Errorf("compress threshold %d exceeds provider limit %d",
			c.Processing.CompressThreshold, c.Processing.ProviderMaxBytes)
	}

	if c.Notion.BlockTextLimit <= 0 {
		c.Notion.BlockTextLimit = 2000
	}

	if c.Monitor.PageSize <= 0 {
		c.Monitor.PageSize = 10
	}

	return nil
}

// NotionConfigured reports whether both remote store credentials are present
func (c *Config) NotionConfigured() bool {
	return c.Notion.APIKey != "" && c.Notion.DatabaseID != ""
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Minute)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)

	// Database defaults
	viper.SetDefault("database.path", "./processed_videos.db")
	viper.SetDefault("database.verbose", false)

	// OpenAI defaults
	viper.SetDefault("openai.base_url", "")
	viper.SetDefault("openai.summary_model", "gpt-4o")
	viper.SetDefault("openai.transcription_model", "whisper-1")

	// Notion defaults
	viper.SetDefault("notion.base_url", "https://api.notion.com/v1")
	viper.SetDefault("notion.version", "2022-06-28")
	viper.SetDefault("notion.requests_per_second", 3.0)
	viper.SetDefault("notion.block_text_limit", 2000)

	// Platform defaults
	viper.SetDefault("bilibili.api_base_url", "https://api.bilibili.com")
	viper.SetDefault("youtube.watch_base_url", "https://www.youtube.com")
	viper.SetDefault("youtube.caption_languages", []string{"en"})

	// Download defaults
	viper.SetDefault("downloads.ytdlp_path", "yt-dlp")
	viper.SetDefault("downloads.cookies_file", "cookies.txt")
	viper.SetDefault("downloads.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	viper.SetDefault("downloads.max_size", 2*1024*1024*1024)

	// Processing defaults
	viper.SetDefault("processing.ffmpeg_path", "ffmpeg")
	viper.SetDefault("processing.ffprobe_path", "ffprobe")
	viper.SetDefault("processing.provider_max_bytes", 25*1024*1024)
	viper.SetDefault("processing.compress_threshold", 24*1024*1024)
	viper.SetDefault("processing.compress_bitrate", "32k")
	viper.SetDefault("processing.compress_channels", 1)

	// Storage defaults
	viper.SetDefault("storage.output_dir", "output")
	viper.SetDefault("storage.audio_cache_dir", "audio_cache")
	viper.SetDefault("storage.max_temp_age", 6*time.Hour)

	// Monitor defaults
	viper.SetDefault("monitor.bilibili_uids", []int64{1515375273})
	viper.SetDefault("monitor.youtube_channels", []string{"https://www.youtube.com/@SavvyCapitalist%E8%81%AA%E6%98%8E%E5%B0%8F%E8%B5%84/videos"})
	viper.SetDefault("monitor.page_size", 10)
	viper.SetDefault("monitor.window", 24*time.Hour)
	viper.SetDefault("monitor.interval", 0)

	// Dedup defaults
	viper.SetDefault("dedup.cache_ttl", 24*time.Hour)
	viper.SetDefault("dedup.cache_entries", 10000)

	// Timeout defaults
	viper.SetDefault("timeouts.caption", 1*time.Minute)
	viper.SetDefault("timeouts.download", 15*time.Minute)
	viper.SetDefault("timeouts.compress", 10*time.Minute)
	viper.SetDefault("timeouts.transcribe", 10*time.Minute)
	viper.SetDefault("timeouts.summarize", 5*time.Minute)
	viper.SetDefault("timeouts.remote", 30*time.Second)
	viper.SetDefault("timeouts.listing", 2*time.Minute)
	viper.SetDefault("timeouts.metadata", 1*time.Minute)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.json", false)
}
