package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/killallgit/vidsum/pkg/download"
	"github.com/rs/zerolog"
)

const (
	// DefaultProviderMaxBytes is the transcription provider's upload cap
	DefaultProviderMaxBytes int64 = 25 * 1024 * 1024

	// DefaultCompressThreshold is the size above which audio is compressed
	DefaultCompressThreshold int64 = 24 * 1024 * 1024
)

// PipelineConfig holds configuration for the audio fallback pipeline
type PipelineConfig struct {
	WorkDir           string // Parent of the per-run directories
	ProviderMaxBytes  int64
	CompressThreshold int64
	CompressTimeout   time.Duration
	TranscribeTimeout time.Duration
}

// Pipeline runs download, size gate, compression, transcription and cleanup
type Pipeline struct {
	config      PipelineConfig
	downloader  Downloader
	compressor  Compressor
	transcriber Transcriber
}

// NewPipeline creates a new audio fallback pipeline
func NewPipeline(cfg PipelineConfig, downloader Downloader, compressor Compressor, transcriber Transcriber) *Pipeline {
	if cfg.WorkDir == "" {
		cfg.WorkDir = filepath.Join(os.TempDir(), "vidsum")
	}
	if cfg.ProviderMaxBytes <= 0 {
		cfg.ProviderMaxBytes = DefaultProviderMaxBytes
	}
	if cfg.CompressThreshold <= 0 {
		cfg.CompressThreshold = DefaultCompressThreshold
	}

	return &Pipeline{
		config:      cfg,
		downloader:  downloader,
		compressor:  compressor,
		transcriber: transcriber,
	}
}

// Run downloads the audio of url and returns its transcript. Every file the
// run creates is removed before Run returns, whatever the outcome.
func (p *Pipeline) Run(ctx context.Context, url string) (string, error) {
	logger := zerolog.Ctx(ctx).With().Str("url", url).Logger()

	runDir := filepath.Join(p.config.WorkDir, "run_"+uuid.NewString())
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}

	var artifacts []string
	defer func() {
		for _, path := range artifacts {
			if err := download.CleanupTempFile(path); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("failed to remove audio artifact")
			}
		}
		if err := os.RemoveAll(runDir); err != nil {
			logger.Warn().Err(err).Str("dir", runDir).Msg("failed to remove run directory")
		}
	}()

	original, err := p.download(ctx, url, runDir)
	if err != nil {
		return "", err
	}
	artifacts = append(artifacts, original.Path)

	logger.Info().
		Str("path", original.Path).
		Float64("size_mb", megabytes(original.SizeBytes)).
		Msg("audio downloaded")

	chosen := original
	if original.SizeBytes > p.config.CompressThreshold {
		compressed, err := p.compress(ctx, original.Path)
		if compressed != nil {
			artifacts = append(artifacts, compressed.Path)
		}
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("compression failed, transcribing original audio")
		default:
			chosen = *compressed
			logger.Info().
				Float64("size_mb", megabytes(compressed.SizeBytes)).
				Msg("audio compressed")
			if compressed.SizeBytes > p.config.CompressThreshold {
				logger.Warn().
					Int64("size", compressed.SizeBytes).
					Int64("threshold", p.config.CompressThreshold).
					Msg("compressed audio still exceeds threshold, transcription may be rejected")
			}
		}
	}

	if chosen.SizeBytes > p.config.ProviderMaxBytes {
		logger.Warn().
			Int64("size", chosen.SizeBytes).
			Int64("limit", p.config.ProviderMaxBytes).
			Msg("audio exceeds provider upload limit")
	}

	text, err := p.transcribe(ctx, chosen.Path)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (p *Pipeline) download(ctx context.Context, url, runDir string) (Artifact, error) {
	path, err := p.downloader.Download(ctx, url, runDir)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	if path == "" {
		return Artifact{}, fmt.Errorf("%w: downloader returned no file", ErrDownloadFailed)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Artifact{Path: path}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	return Artifact{Path: path, SizeBytes: info.Size()}, nil
}

// compress returns the derivative; it may be non-nil alongside an error so
// the caller can still remove it
func (p *Pipeline) compress(ctx context.Context, path string) (*Artifact, error) {
	if p.compressor == nil {
		return nil, fmt.Errorf("no compressor configured")
	}
	if p.config.CompressTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.CompressTimeout)
		defer cancel()
	}

	out, err := p.compressor.Compress(ctx, path)
	if err != nil {
		if out != "" {
			return &Artifact{Path: out}, err
		}
		return nil, err
	}

	info, err := os.Stat(out)
	if err != nil {
		return &Artifact{Path: out}, fmt.Errorf("stat compressed audio: %w", err)
	}
	return &Artifact{Path: out, SizeBytes: info.Size()}, nil
}

func (p *Pipeline) transcribe(ctx context.Context, path string) (string, error) {
	if p.config.TranscribeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TranscribeTimeout)
		defer cancel()
	}

	text, err := p.transcriber.Transcribe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
