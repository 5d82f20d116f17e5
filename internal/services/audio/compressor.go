package audio

import (
	"context"

	"github.com/killallgit/vidsum/pkg/ffmpeg"
	"github.com/rs/zerolog"
)

// FFmpegCompressor re-encodes audio to a low bitrate mono mp3
type FFmpegCompressor struct {
	ffmpeg   *ffmpeg.FFmpeg
	options  ffmpeg.CompressOptions
	maxBytes int64
}

// NewFFmpegCompressor creates a compressor. maxBytes is only used to warn
// early when the re-encode cannot fit the provider cap.
func NewFFmpegCompressor(f *ffmpeg.FFmpeg, options ffmpeg.CompressOptions, maxBytes int64) *FFmpegCompressor {
	return &FFmpegCompressor{ffmpeg: f, options: options, maxBytes: maxBytes}
}

// Compress writes <base>_compressed.mp3 next to path
func (c *FFmpegCompressor) Compress(ctx context.Context, path string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if info, err := c.ffmpeg.Probe(ctx, path); err == nil {
		estimate := info.EstimatedSize(c.options.Bitrate)
		logger.Debug().
			Str("codec", info.Codec).
			Float64("duration", info.Duration).
			Int64("estimated_bytes", estimate).
			Msg("compressing audio")
		if c.maxBytes > 0 && estimate > c.maxBytes {
			logger.Warn().
				Int64("estimated_bytes", estimate).
				Int64("max_bytes", c.maxBytes).
				Msg("compressed audio is likely to exceed the transcription limit")
		}
	} else {
		logger.Debug().Err(err).Msg("ffprobe failed, compressing anyway")
	}

	opts := c.options
	opts.OutputPath = ffmpeg.CompressedPath(path)
	return c.ffmpeg.Compress(ctx, path, opts)
}
