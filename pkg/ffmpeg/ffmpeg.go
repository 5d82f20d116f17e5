package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}

	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}

	return nil
}

// CompressedPath returns the default output path for a compressed derivative
func CompressedPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_compressed.mp3"
}

// Compress re-encodes the first audio stream of input into a smaller mp3 and
// returns the output path. A partial output is removed on failure.
func (f *FFmpeg) Compress(ctx context.Context, input string, options CompressOptions) (string, error) {
	if options.OutputPath == "" {
		options.OutputPath = CompressedPath(input)
	}
	if options.Bitrate == "" {
		options.Bitrate = "32k"
	}
	if options.Channels <= 0 {
		options.Channels = 1
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, compressArgs(input, options)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(options.OutputPath)
		return "", NewProcessingError("compression", input, err, stderr.String())
	}

	info, err := os.Stat(options.OutputPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(options.OutputPath)
		return "", NewProcessingError("compression", input, ErrEmptyOutput, stderr.String())
	}

	return options.OutputPath, nil
}

// compressArgs builds: -y -i in -map 0:a:0 -b:a 32k -ac 1 out
func compressArgs(input string, options CompressOptions) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-map", "0:a:0",
		"-b:a", options.Bitrate,
		"-ac", strconv.Itoa(options.Channels),
		options.OutputPath,
	}
}
