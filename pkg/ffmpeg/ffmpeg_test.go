package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	f := New("ffmpeg", "ffprobe", 30*time.Second)
	assert.Equal(t, "ffmpeg", f.ffmpegPath)
	assert.Equal(t, "ffprobe", f.ffprobePath)
	assert.Equal(t, 30*time.Second, f.timeout)
}

func TestCompressedPath(t *testing.T) {
	assert.Equal(t, "/tmp/run/abc123_compressed.mp3", CompressedPath("/tmp/run/abc123.webm"))
	assert.Equal(t, "/tmp/run/abc123_compressed.mp3", CompressedPath("/tmp/run/abc123.mp3"))
	assert.Equal(t, "audio_compressed.mp3", CompressedPath("audio"))
}

func TestCompressArgs(t *testing.T) {
	opts := DefaultCompressOptions()
	opts.OutputPath = "out.mp3"

	args := compressArgs("in.m4a", opts)

	assert.Equal(t, []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", "in.m4a",
		"-map", "0:a:0",
		"-b:a", "32k",
		"-ac", "1",
		"out.mp3",
	}, args)
}

func TestParseProbe(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "612.5", "bit_rate": "128000", "format_name": "mov,mp4,m4a"},
		"streams": [{"codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 2}]
	}`)

	info, err := parseProbe(raw, "a.m4a")
	require.NoError(t, err)
	assert.InDelta(t, 612.5, info.Duration, 0.001)
	assert.Equal(t, 128000, info.Bitrate)
	assert.Equal(t, "aac", info.Codec)
	assert.Equal(t, 2, info.Channels)
}

func TestParseProbe_StreamDurationFallback(t *testing.T) {
	raw := []byte(`{"format": {}, "streams": [{"codec_name": "opus", "channels": 1, "duration": "90.0"}]}`)

	info, err := parseProbe(raw, "a.webm")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, info.Duration, 0.001)
}

func TestParseProbe_NoAudioStream(t *testing.T) {
	raw := []byte(`{"format": {"duration": "1.0"}, "streams": []}`)

	_, err := parseProbe(raw, "video.mp4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAudioFile))

	var procErr *ProcessingError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "probe", procErr.Operation)
}

func TestAudioInfo_EstimatedSize(t *testing.T) {
	info := &AudioInfo{Duration: 3600}

	tests := []struct {
		bitrate string
		want    int64
	}{
		{"32k", 14_400_000},
		{"64K", 28_800_000},
		{"1m", 450_000_000},
		{"48000", 21_600_000},
		{"fast", 0},
	}
	for _, tt := range tests {
		t.Run(tt.bitrate, func(t *testing.T) {
			assert.Equal(t, tt.want, info.EstimatedSize(tt.bitrate))
		})
	}

	assert.Zero(t, (&AudioInfo{}).EstimatedSize("32k"))
}

func TestProcessingError_TruncatesStderr(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	err := NewProcessingError("compression", "a.mp3", errors.New("exit status 1"), string(long))
	assert.Len(t, err.Stderr, 2048)
	assert.Contains(t, err.Error(), "ffmpeg compression failed for a.mp3")
}

func TestValidateBinaries_Missing(t *testing.T) {
	f := New("definitely-not-ffmpeg-binary", "ffprobe", time.Second)
	err := f.ValidateBinaries()
	assert.True(t, errors.Is(err, ErrFFmpegNotFound))
}

func TestCompress_MissingBinaryLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "abc.m4a")
	require.NoError(t, os.WriteFile(input, []byte("not really audio"), 0644))

	f := New(filepath.Join(dir, "no-ffmpeg"), "ffprobe", 5*time.Second)
	_, err := f.Compress(context.Background(), input, DefaultCompressOptions())
	require.Error(t, err)
	assert.NoFileExists(t, CompressedPath(input))
}

// Integration test - only runs if ffmpeg is available
func TestCompressWithRealAudio(t *testing.T) {
	f := New("ffmpeg", "ffprobe", 30*time.Second)
	if err := f.ValidateBinaries(); err != nil {
		t.Skipf("FFmpeg binaries not available: %v", err)
	}

	dir := t.TempDir()
	input := filepath.Join(dir, "tone.wav")
	gen := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=3", "-ac", "2", input)
	if err := gen.Run(); err != nil {
		t.Skipf("could not synthesize test tone: %v", err)
	}

	out, err := f.Compress(context.Background(), input, DefaultCompressOptions())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tone_compressed.mp3"), out)

	info, err := f.Probe(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Channels)
	assert.InDelta(t, 3.0, info.Duration, 0.2)
}
