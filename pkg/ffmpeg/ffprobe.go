package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Bitrate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecName string `json:"codec_name"`
		Channels  int    `json:"channels"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Probe reads the duration and first audio stream of a media file
func (f *FFmpeg) Probe(ctx context.Context, path string) (*AudioInfo, error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "quiet",
		"-show_format",
		"-show_streams",
		"-select_streams", "a:0",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, NewProcessingError("probe", path, err, stderr.String())
	}

	return parseProbe(stdout.Bytes(), path)
}

func parseProbe(raw []byte, path string) (*AudioInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, NewProcessingError("probe", path, err, "")
	}
	if len(out.Streams) == 0 {
		return nil, NewProcessingError("probe", path,
			fmt.Errorf("%w: no audio stream", ErrInvalidAudioFile), "")
	}

	stream := out.Streams[0]
	info := &AudioInfo{
		Codec:    stream.CodecName,
		Channels: stream.Channels,
		Duration: parseSeconds(out.Format.Duration),
	}
	if info.Duration == 0 {
		info.Duration = parseSeconds(stream.Duration)
	}
	if bitrate, err := strconv.Atoi(out.Format.Bitrate); err == nil {
		info.Bitrate = bitrate
	}
	return info, nil
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseBitrate converts an ffmpeg bitrate such as "32k" to bits per second
func parseBitrate(s string) int {
	s = strings.TrimSpace(strings.ToLower(s))
	multiplier := 1
	switch {
	case strings.HasSuffix(s, "k"):
		multiplier, s = 1000, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		multiplier, s = 1000*1000, strings.TrimSuffix(s, "m")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v * multiplier
}
