package ffmpeg

// AudioInfo is what ffprobe reports about the first audio stream
type AudioInfo struct {
	Duration float64 // seconds
	Bitrate  int     // container bitrate, bits per second
	Codec    string
	Channels int
}

// EstimatedSize predicts the byte size of the audio re-encoded at bitrate
// (ffmpeg notation, e.g. "32k"). Zero means unknown.
func (a *AudioInfo) EstimatedSize(bitrate string) int64 {
	bps := parseBitrate(bitrate)
	if bps == 0 || a.Duration <= 0 {
		return 0
	}
	return int64(a.Duration * float64(bps) / 8)
}

// CompressOptions controls the re-encode used to shrink audio
type CompressOptions struct {
	Bitrate    string // Target audio bitrate, e.g. "32k"
	Channels   int    // Output channel count
	OutputPath string // Destination; defaults to <input>_compressed.mp3
}

// DefaultCompressOptions returns mono 32 kbit/s output
func DefaultCompressOptions() CompressOptions {
	return CompressOptions{
		Bitrate:  "32k",
		Channels: 1,
	}
}
