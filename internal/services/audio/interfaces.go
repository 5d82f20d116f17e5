// Package audio implements the audio fallback used when a video has no
// captions: download, shrink to the provider size limit, transcribe, clean up.
package audio

import (
	"context"

	apperrors "github.com/killallgit/vidsum/pkg/errors"
)

var (
	// ErrDownloadFailed is returned when every downloader failed
	ErrDownloadFailed = apperrors.New(apperrors.ErrCodeExternalService, "audio download failed")

	// ErrEmptyTranscript is returned when the provider returned no text
	ErrEmptyTranscript = apperrors.New(apperrors.ErrCodeExtractionFailed, "transcription returned no text")
)

// Artifact is an audio file produced during one pipeline run
type Artifact struct {
	Path      string
	SizeBytes int64
}

// Downloader fetches the audio track of a video into dir and returns the file path
type Downloader interface {
	Download(ctx context.Context, url, dir string) (string, error)
}

// Compressor produces a smaller mono derivative of an audio file
type Compressor interface {
	Compress(ctx context.Context, path string) (string, error)
}

// Transcriber turns an audio file into text
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}
