package ai

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// Transcriber sends audio files to the Whisper transcription endpoint
type Transcriber struct {
	client *openai.Client
	config Config
}

// NewTranscriber creates a new transcriber
func NewTranscriber(cfg Config) *Transcriber {
	cfg.applyDefaults()
	return &Transcriber{client: newOpenAIClient(cfg), config: cfg}
}

// Transcribe uploads the file at path and returns the transcript text
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if t.config.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	if info, err := os.Stat(path); err == nil {
		zerolog.Ctx(ctx).Info().
			Str("model", t.config.TranscriptionModel).
			Float64("size_mb", float64(info.Size())/(1024*1024)).
			Msg("submitting audio for transcription")
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.config.TranscriptionModel,
		FilePath: path,
	})
	if err != nil {
		return "", wrapAPIError("transcription", err)
	}
	return resp.Text, nil
}
