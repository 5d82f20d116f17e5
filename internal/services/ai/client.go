// Package ai wraps the OpenAI transcription and chat APIs used to turn audio
// into text and transcripts into summaries.
package ai

import (
	"errors"
	"net/http"
	"time"

	apperrors "github.com/killallgit/vidsum/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when no OpenAI API key is configured
var ErrMissingAPIKey = apperrors.ConfigRequired("openai.api_key")

// Config holds configuration for the OpenAI clients
type Config struct {
	APIKey             string
	BaseURL            string        // Default: https://api.openai.com/v1
	SummaryModel       string        // Default: gpt-4o
	TranscriptionModel string        // Default: whisper-1
	Timeout            time.Duration // HTTP timeout. Default: 10m
}

func (c *Config) applyDefaults() {
	if c.SummaryModel == "" {
		c.SummaryModel = "gpt-4o"
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = openai.Whisper1
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Minute
	}
}

func newOpenAIClient(cfg Config) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return openai.NewClientWithConfig(clientConfig)
}

// wrapAPIError classifies OpenAI errors as external service failures. An
// upload rejected for size keeps its own code.
func wrapAPIError(operation string, err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusRequestEntityTooLarge {
		return apperrors.Wrap(err, apperrors.ErrCodeSizeLimit, "audio exceeds the provider upload limit").
			WithDetail("operation", operation)
	}

	wrapped := apperrors.ExternalServiceError("openai", err).WithDetail("operation", operation)
	if status != 0 {
		wrapped = wrapped.WithDetail("status", status)
	}
	return wrapped
}
