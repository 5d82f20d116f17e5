package ai

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a specialized financial analyst assistant. Your goal is to extract stock market information, ticker symbols, and financial analysis from video transcripts. You must output your summary in Chinese."

const userPromptTemplate = `Please summarize the following transcript in Chinese. 

Focus on:
1. Key stock tickers mentioned.
2. Market sentiment (Bullish/Bearish).
3. Key financial data or events.
4. Actionable investment advice implications.

Transcript:
%s`

// Summarizer produces Chinese financial summaries with a chat model
type Summarizer struct {
	client *openai.Client
	config Config
}

// NewSummarizer creates a new summarizer
func NewSummarizer(cfg Config) *Summarizer {
	cfg.applyDefaults()
	return &Summarizer{client: newOpenAIClient(cfg), config: cfg}
}

// Summarize returns the model's summary of transcript
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if s.config.APIKey == "" {
		return "", ErrMissingAPIKey
	}
	if strings.TrimSpace(transcript) == "" {
		return "", apperrors.ValidationError("transcript", "must not be empty")
	}

	zerolog.Ctx(ctx).Info().
		Str("model", s.config.SummaryModel).
		Int("transcript_chars", len([]rune(transcript))).
		Msg("requesting summary")

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.config.SummaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPromptTemplate, transcript)},
		},
	})
	if err != nil {
		return "", wrapAPIError("summarization", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.ExternalServiceError("openai", fmt.Errorf("summarization returned no choices"))
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", apperrors.ExternalServiceError("openai", fmt.Errorf("summarization returned empty content"))
	}
	return summary, nil
}
