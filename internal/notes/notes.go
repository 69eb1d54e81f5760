// Package notes turns transcripts into Markdown notes with a chat model.
package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-notetaker/internal/apierr"
	"github.com/alnah/go-notetaker/internal/lang"
	"github.com/alnah/go-notetaker/internal/template"
)

// Default configuration values.
const (
	DefaultModel = "gpt-5-nano"

	defaultMaxInputTokens = 100000

	// Token estimation: ~3.5 chars/token for Romance languages, 3 errs on the safe side.
	charsPerToken = 3

	// Fewer retries than transcription: each attempt is slower.
	defaultMaxRetries = 3
)

// Options configures a notes request.
type Options struct {
	// Template selects the instructions. Zero value uses the class template.
	Template template.Name

	// Language sets the output language. Zero value keeps the instructions'
	// language (English) unless the transcript clearly uses another.
	Language lang.Language
}

// Summarizer generates notes from a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, opts Options) (string, error)
}

// chatCompleter is the subset of *openai.Client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Summarizer    = (*OpenAISummarizer)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// OpenAISummarizer generates notes with the OpenAI chat completion API.
type OpenAISummarizer struct {
	client         chatCompleter
	model          string
	maxInputTokens int
	retry          apierr.RetryConfig
	log            zerolog.Logger
}

// Option configures an OpenAISummarizer.
type Option func(*OpenAISummarizer)

// WithModel sets the chat model. An empty value keeps the default.
func WithModel(model string) Option {
	return func(s *OpenAISummarizer) {
		if model != "" {
			s.model = model
		}
	}
}

// WithMaxInputTokens sets the estimated input token limit.
func WithMaxInputTokens(n int) Option {
	return func(s *OpenAISummarizer) {
		if n > 0 {
			s.maxInputTokens = n
		}
	}
}

// WithRetryConfig sets the retry parameters.
func WithRetryConfig(cfg apierr.RetryConfig) Option {
	return func(s *OpenAISummarizer) { s.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *OpenAISummarizer) { s.log = l }
}

// NewOpenAISummarizer creates an OpenAISummarizer backed by client.
func NewOpenAISummarizer(client *openai.Client, opts ...Option) *OpenAISummarizer {
	return newOpenAISummarizer(client, opts...)
}

func newOpenAISummarizer(client chatCompleter, opts ...Option) *OpenAISummarizer {
	retry := apierr.DefaultRetryConfig()
	retry.MaxRetries = defaultMaxRetries
	s := &OpenAISummarizer{
		client:         client,
		model:          DefaultModel,
		maxInputTokens: defaultMaxInputTokens,
		retry:          retry,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize returns Markdown notes for transcript.
//
// Errors:
//   - ErrEmptyTranscript if transcript is blank
//   - ErrTranscriptTooLong if the estimated token count exceeds the limit
//   - apierr sentinels for backend failures (transient ones are retried)
//   - apierr.ErrEmptyResponse if the model returns no content
func (s *OpenAISummarizer) Summarize(ctx context.Context, transcript string, opts Options) (string, error) {
	start := time.Now()
	out, err := s.SummarizeWithInstructions(ctx, transcript, instructions(opts))
	if err != nil {
		return "", err
	}

	s.log.Info().
		Str("model", s.model).
		Str("template", opts.Template.String()).
		Dur("elapsed", time.Since(start)).
		Msg("notes generated")
	return out, nil
}

// SummarizeWithInstructions sends content with a caller-provided system prompt.
// It applies the same token limit and retries as Summarize.
func (s *OpenAISummarizer) SummarizeWithInstructions(ctx context.Context, content, prompt string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyTranscript
	}
	if est := estimateTokens(content); est > s.maxInputTokens {
		return "", fmt.Errorf("%w (%dK tokens estimated, max %dK)",
			ErrTranscriptTooLong, est/1000, s.maxInputTokens/1000)
	}
	return s.complete(ctx, prompt, content)
}

// MaxInputTokens returns the estimated input token limit.
func (s *OpenAISummarizer) MaxInputTokens() int {
	return s.maxInputTokens
}

func (s *OpenAISummarizer) complete(ctx context.Context, system, content string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	}

	cfg := s.retry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		s.log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying notes generation")
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", apierr.Classify(err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", fmt.Errorf("%w: no choices from %s", apierr.ErrEmptyResponse, s.model)
		}
		return resp.Choices[0].Message.Content, nil
	}, apierr.IsRetryable)
}

// instructions builds the system prompt for opts.
// English output skips the language line since prompts are written in English.
func instructions(opts Options) string {
	prompt := opts.Template.Prompt()
	if !opts.Language.IsZero() && !opts.Language.IsEnglish() {
		prompt = fmt.Sprintf("Respond in %s.\n\n%s", opts.Language.DisplayName(), prompt)
	}
	return prompt
}

func estimateTokens(text string) int {
	return len(text) / charsPerToken
}
