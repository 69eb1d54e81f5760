package transcribe

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-notetaker/internal/apierr"
	"github.com/alnah/go-notetaker/internal/lang"
)

// Transcription model identifiers.
const (
	// ModelGPT4oMiniTranscribe is the default, cost-effective transcription model.
	ModelGPT4oMiniTranscribe = "gpt-4o-mini-transcribe"

	// ModelWhisper1 is the only model that returns verbose JSON with segments.
	ModelWhisper1 = openai.Whisper1
)

// Options configures a transcription request.
type Options struct {
	// Language hints the spoken language. Zero value means auto-detect.
	Language lang.Language

	// Prompt provides context to improve accuracy (vocabulary, acronyms).
	Prompt string
}

// Transcriber transcribes audio files to text.
type Transcriber interface {
	// Transcribe converts the audio file at path to text.
	Transcribe(ctx context.Context, path string, opts Options) (string, error)
}

// Result is a transcription response reduced to the two places a backend
// may put the text.
type Result struct {
	Text     string // primary text field
	Fallback string // text reassembled from verbose segments, if any
}

// PickText returns the first non-empty field of r, or "".
// A field containing only whitespace counts as empty.
func PickText(r Result) string {
	for _, s := range []string{r.Text, r.Fallback} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// resultFromResponse maps a go-openai response onto Result.
func resultFromResponse(resp openai.AudioResponse) Result {
	parts := make([]string, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		if s := strings.TrimSpace(seg.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return Result{Text: resp.Text, Fallback: strings.Join(parts, " ")}
}

// audioTranscriber is the subset of *openai.Client used here.
// It allows injecting mocks in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio using the OpenAI transcription API.
// Transient errors (rate limits, timeouts, 5xx) are retried with
// exponential backoff.
type OpenAITranscriber struct {
	client audioTranscriber
	model  string
	retry  apierr.RetryConfig
	log    zerolog.Logger
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithModel sets the transcription model. An empty value keeps the default.
func WithModel(model string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithRetryConfig sets the retry parameters.
func WithRetryConfig(cfg apierr.RetryConfig) TranscriberOption {
	return func(t *OpenAITranscriber) { t.retry = cfg }
}

// WithLogger sets the logger used to report retries.
func WithLogger(l zerolog.Logger) TranscriberOption {
	return func(t *OpenAITranscriber) { t.log = l }
}

// NewOpenAITranscriber creates an OpenAITranscriber backed by client.
func NewOpenAITranscriber(client *openai.Client, opts ...TranscriberOption) *OpenAITranscriber {
	return newOpenAITranscriber(client, opts...)
}

func newOpenAITranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client: client,
		model:  ModelGPT4oMiniTranscribe,
		retry:  apierr.DefaultRetryConfig(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Model returns the configured model identifier.
func (t *OpenAITranscriber) Model() string {
	return t.model
}

// Transcribe sends the file at path to the API and returns its text.
// An empty transcription is not an error: silence transcribes to "".
func (t *OpenAITranscriber) Transcribe(ctx context.Context, path string, opts Options) (string, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Format:   responseFormat(t.model),
		Prompt:   opts.Prompt,
		Language: opts.Language.BaseCode(),
	}

	cfg := t.retry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		t.log.Warn().Err(err).
			Str("path", path).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("retrying transcription")
	}

	res, err := apierr.RetryWithBackoff(ctx, cfg, func() (Result, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return Result{}, apierr.Classify(err)
		}
		return resultFromResponse(resp), nil
	}, apierr.IsRetryable)
	if err != nil {
		return "", err
	}
	return PickText(res), nil
}

// responseFormat selects verbose JSON where the model supports it so the
// segment text is available as a fallback.
func responseFormat(model string) openai.AudioResponseFormat {
	if model == ModelWhisper1 {
		return openai.AudioResponseFormatVerboseJSON
	}
	return openai.AudioResponseFormatJSON
}
