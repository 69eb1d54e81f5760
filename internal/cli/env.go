package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-notetaker/internal/audio"
	"github.com/alnah/go-notetaker/internal/config"
	"github.com/alnah/go-notetaker/internal/ffmpeg"
	"github.com/alnah/go-notetaker/internal/notes"
	"github.com/alnah/go-notetaker/internal/pipeline"
	"github.com/alnah/go-notetaker/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O, clock and environment
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
	Getenv func(string) string

	// Factories for domain objects
	ConfigLoader       ConfigLoader
	ToolResolver       ToolResolver
	ChunkerFactory     ChunkerFactory
	TranscriberFactory TranscriberFactory
	SummarizerFactory  SummarizerFactory
}

// ConfigLoader loads the process configuration.
type ConfigLoader interface {
	Load() (*config.Config, error)
}

// ToolResolver locates ffprobe and ffmpeg.
type ToolResolver interface {
	Resolve(cfg *config.Config) (ffmpeg.Tools, error)
	CheckVersion(ctx context.Context, ffmpegPath string, log zerolog.Logger)
}

// Chunker probes, plans and segments audio files.
type Chunker interface {
	pipeline.Preparer
	PlanFile(ctx context.Context, path string, maxBytes int64) (audio.MediaProbe, audio.ChunkPlan, error)
}

var _ Chunker = (*audio.Chunker)(nil)

// ChunkerFactory creates chunkers over resolved tools.
type ChunkerFactory interface {
	NewChunker(tools ffmpeg.Tools, limits audio.Limits, log zerolog.Logger) Chunker
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey, model string, log zerolog.Logger) transcribe.Transcriber
}

// SummarizerFactory creates note generators.
type SummarizerFactory interface {
	NewSummarizer(provider, apiKey, model string, log zerolog.Logger) notes.Summarizer
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) { e.Now = fn }
}

// WithGetenv sets the environment lookup.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithToolResolver sets the tool resolver.
func WithToolResolver(r ToolResolver) EnvOption {
	return func(e *Env) { e.ToolResolver = r }
}

// WithChunkerFactory sets the chunker factory.
func WithChunkerFactory(f ChunkerFactory) EnvOption {
	return func(e *Env) { e.ChunkerFactory = f }
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) { e.TranscriberFactory = f }
}

// WithSummarizerFactory sets the summarizer factory.
func WithSummarizerFactory(f SummarizerFactory) EnvOption {
	return func(e *Env) { e.SummarizerFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Now:                time.Now,
		Getenv:             os.Getenv,
		ConfigLoader:       &defaultConfigLoader{},
		ToolResolver:       &defaultToolResolver{},
		ChunkerFactory:     &defaultChunkerFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
		SummarizerFactory:  &defaultSummarizerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultConfigLoader struct {
	overrides *config.Overrides
}

// NewConfigLoader returns a loader that applies o on every Load, so flag
// values parsed after construction are honored. A nil o applies nothing.
func NewConfigLoader(o *config.Overrides) ConfigLoader {
	return &defaultConfigLoader{overrides: o}
}

func (l *defaultConfigLoader) Load() (*config.Config, error) {
	if l.overrides == nil {
		return config.Load(config.Overrides{})
	}
	return config.Load(*l.overrides)
}

type defaultToolResolver struct{}

func (defaultToolResolver) Resolve(cfg *config.Config) (ffmpeg.Tools, error) {
	return ffmpeg.NewResolver(
		ffmpeg.WithProbeCommand(cfg.FFprobePath),
		ffmpeg.WithSegmentCommand(cfg.FFmpegPath),
	).Resolve()
}

func (defaultToolResolver) CheckVersion(ctx context.Context, ffmpegPath string, log zerolog.Logger) {
	ffmpeg.NewVersionChecker(ffmpeg.WithVersionLogger(log)).Check(ctx, ffmpegPath)
}

type defaultChunkerFactory struct{}

func (defaultChunkerFactory) NewChunker(tools ffmpeg.Tools, limits audio.Limits, log zerolog.Logger) Chunker {
	return audio.NewChunker(
		audio.NewProber(tools.Probe),
		audio.NewSegmenter(tools.Segment),
		limits,
		audio.WithLogger(log),
	)
}

type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey, model string, log zerolog.Logger) transcribe.Transcriber {
	return transcribe.NewOpenAITranscriber(openai.NewClient(apiKey),
		transcribe.WithModel(model),
		transcribe.WithLogger(log),
	)
}

type defaultSummarizerFactory struct{}

func (defaultSummarizerFactory) NewSummarizer(provider, apiKey, model string, log zerolog.Logger) notes.Summarizer {
	if model == "" {
		model = notes.DefaultModelFor(provider)
	}
	s := notes.NewOpenAISummarizer(notes.NewClient(provider, apiKey),
		notes.WithModel(model),
		notes.WithLogger(log),
	)
	return notes.NewMapReduceSummarizer(s, notes.WithMapReduceLogger(log))
}
