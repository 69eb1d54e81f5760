package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/alnah/go-notetaker/internal/config"
	"github.com/alnah/go-notetaker/internal/logging"
	"github.com/alnah/go-notetaker/internal/metrics"
	"github.com/alnah/go-notetaker/internal/notes"
	"github.com/alnah/go-notetaker/internal/pipeline"
	"github.com/alnah/go-notetaker/internal/tempfile"
	"github.com/alnah/go-notetaker/internal/transcribe"
)

// loadConfig loads the configuration and builds the logger it describes.
func loadConfig(env *Env) (*config.Config, zerolog.Logger, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(env.Stderr, cfg.LogLevel, cfg.LogFormat), nil
}

// requireAPIKey fails fast when no OpenAI key is configured.
func requireAPIKey(cfg *config.Config) error {
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("%w (set it with: export OPENAI_API_KEY=sk-...)", transcribe.ErrAPIKeyMissing)
	}
	return nil
}

// pipelineSetup gathers what buildPipeline needs beyond the config.
type pipelineSetup struct {
	tempDir     string
	maxParallel int
	keep        bool
	notes       bool
	metrics     *metrics.Metrics
}

// buildPipeline resolves the tools once and wires every component.
func buildPipeline(ctx context.Context, env *Env, cfg *config.Config, log zerolog.Logger, s pipelineSetup) (*pipeline.Pipeline, error) {
	if err := requireAPIKey(cfg); err != nil {
		return nil, err
	}

	tools, err := env.ToolResolver.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	env.ToolResolver.CheckVersion(ctx, tools.Segment, logging.Component(log, "ffmpeg"))

	chunker := env.ChunkerFactory.NewChunker(tools, cfg.Limits(), logging.Component(log, "audio"))
	tr := env.TranscriberFactory.NewTranscriber(cfg.OpenAIAPIKey, cfg.TranscribeModel, logging.Component(log, "transcribe"))
	dispatcher := transcribe.NewDispatcher(tr,
		transcribe.WithMaxParallel(s.maxParallel),
		transcribe.WithDispatcherLogger(logging.Component(log, "dispatch")),
		transcribe.WithMetrics(s.metrics),
	)

	tempDir := s.tempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "go-notetaker")
	}
	temp := tempfile.NewManager(tempDir, tempfile.WithLogger(logging.Component(log, "tempfile")))

	opts := []pipeline.Option{
		pipeline.WithKeepSegments(s.keep),
		pipeline.WithLogger(logging.Component(log, "pipeline")),
		pipeline.WithMetrics(s.metrics),
	}
	if s.notes {
		sum, err := newSummarizer(env, cfg, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithSummarizer(sum))
	}
	return pipeline.New(temp, chunker, dispatcher, opts...), nil
}

// newSummarizer builds the notes generator for the configured provider.
func newSummarizer(env *Env, cfg *config.Config, log zerolog.Logger) (notes.Summarizer, error) {
	provider, err := notes.ParseProvider(cfg.NotesProvider)
	if err != nil {
		return nil, err
	}

	apiKey := cfg.OpenAIAPIKey
	if provider == notes.ProviderDeepSeek {
		if cfg.DeepSeekAPIKey == "" {
			return nil, fmt.Errorf("%w (set it with: export DEEPSEEK_API_KEY=sk-...)", ErrDeepSeekKeyMissing)
		}
		apiKey = cfg.DeepSeekAPIKey
	}
	return env.SummarizerFactory.NewSummarizer(provider, apiKey, cfg.NotesModel, logging.Component(log, "notes")), nil
}
