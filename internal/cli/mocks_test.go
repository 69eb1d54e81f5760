package cli

// Notes:
// - Mocks implement the Env interfaces; none of them spawn processes or call
//   the network.
// - mockChunker writes real segment files into the directory it is given so
//   cleanup can be checked on disk.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-notetaker/internal/audio"
	"github.com/alnah/go-notetaker/internal/config"
	"github.com/alnah/go-notetaker/internal/ffmpeg"
	"github.com/alnah/go-notetaker/internal/notes"
	"github.com/alnah/go-notetaker/internal/transcribe"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	cfg *config.Config
	err error
}

func (m *mockConfigLoader) Load() (*config.Config, error) {
	if m.err != nil {
		return nil, m.err
	}
	c := *m.cfg
	return &c, nil
}

// testConfig returns a config with an API key and quiet logging.
func testConfig() *config.Config {
	return &config.Config{
		FFprobePath:     "ffprobe",
		FFmpegPath:      "ffmpeg",
		OpenAIAPIKey:    "sk-test",
		TranscribeModel: "gpt-4o-mini-transcribe",
		NotesProvider:   "openai",
		NotesTemplate:   "class",
		UploadDir:       "uploads",
		HTTPAddr:        "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		MaxUploadMB:     1,
		LogLevel:        "error",
		LogFormat:       "console",
	}
}

// ---------------------------------------------------------------------------
// Tools
// ---------------------------------------------------------------------------

type mockToolResolver struct {
	err          error
	versionCalls int
}

func (m *mockToolResolver) Resolve(cfg *config.Config) (ffmpeg.Tools, error) {
	if m.err != nil {
		return ffmpeg.Tools{}, m.err
	}
	return ffmpeg.Tools{Probe: cfg.FFprobePath, Segment: cfg.FFmpegPath}, nil
}

func (m *mockToolResolver) CheckVersion(context.Context, string, zerolog.Logger) {
	m.versionCalls++
}

// ---------------------------------------------------------------------------
// Chunker
// ---------------------------------------------------------------------------

type mockChunker struct {
	mu       sync.Mutex
	probe    audio.MediaProbe
	plan     audio.ChunkPlan
	segments int
	err      error

	gotMax int64
	gotDir string
}

func (m *mockChunker) PlanFile(_ context.Context, _ string, maxBytes int64) (audio.MediaProbe, audio.ChunkPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotMax = maxBytes
	if m.err != nil {
		return audio.MediaProbe{}, audio.ChunkPlan{}, m.err
	}
	return m.probe, m.plan, nil
}

func (m *mockChunker) Prepare(_ context.Context, path string, maxBytes int64, outDir string) (audio.Segmentation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotMax, m.gotDir = maxBytes, outDir
	if m.err != nil {
		return audio.Segmentation{}, m.err
	}
	if m.segments == 0 {
		return audio.Segmentation{Probe: m.probe, Plan: audio.ChunkPlan{Reason: audio.ReasonNone}}, nil
	}

	base := filepath.Base(path)
	paths := make([]string, m.segments)
	for i := range paths {
		paths[i] = filepath.Join(outDir, fmt.Sprintf("%s-segment-%03d.m4a", base, i))
		if err := os.WriteFile(paths[i], []byte("seg"), 0600); err != nil {
			return audio.Segmentation{}, err
		}
	}
	return audio.Segmentation{
		Probe: m.probe,
		Plan:  audio.ChunkPlan{Required: true, SegmentSeconds: 600, Reason: audio.ReasonSize},
		Paths: paths,
	}, nil
}

type mockChunkerFactory struct {
	chunker   *mockChunker
	gotLimits audio.Limits
}

func (f *mockChunkerFactory) NewChunker(_ ffmpeg.Tools, limits audio.Limits, _ zerolog.Logger) Chunker {
	f.gotLimits = limits
	return f.chunker
}

// ---------------------------------------------------------------------------
// OpenAI
// ---------------------------------------------------------------------------

type mockTranscriber struct {
	mu    sync.Mutex
	fn    func(path string) (string, error)
	calls []transcribe.Options
}

func (m *mockTranscriber) Transcribe(_ context.Context, path string, opts transcribe.Options) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.mu.Unlock()
	return m.fn(path)
}

type mockTranscriberFactory struct {
	transcriber *mockTranscriber
	gotModel    string
}

func (f *mockTranscriberFactory) NewTranscriber(_, model string, _ zerolog.Logger) transcribe.Transcriber {
	f.gotModel = model
	return f.transcriber
}

type mockSummarizer struct {
	out     string
	err     error
	gotOpts notes.Options
	calls   int
}

func (m *mockSummarizer) Summarize(_ context.Context, _ string, opts notes.Options) (string, error) {
	m.calls++
	m.gotOpts = opts
	return m.out, m.err
}

type mockSummarizerFactory struct {
	summarizer  *mockSummarizer
	gotProvider string
	gotKey      string
	gotModel    string
}

func (f *mockSummarizerFactory) NewSummarizer(provider, apiKey, model string, _ zerolog.Logger) notes.Summarizer {
	f.gotProvider, f.gotKey, f.gotModel = provider, apiKey, model
	return f.summarizer
}

// ---------------------------------------------------------------------------
// Env
// ---------------------------------------------------------------------------

// testEnv bundles an Env with handles on its mocks.
type testEnv struct {
	*Env
	stdout      *syncBuffer
	stderr      *syncBuffer
	cfg         *config.Config
	tools       *mockToolResolver
	chunker     *mockChunker
	chunkers    *mockChunkerFactory
	transcriber *mockTranscriber
	transcribes *mockTranscriberFactory
	summarizer  *mockSummarizer
	summarizers *mockSummarizerFactory
}

func newTestEnv() *testEnv {
	te := &testEnv{
		stdout:  &syncBuffer{},
		stderr:  &syncBuffer{},
		cfg:     testConfig(),
		tools:   &mockToolResolver{},
		chunker: &mockChunker{probe: audio.MediaProbe{DurationSeconds: 120, SizeBytes: 1 << 20}},
		transcriber: &mockTranscriber{fn: func(path string) (string, error) {
			return "text of " + filepath.Base(path), nil
		}},
		summarizer: &mockSummarizer{out: "# Notes"},
	}
	te.chunkers = &mockChunkerFactory{chunker: te.chunker}
	te.transcribes = &mockTranscriberFactory{transcriber: te.transcriber}
	te.summarizers = &mockSummarizerFactory{summarizer: te.summarizer}
	te.Env = NewEnv(
		WithStdout(te.stdout),
		WithStderr(te.stderr),
		WithNow(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
		WithGetenv(func(string) string { return "" }),
		WithConfigLoader(&mockConfigLoader{cfg: te.cfg}),
		WithToolResolver(te.tools),
		WithChunkerFactory(te.chunkers),
		WithTranscriberFactory(te.transcribes),
		WithSummarizerFactory(te.summarizers),
	)
	return te
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of the
// dispatcher's logger.
type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// writeAudio creates a placeholder input file in dir.
func writeAudio(dir, name string) string {
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("audio"), 0600); err != nil {
		panic(err)
	}
	return p
}
