// Package pipeline turns one audio input into a transcript and, optionally,
// Markdown notes: scope the input file, split it when it exceeds the request
// limits, transcribe, clean up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-notetaker/internal/audio"
	"github.com/alnah/go-notetaker/internal/lang"
	"github.com/alnah/go-notetaker/internal/metrics"
	"github.com/alnah/go-notetaker/internal/notes"
	"github.com/alnah/go-notetaker/internal/tempfile"
	"github.com/alnah/go-notetaker/internal/template"
	"github.com/alnah/go-notetaker/internal/transcribe"
)

// Preparer probes, plans and segments an input. Implemented by *audio.Chunker.
type Preparer interface {
	Prepare(ctx context.Context, path string, maxBytes int64, outDir string) (audio.Segmentation, error)
}

var _ Preparer = (*audio.Chunker)(nil)

// Request is one unit of work.
type Request struct {
	Input    tempfile.Input
	MaxBytes int64 // <= 0 uses the configured budget
	Language lang.Language
	Notes    bool
	Template template.Name
}

// Result is the outcome of a run.
type Result struct {
	Transcript     string
	Notes          string
	Segments       int // 0 when the input was sent whole
	FailedSegments int
	Plan           audio.ChunkPlan
}

// Pipeline composes the temp file manager, the chunker, the dispatcher and
// the summarizer. It is safe for concurrent use.
type Pipeline struct {
	temp         *tempfile.Manager
	chunker      Preparer
	dispatcher   *transcribe.Dispatcher
	summarizer   notes.Summarizer
	keepSegments bool
	log          zerolog.Logger
	metrics      *metrics.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSummarizer enables notes generation.
func WithSummarizer(s notes.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithKeepSegments leaves segment files on disk after a run.
func WithKeepSegments(keep bool) Option {
	return func(p *Pipeline) { p.keepSegments = keep }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics sets the metrics sink. Nil disables recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a Pipeline.
func New(temp *tempfile.Manager, chunker Preparer, dispatcher *transcribe.Dispatcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		temp:       temp,
		chunker:    chunker,
		dispatcher: dispatcher,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes req. The input's temp file, if any, and the segment files
// are removed before Run returns, whatever the outcome.
//
// Failed segments do not fail the run: they are counted in
// Result.FailedSegments and leave an empty line in the transcript.
// Cancelling ctx does fail it.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	res, err := p.run(ctx, req)
	p.metrics.ObserveRun(err)
	return res, err
}

func (p *Pipeline) run(ctx context.Context, req Request) (Result, error) {
	if req.Notes && p.summarizer == nil {
		return Result{}, ErrNotesUnavailable
	}

	h, err := p.temp.Acquire(req.Input)
	if err != nil {
		return Result{}, err
	}
	defer h.Release()

	segDir, err := p.segmentDir()
	if err != nil {
		return Result{}, err
	}

	seg, err := p.chunker.Prepare(ctx, h.Path(), req.MaxBytes, segDir)
	defer p.cleanup(segDir, seg.Paths)
	if err != nil {
		return Result{}, err
	}
	p.metrics.ObservePlan(string(seg.Plan.Reason))

	res := Result{Plan: seg.Plan, Segments: len(seg.Paths)}
	d := p.dispatcher.WithRequestOptions(transcribe.Options{Language: req.Language})

	if !seg.Plan.Required {
		res.Transcript, err = d.TranscribeFile(ctx, h.Path())
		if err != nil {
			return Result{}, err
		}
	} else {
		texts, failed := d.TranscribeSegments(ctx, seg.Paths)
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("transcription interrupted: %w", err)
		}
		res.Transcript = strings.Join(texts, "\n")
		res.FailedSegments = len(failed)
		if len(failed) > 0 {
			p.log.Warn().
				Int("failed", len(failed)).
				Int("segments", len(seg.Paths)).
				Msg("transcript has gaps")
		}
	}

	if !req.Notes || strings.TrimSpace(res.Transcript) == "" {
		return res, nil
	}

	res.Notes, err = p.summarizer.Summarize(ctx, res.Transcript, notes.Options{
		Template: req.Template,
		Language: req.Language,
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate notes: %w", err)
	}
	return res, nil
}

// segmentDir creates a private directory for one run's segments so that
// concurrent runs over same-named inputs never see each other's files.
func (p *Pipeline) segmentDir() (string, error) {
	if err := os.MkdirAll(p.temp.Dir(), 0750); err != nil { // #nosec G301 -- app temp dir
		return "", fmt.Errorf("create temp dir %s: %w", p.temp.Dir(), err)
	}
	d, err := os.MkdirTemp(p.temp.Dir(), "segments-")
	if err != nil {
		return "", fmt.Errorf("create segment dir: %w", err)
	}
	return d, nil
}

// cleanup removes the run's segments and their directory. With keepSegments
// set, a non-empty directory is kept and logged, even when Prepare failed
// before returning any paths.
func (p *Pipeline) cleanup(dir string, segments []string) {
	if p.keepSegments {
		if err := os.Remove(dir); err == nil || errors.Is(err, fs.ErrNotExist) {
			return
		}
		p.log.Info().Str("dir", dir).Int("segments", len(segments)).Msg("segments kept")
		return
	}
	if err := audio.CleanupSegments(segments); err != nil {
		p.log.Warn().Err(err).Msg("failed to remove segments")
	}
	if err := os.RemoveAll(dir); err != nil {
		p.log.Warn().Err(err).Str("dir", dir).Msg("failed to remove segment dir")
	}
}
