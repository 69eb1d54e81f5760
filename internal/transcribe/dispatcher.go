package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-notetaker/internal/metrics"
)

// SegmentError records the failure of one segment in a fan-out.
type SegmentError struct {
	Index int
	Path  string
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d (%s): %v", e.Index, filepath.Base(e.Path), e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// Dispatcher sends files to a Transcriber, one at a time or as a parallel
// fan-out over segments.
type Dispatcher struct {
	t           Transcriber
	opts        Options
	maxParallel int
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithOptions sets the transcription options sent with every request.
func WithOptions(opts Options) DispatcherOption {
	return func(d *Dispatcher) { d.opts = opts }
}

// WithMaxParallel bounds the number of in-flight segment requests.
// n <= 0 means one request per segment at once.
func WithMaxParallel(n int) DispatcherOption {
	return func(d *Dispatcher) { d.maxParallel = n }
}

// WithDispatcherLogger sets the logger used to report segment failures.
func WithDispatcherLogger(l zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithMetrics sets the metrics sink. Nil disables recording.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a Dispatcher over t.
func NewDispatcher(t Transcriber, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		t:   t,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithRequestOptions returns a copy of d that sends opts instead of the
// configured options. Used for per-request language hints.
func (d *Dispatcher) WithRequestOptions(opts Options) *Dispatcher {
	c := *d
	c.opts = opts
	return &c
}

// TranscribeFile transcribes a single file. Errors propagate to the caller.
func (d *Dispatcher) TranscribeFile(ctx context.Context, path string) (string, error) {
	start := time.Now()
	text, err := d.t.Transcribe(ctx, path, d.opts)
	d.metrics.ObserveTranscription(err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", filepath.Base(path), err)
	}
	return text, nil
}

// TranscribeSegments transcribes every segment concurrently.
//
// texts[i] always corresponds to segments[i], whatever the completion order.
// A failed segment leaves texts[i] empty and adds a *SegmentError to failed;
// it never cancels its siblings. Cancelling ctx reaches every in-flight request.
func (d *Dispatcher) TranscribeSegments(ctx context.Context, segments []string) (texts []string, failed []*SegmentError) {
	if len(segments) == 0 {
		return nil, nil
	}

	texts = make([]string, len(segments))
	errs := make([]*SegmentError, len(segments))

	var g errgroup.Group
	if d.maxParallel > 0 {
		g.SetLimit(d.maxParallel)
	}

	for i, path := range segments {
		g.Go(func() error {
			start := time.Now()
			text, err := d.t.Transcribe(ctx, path, d.opts)
			d.metrics.ObserveTranscription(err, time.Since(start))
			if err != nil {
				errs[i] = &SegmentError{Index: i, Path: path, Err: err}
				d.log.Error().Err(err).
					Int("segment", i).
					Str("path", path).
					Msg("segment transcription failed")
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; failures are collected in errs

	for _, e := range errs {
		if e != nil {
			failed = append(failed, e)
		}
	}
	return texts, failed
}

// TranscribeAll transcribes every segment concurrently and joins the texts
// in segment order with "\n". Failed segments contribute an empty line.
func (d *Dispatcher) TranscribeAll(ctx context.Context, segments []string) string {
	texts, _ := d.TranscribeSegments(ctx, segments)
	return strings.Join(texts, "\n")
}
