package audio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Segmentation is the full outcome of Chunker.Prepare.
// Paths is nil when Plan.Required is false.
type Segmentation struct {
	Probe MediaProbe
	Plan  ChunkPlan
	Paths []string
}

// Chunker decides whether an input fits a single transcription request
// and splits it when it does not.
// Probe, plan and segmentation run strictly in sequence.
type Chunker struct {
	prober    *Prober
	segmenter *Segmenter
	limits    Limits
	log       zerolog.Logger
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithLogger sets the logger used to report plans.
func WithLogger(l zerolog.Logger) ChunkerOption {
	return func(c *Chunker) { c.log = l }
}

// NewChunker creates a Chunker. limits are the configured defaults;
// a request may override the byte budget.
func NewChunker(prober *Prober, segmenter *Segmenter, limits Limits, opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		prober:    prober,
		segmenter: segmenter,
		limits:    limits,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Limits returns the configured limits.
func (c *Chunker) Limits() Limits {
	return c.limits
}

// PlanFile probes path and returns the plan without segmenting.
// maxBytes <= 0 uses the configured budget.
func (c *Chunker) PlanFile(ctx context.Context, path string, maxBytes int64) (MediaProbe, ChunkPlan, error) {
	probe, err := c.prober.Probe(ctx, path)
	if err != nil {
		return MediaProbe{}, ChunkPlan{}, err
	}
	return probe, Plan(probe, c.limitsFor(maxBytes)), nil
}

// Prepare probes, plans and segments path when needed.
// Segments are written to outDir (empty means the directory of path)
// and belong to the caller; Prepare never deletes anything.
func (c *Chunker) Prepare(ctx context.Context, path string, maxBytes int64, outDir string) (Segmentation, error) {
	probe, plan, err := c.PlanFile(ctx, path, maxBytes)
	if err != nil {
		return Segmentation{}, err
	}

	c.log.Debug().
		Str("path", path).
		Float64("duration_s", probe.DurationSeconds).
		Int64("size_bytes", probe.SizeBytes).
		Bool("required", plan.Required).
		Int("segment_s", plan.SegmentSeconds).
		Str("reason", string(plan.Reason)).
		Msg("chunk plan")

	out := Segmentation{Probe: probe, Plan: plan}
	if !plan.Required {
		return out, nil
	}

	paths, err := c.segmenter.Segment(ctx, path, plan.SegmentSeconds, outDir)
	if err != nil {
		return Segmentation{}, fmt.Errorf("segment %s: %w", path, err)
	}
	out.Paths = paths

	c.log.Info().
		Str("path", path).
		Int("segments", len(paths)).
		Int("segment_s", plan.SegmentSeconds).
		Str("reason", string(plan.Reason)).
		Msg("audio split into segments")
	return out, nil
}

// SegmentIfNeeded returns the segment paths for path, or nil when the input
// fits a single request.
func (c *Chunker) SegmentIfNeeded(ctx context.Context, path string, maxBytes int64, outDir string) ([]string, error) {
	seg, err := c.Prepare(ctx, path, maxBytes, outDir)
	if err != nil {
		return nil, err
	}
	return seg.Paths, nil
}

func (c *Chunker) limitsFor(maxBytes int64) Limits {
	l := c.limits
	if maxBytes > 0 {
		l.MaxBytes = maxBytes
	}
	return l
}
