package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/alnah/go-notetaker/internal/ffmpeg"
)

// MediaProbe describes an input file as seen by the prober.
type MediaProbe struct {
	DurationSeconds float64
	SizeBytes       int64
}

// Prober measures the duration and size of media files using ffprobe.
// It never retries: a failed probe is reported immediately.
type Prober struct {
	probePath string

	cmd  commandRunner
	stat fileStatter
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProberCommandRunner sets the command runner (for testing).
func WithProberCommandRunner(r commandRunner) ProberOption {
	return func(p *Prober) { p.cmd = r }
}

// WithProberFileStatter sets the file statter (for testing).
func WithProberFileStatter(s fileStatter) ProberOption {
	return func(p *Prober) { p.stat = s }
}

// NewProber creates a Prober that runs the ffprobe binary at probePath.
func NewProber(probePath string, opts ...ProberOption) *Prober {
	p := &Prober{
		probePath: probePath,
		cmd:       ffmpeg.NewExecutor(),
		stat:      osFileStatter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// probeArgs returns the ffprobe arguments that print only the container duration.
func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// Probe returns the duration in seconds and the size in bytes of path.
//
// Errors:
//   - wraps ErrFileNotFound if path does not exist
//   - wraps ErrProbeFailed (and ffmpeg.ErrNotFound) if ffprobe is missing
//   - wraps ErrProbeFailed on non-zero exit or unparsable output
func (p *Prober) Probe(ctx context.Context, path string) (MediaProbe, error) {
	info, err := p.stat.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return MediaProbe{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return MediaProbe{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return MediaProbe{}, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	res, err := p.cmd.Run(ctx, p.probePath, probeArgs(path))
	if err != nil {
		if errors.Is(err, ffmpeg.ErrNotFound) {
			return MediaProbe{}, fmt.Errorf("%w: %w (%s)", ErrProbeFailed, err, ffmpeg.InstallHint)
		}
		return MediaProbe{}, fmt.Errorf("%w: %s: %w", ErrProbeFailed, path, err)
	}

	duration, err := parseProbeDuration(res.Stdout)
	if err != nil {
		return MediaProbe{}, fmt.Errorf("%w: %s: %v", ErrProbeFailed, path, err)
	}

	return MediaProbe{DurationSeconds: duration, SizeBytes: info.Size()}, nil
}

// parseProbeDuration parses the ffprobe duration output.
// Surrounding whitespace is ignored; the value must be finite and positive.
func parseProbeDuration(output string) (float64, error) {
	s := strings.TrimSpace(output)
	if s == "" {
		return 0, errors.New("empty duration output")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
