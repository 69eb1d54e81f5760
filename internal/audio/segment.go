package audio

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alnah/go-notetaker/internal/ffmpeg"
)

// segmentInfix separates the input base name from the segment counter.
const segmentInfix = "-segment-"

// Segmenter splits audio files into fixed-length segments with stream copy.
// No re-encoding takes place: segment boundaries fall on packet boundaries.
type Segmenter struct {
	ffmpegPath string

	cmd   commandRunner
	dir   dirReader
	files fileRemover
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithSegmenterCommandRunner sets the command runner (for testing).
func WithSegmenterCommandRunner(r commandRunner) SegmenterOption {
	return func(s *Segmenter) { s.cmd = r }
}

// WithSegmenterDirReader sets the directory reader (for testing).
func WithSegmenterDirReader(d dirReader) SegmenterOption {
	return func(s *Segmenter) { s.dir = d }
}

// WithSegmenterFileRemover sets the file remover used by Cleanup (for testing).
func WithSegmenterFileRemover(f fileRemover) SegmenterOption {
	return func(s *Segmenter) { s.files = f }
}

// NewSegmenter creates a Segmenter that runs the ffmpeg binary at ffmpegPath.
func NewSegmenter(ffmpegPath string, opts ...SegmenterOption) *Segmenter {
	s := &Segmenter{
		ffmpegPath: ffmpegPath,
		cmd:        ffmpeg.NewExecutor(),
		dir:        osDirReader{},
		files:      osFileRemover{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// segmentArgs returns the ffmpeg arguments for stream-copy segmentation.
// Timestamps are reset so every segment starts at zero.
func segmentArgs(input string, seconds int, pattern string) []string {
	return []string{
		"-y",
		"-i", input,
		"-c", "copy",
		"-f", "segment",
		"-reset_timestamps", "1",
		"-segment_time", strconv.Itoa(seconds),
		pattern,
	}
}

// segmentNaming returns the file name prefix and extension of the segments
// produced for input, e.g. "talk-segment-" and ".m4a" for "talk.m4a".
func segmentNaming(input string) (prefix, ext string) {
	base := filepath.Base(input)
	ext = filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + segmentInfix, ext
}

// Segment splits path into segments of the given length, written to outDir.
// An empty outDir means the directory of path.
// Returns the segment paths in temporal order. The caller owns the files.
//
// outDir is listed after ffmpeg exits, so it should not contain segments of a
// previous run for the same input.
func (s *Segmenter) Segment(ctx context.Context, path string, seconds int, outDir string) ([]string, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("%w: segment length must be positive, got %d", ErrSegmentationFailed, seconds)
	}
	if outDir == "" {
		outDir = filepath.Dir(path)
	}

	prefix, ext := segmentNaming(path)
	pattern := filepath.Join(outDir, prefix+"%03d"+ext)

	if _, err := s.cmd.Run(ctx, s.ffmpegPath, segmentArgs(path, seconds, pattern)); err != nil {
		if errors.Is(err, ffmpeg.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w (%s)", ErrSegmentationFailed, err, ffmpeg.InstallHint)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrSegmentationFailed, path, err)
	}

	segments, err := s.list(outDir, prefix, ext)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments produced in %s", ErrSegmentationFailed, outDir)
	}
	return segments, nil
}

// list returns the files in dir named prefix<n>ext, ordered by n.
// The counter is compared as a number: ffmpeg widens it past the padding
// once a run produces more than 1000 segments.
func (s *Segmenter) list(dir, prefix, ext string) ([]string, error) {
	entries, err := s.dir.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrSegmentationFailed, dir, err)
	}

	type segmentFile struct {
		index int
		name  string
	}
	var files []segmentFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ext {
			continue
		}
		index, ok := segmentIndex(name, prefix, ext)
		if !ok {
			continue
		}
		files = append(files, segmentFile{index: index, name: name})
	}
	slices.SortFunc(files, func(a, b segmentFile) int { return cmp.Compare(a.index, b.index) })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(dir, f.name)
	}
	return paths, nil
}

// segmentIndex extracts the counter from a segment file name.
func segmentIndex(name, prefix, ext string) (int, bool) {
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Cleanup removes segment files. Missing files are ignored.
// All removal errors are returned joined.
func (s *Segmenter) Cleanup(paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := s.files.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CleanupSegments removes segment files from disk. Missing files are ignored.
func CleanupSegments(paths []string) error {
	return NewSegmenter("").Cleanup(paths)
}
