package audio

import (
	"fmt"
	"math"
)

// Default chunking limits.
const (
	// DefaultMaxBytes is the per-request upload budget of the transcription API.
	DefaultMaxBytes int64 = 25 * 1024 * 1024

	// DefaultHardMaxSeconds is the per-segment duration ceiling.
	DefaultHardMaxSeconds = 1400

	// DefaultMinSegmentSeconds is the smallest segment length worth a request.
	DefaultMinSegmentSeconds = 60

	// fallbackSegmentSeconds is used when the byte math yields no usable target.
	fallbackSegmentSeconds = 300
)

// Limits bounds the size and duration of a single transcription request.
type Limits struct {
	MaxBytes          int64
	HardMaxSeconds    int
	MinSegmentSeconds int
}

// DefaultLimits returns the built-in limits.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:          DefaultMaxBytes,
		HardMaxSeconds:    DefaultHardMaxSeconds,
		MinSegmentSeconds: DefaultMinSegmentSeconds,
	}
}

// Reason names the limits that made chunking necessary.
type Reason string

// Reasons reported by Plan.
const (
	ReasonNone     Reason = "none"
	ReasonSize     Reason = "size"
	ReasonDuration Reason = "duration"
	ReasonBoth     Reason = "size+duration"
)

// ChunkPlan is the outcome of Plan.
// SegmentSeconds is meaningful only when Required is true.
type ChunkPlan struct {
	Required       bool
	SegmentSeconds int
	Reason         Reason
}

// String returns a human-readable representation for logging.
func (p ChunkPlan) String() string {
	if !p.Required {
		return "no chunking required"
	}
	return fmt.Sprintf("split into %ds segments (%s)", p.SegmentSeconds, p.Reason)
}

// Plan decides whether an input must be split and the segment length to use.
//
// A plan is required when the input exceeds the byte budget or the duration
// ceiling. The segment length is the duration that fits the byte budget at the
// input's average bitrate, kept within [MinSegmentSeconds, HardMaxSeconds],
// never longer than the input and always strictly below the ceiling.
// The returned length is at least one second.
func Plan(probe MediaProbe, limits Limits) ChunkPlan {
	needsSize := probe.SizeBytes > limits.MaxBytes
	needsTime := probe.DurationSeconds > float64(limits.HardMaxSeconds)

	if !needsSize && !needsTime {
		return ChunkPlan{Reason: ReasonNone}
	}

	seg := targetSeconds(probe, limits.MaxBytes)
	seg = min(seg, limits.HardMaxSeconds)
	seg = max(seg, limits.MinSegmentSeconds)
	seg = min(seg, limits.HardMaxSeconds)

	if probe.DurationSeconds < float64(seg) {
		seg = int(math.Floor(probe.DurationSeconds))
	}
	if seg >= limits.HardMaxSeconds {
		seg = limits.HardMaxSeconds - 1
	}
	seg = max(seg, 1)

	return ChunkPlan{
		Required:       true,
		SegmentSeconds: seg,
		Reason:         reasonFor(needsSize, needsTime),
	}
}

// targetSeconds returns how many seconds of the input fit into maxBytes at its
// average bitrate, or fallbackSegmentSeconds when that is not a positive number.
// maxBytes / (size / duration) is computed as maxBytes * duration / size so
// exact ratios stay exact in floating point.
func targetSeconds(probe MediaProbe, maxBytes int64) int {
	duration := math.Max(probe.DurationSeconds, 1)
	target := math.Floor(float64(maxBytes) * duration / float64(probe.SizeBytes))
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return fallbackSegmentSeconds
	}
	if target > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(target)
}

func reasonFor(size, duration bool) Reason {
	switch {
	case size && duration:
		return ReasonBoth
	case size:
		return ReasonSize
	default:
		return ReasonDuration
	}
}
