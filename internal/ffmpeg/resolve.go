package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// Default command names, looked up on PATH when no explicit path is configured.
const (
	DefaultProbeCommand   = "ffprobe"
	DefaultSegmentCommand = "ffmpeg"
)

// minFFmpegMajorVersion is the minimum recommended ffmpeg version.
// Older builds handle -reset_timestamps in the segment muxer inconsistently.
const minFFmpegMajorVersion = 4

// Tools holds the resolved locations of the external media tools.
// It is resolved once at startup and read-only afterwards.
type Tools struct {
	Probe   string // ffprobe, used for duration probing
	Segment string // ffmpeg, used for stream-copy segmentation
}

// Resolver turns configured tool names into usable executable paths.
type Resolver struct {
	probe   string
	segment string
	stat    fileStatter
	look    pathLooker
	goos    string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProbeCommand sets the configured ffprobe name or path.
// An empty value keeps the default.
func WithProbeCommand(cmd string) ResolverOption {
	return func(r *Resolver) {
		if cmd != "" {
			r.probe = cmd
		}
	}
}

// WithSegmentCommand sets the configured ffmpeg name or path.
// An empty value keeps the default.
func WithSegmentCommand(cmd string) ResolverOption {
	return func(r *Resolver) {
		if cmd != "" {
			r.segment = cmd
		}
	}
}

// WithFileStatter sets the stat implementation (for testing).
func WithFileStatter(s fileStatter) ResolverOption {
	return func(r *Resolver) { r.stat = s }
}

// WithPathLooker sets the PATH lookup implementation (for testing).
func WithPathLooker(l pathLooker) ResolverOption {
	return func(r *Resolver) { r.look = l }
}

// WithPlatform sets the target OS used for install instructions (for testing).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		probe:   DefaultProbeCommand,
		segment: DefaultSegmentCommand,
		stat:    osFileStatter{},
		look:    osPathLooker{},
		goos:    runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve locates both tools.
// A configured value containing a path separator must exist on disk;
// a bare name is looked up on PATH. Failures wrap ErrNotFound.
func (r *Resolver) Resolve() (Tools, error) {
	probe, err := r.resolveOne(r.probe, "FFPROBE_PATH")
	if err != nil {
		return Tools{}, err
	}
	segment, err := r.resolveOne(r.segment, "FFMPEG_PATH")
	if err != nil {
		return Tools{}, err
	}
	return Tools{Probe: probe, Segment: segment}, nil
}

// resolveOne resolves a single tool. envName is only used in messages.
func (r *Resolver) resolveOne(name, envName string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		info, err := r.stat.Stat(name)
		if err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but the binary does not exist",
				ErrNotFound, envName, name)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is set to %q which is a directory",
				ErrNotFound, envName, name)
		}
		return name, nil
	}

	path, err := r.look.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not on PATH\n\n%s", ErrNotFound, name, r.InstallInstructions())
	}
	return path, nil
}

// InstallInstructions returns platform-specific instructions for installing
// the FFmpeg suite (which ships both ffmpeg and ffprobe).
func (r *Resolver) InstallInstructions() string {
	return installInstructions(r.goos)
}

func installInstructions(goos string) string {
	switch goos {
	case "darwin":
		return `To install FFmpeg (includes ffprobe):
  brew install ffmpeg

Or set FFMPEG_PATH and FFPROBE_PATH to your binaries.`
	case "linux":
		return `To install FFmpeg (includes ffprobe):
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg

Or set FFMPEG_PATH and FFPROBE_PATH to your binaries.`
	case "windows":
		return `To install FFmpeg (includes ffprobe):
  winget install ffmpeg

Or set FFMPEG_PATH and FFPROBE_PATH to your ffmpeg.exe and ffprobe.exe.`
	default:
		return `To install FFmpeg, download it from https://ffmpeg.org/download.html
Or set FFMPEG_PATH and FFPROBE_PATH to your binaries.`
	}
}

// InstallHint is a one-line remediation hint used in wrapped errors.
const InstallHint = "install ffmpeg and make sure ffmpeg and ffprobe are on PATH (or set FFMPEG_PATH / FFPROBE_PATH)"

// VersionChecker verifies FFmpeg version requirements.
type VersionChecker struct {
	executor *Executor
	log      zerolog.Logger
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running ffmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionLogger sets the logger for warnings.
func WithVersionLogger(l zerolog.Logger) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.log = l }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: NewExecutor(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check verifies that ffmpeg meets minimum version requirements.
// Logs a warning if the version is below minimum but doesn't fail.
// Returns true if the version was successfully parsed.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) bool {
	res, err := vc.executor.Run(ctx, ffmpegPath, []string{"-version"})
	if err != nil && res.Stdout == "" {
		return false
	}

	major, ok := parseMajorVersion(res.Stdout)
	if !ok {
		return false
	}

	if major < minFFmpegMajorVersion {
		vc.log.Warn().
			Int("version", major).
			Int("recommended", minFFmpegMajorVersion).
			Msg("ffmpeg version below recommended minimum")
	}
	return true
}

// parseMajorVersion extracts the major version from the first line of
// "ffmpeg -version", e.g. "ffmpeg version 6.1.1" or "ffmpeg version n6.1.1".
func parseMajorVersion(output string) (int, bool) {
	first, _, _ := strings.Cut(output, "\n")
	if first == "" {
		return 0, false
	}

	var major int
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err == nil {
		return major, true
	}
	if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err == nil {
		return major, true
	}
	return 0, false
}
