package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-notetaker/internal/apierr"
	"github.com/alnah/go-notetaker/internal/audio"
	"github.com/alnah/go-notetaker/internal/cli"
	"github.com/alnah/go-notetaker/internal/config"
	"github.com/alnah/go-notetaker/internal/ffmpeg"
	"github.com/alnah/go-notetaker/internal/interrupt"
	"github.com/alnah/go-notetaker/internal/lang"
	"github.com/alnah/go-notetaker/internal/notes"
	"github.com/alnah/go-notetaker/internal/pipeline"
	"github.com/alnah/go-notetaker/internal/tempfile"
	"github.com/alnah/go-notetaker/internal/template"
	"github.com/alnah/go-notetaker/internal/transcribe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitTranscription = 5
	ExitNotes         = 6
	ExitInterrupt     = interrupt.ExitInterrupt
)

func main() {
	// First Ctrl+C cancels the context, a second one exits immediately.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	// Flag values are read when a command loads its configuration.
	var overrides config.Overrides
	env := cli.NewEnv(cli.WithConfigLoader(cli.NewConfigLoader(&overrides)))

	rootCmd := &cobra.Command{
		Use:     "notetaker",
		Short:   "Transcribe long audio and turn it into notes",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&overrides.EnvFile, "env-file", "", "Path to a .env file (default: .env)")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&overrides.LogFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.PlanCmd(env))
	rootCmd.AddCommand(cli.ServeCmd(env, version))
	rootCmd.AddCommand(cli.ConfigCmd(env))
	rootCmd.AddCommand(cli.TokenCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors: Cobra doesn't expose typed errors.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, transcribe.ErrAPIKeyMissing) ||
		errors.Is(err, cli.ErrDeepSeekKeyMissing) || errors.Is(err, notes.ErrUnsupportedProvider) ||
		errors.Is(err, cli.ErrJWTSecretMissing) || errors.Is(err, pipeline.ErrNotesUnavailable) {
		return ExitSetup
	}

	if errors.Is(err, tempfile.ErrNoInput) || errors.Is(err, audio.ErrFileNotFound) ||
		errors.Is(err, cli.ErrUnsupportedFormat) || errors.Is(err, audio.ErrProbeFailed) ||
		errors.Is(err, audio.ErrSegmentationFailed) || errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, template.ErrUnknown) || errors.Is(err, cli.ErrOutputExists) ||
		errors.Is(err, cli.ErrInvalidMaxSize) || errors.Is(err, config.ErrUnknownKey) ||
		errors.Is(err, config.ErrNotDirectory) || errors.Is(err, config.ErrNotWritable) {
		return ExitValidation
	}

	if errors.Is(err, notes.ErrTranscriptTooLong) || errors.Is(err, notes.ErrEmptyTranscript) {
		return ExitNotes
	}

	if apierr.IsAPIError(err) {
		return ExitTranscription
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
