package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-notetaker/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-notetaker/config.
Environment variables (and .env) take priority over the file.

Supported settings:
  output-dir            Default directory for output files (env: TRANSCRIPT_OUTPUT_DIR)
  chunk-target-mb       Per-request size budget in MB (env: CHUNK_TARGET_MB)
  max-chunk-seconds     Per-request duration ceiling (env: MAX_CHUNK_SECONDS)
  min-segment-seconds   Shortest segment length (env: MIN_SEGMENT_SECONDS)
  transcribe-model      Transcription model (env: TRANSCRIBE_MODEL)
  notes-model           Notes model (env: NOTES_MODEL)`,
		Example: `  notetaker config set output-dir ~/Documents/transcripts
  notetaker config set chunk-target-mb 20
  notetaker config get output-dir
  notetaker config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

For output-dir, the directory is created if it doesn't exist.
Numeric settings must be positive.`,
		Example: `  notetaker config set output-dir ~/Documents/transcripts
  notetaker config set max-chunk-seconds 1200`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.
The environment variable wins over the file.`,
		Example: `  notetaker config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable overrides.`,
		Example: `  notetaker config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

func unknownKeyError(key string) error {
	return fmt.Errorf("%w %q (valid keys: %s)", config.ErrUnknownKey, key, strings.Join(config.Keys(), ", "))
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !config.IsKnownKey(key) {
		return unknownKeyError(key)
	}

	switch key {
	case config.KeyOutputDir:
		expanded := config.ExpandPath(value)
		if err := config.EnsureOutputDir(expanded); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
		value = expanded
	case config.KeyChunkTargetMB:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || !(f > 0) || f > 1<<20 {
			return fmt.Errorf("invalid %s %q: must be a positive number", key, value)
		}
	case config.KeyMaxChunkSeconds, config.KeyMinSegmentSeconds:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", key, value)
		}
	case config.KeyTranscribeModel, config.KeyNotesModel:
		value = strings.TrimSpace(value)
		if value == "" {
			return fmt.Errorf("invalid %s: must not be empty", key)
		}
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !config.IsKnownKey(key) {
		return unknownKeyError(key)
	}

	value := env.Getenv(config.EnvName(key))
	if value == "" {
		v, err := config.Get(key)
		if err != nil {
			return err
		}
		value = v
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	lines := 0
	for _, key := range config.Keys() {
		if envVal := env.Getenv(config.EnvName(key)); envVal != "" {
			fmt.Fprintf(env.Stdout, "%s=%s (from env)\n", key, envVal)
			lines++
			continue
		}
		if v, ok := data[key]; ok {
			fmt.Fprintf(env.Stdout, "%s=%s\n", key, v)
			lines++
		}
	}

	if lines == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys() {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
	}
	return nil
}
