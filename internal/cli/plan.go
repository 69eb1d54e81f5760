package cli

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/go-notetaker/internal/format"
	"github.com/alnah/go-notetaker/internal/logging"
)

// PlanCmd creates the plan command.
func PlanCmd(env *Env) *cobra.Command {
	var maxMB float64

	cmd := &cobra.Command{
		Use:   "plan <audio-file>",
		Short: "Show how a file would be split, without transcribing",
		Long: `Probe an audio file and print the chunk plan: whether it fits a single
transcription request and, if not, the segment length that would be used.

No API key is needed and nothing is written.`,
		Example: `  notetaker plan lecture.m4a
  notetaker plan lecture.m4a --max-mb 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), env, args[0], maxMB)
		},
	}

	cmd.Flags().Float64Var(&maxMB, "max-mb", 0, "Per-request size budget in MB (default: CHUNK_TARGET_MB or 25)")
	return cmd
}

func runPlan(ctx context.Context, env *Env, inputPath string, maxMB float64) error {
	if err := validateInput(inputPath); err != nil {
		return err
	}

	cfg, log, err := loadConfig(env)
	if err != nil {
		return err
	}

	maxBytes, err := maxBytesFromMB(maxMB)
	if err != nil {
		return err
	}

	tools, err := env.ToolResolver.Resolve(cfg)
	if err != nil {
		return err
	}

	limits := cfg.Limits()
	if maxBytes > 0 {
		limits.MaxBytes = maxBytes
	}

	chunker := env.ChunkerFactory.NewChunker(tools, cfg.Limits(), logging.Component(log, "audio"))
	probe, plan, err := chunker.PlanFile(ctx, inputPath, maxBytes)
	if err != nil {
		return err
	}

	w := env.Stdout
	fmt.Fprintf(w, "File:      %s\n", filepath.Base(inputPath))
	fmt.Fprintf(w, "Duration:  %s\n", format.Seconds(probe.DurationSeconds))
	fmt.Fprintf(w, "Size:      %s\n", format.Size(probe.SizeBytes))
	fmt.Fprintf(w, "Limits:    %s, %s per request\n", format.Size(limits.MaxBytes), format.SegmentLength(limits.HardMaxSeconds))

	if !plan.Required {
		fmt.Fprintln(w, "Plan:      single request")
		return nil
	}

	segments := int(math.Ceil(probe.DurationSeconds / float64(plan.SegmentSeconds)))
	fmt.Fprintf(w, "Plan:      split into %s segments (~%d), exceeds %s\n",
		format.SegmentLength(plan.SegmentSeconds), segments, plan.Reason)
	return nil
}
