package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-notetaker/internal/audio"
	"github.com/alnah/go-notetaker/internal/config"
	"github.com/alnah/go-notetaker/internal/lang"
	"github.com/alnah/go-notetaker/internal/pipeline"
	"github.com/alnah/go-notetaker/internal/tempfile"
	"github.com/alnah/go-notetaker/internal/template"
)

// supportedFormats lists audio formats accepted by OpenAI's transcription API,
// plus the Apple containers the recording apps produce.
// Source: https://platform.openai.com/docs/guides/speech-to-text
var supportedFormats = map[string]bool{
	".aac":  true,
	".caf":  true,
	".flac": true,
	".m4a":  true,
	".mp3":  true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".oga":  true,
	".ogg":  true,
	".wav":  true,
	".webm": true,
}

// supportedFormatsList returns a sorted, comma-separated list for error messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// transcribeOptions holds parsed flags for the transcribe command.
type transcribeOptions struct {
	output   string
	notes    bool
	template string
	language string
	maxMB    float64
	parallel int
	keep     bool
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var opts transcribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file",
		Long: `Transcribe an audio file using OpenAI's transcription API.

Files over the per-request size budget (CHUNK_TARGET_MB, default 25 MB) or
duration ceiling (MAX_CHUNK_SECONDS, default 1400 s) are split into
fixed-length segments without re-encoding, transcribed in parallel and
joined back in order.

With --notes (or --template) the transcript is also turned into Markdown notes.

Supported formats: ` + supportedFormatsList(),
		Example: `  notetaker transcribe lecture.m4a
  notetaker transcribe lecture.m4a --notes -l fr
  notetaker transcribe standup.mp3 -t meeting -o standup.md
  notetaker transcribe long.wav --max-mb 10 --parallel 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd.Context(), env, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (default: <input>.md)")
	cmd.Flags().BoolVarP(&opts.notes, "notes", "n", false, "Generate Markdown notes from the transcript")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "Notes template: "+strings.Join(template.Names(), ", ")+" (implies --notes)")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Audio language (ISO 639-1 code, e.g., en, fr, pt-BR)")
	cmd.Flags().Float64Var(&opts.maxMB, "max-mb", 0, "Per-request size budget in MB (default: CHUNK_TARGET_MB or 25)")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 0, "Max concurrent segment requests (default: TRANSCRIBE_MAX_PARALLEL, 0 = all at once)")
	cmd.Flags().BoolVar(&opts.keep, "keep-segments", false, "Keep segment files after transcription")

	return cmd
}

// maxBytesFromMB converts a --max-mb value. 0 means "use the configured budget".
func maxBytesFromMB(mb float64) (int64, error) {
	if mb == 0 {
		return 0, nil
	}
	if math.IsNaN(mb) || math.IsInf(mb, 0) || mb < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMaxSize, mb)
	}
	b := int64(math.Floor(mb * 1024 * 1024))
	if b < 1 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMaxSize, mb)
	}
	return b, nil
}

// validateInput checks that path exists and has a supported extension.
func validateInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", audio.ErrFileNotFound, path)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", audio.ErrFileNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedFormats[ext] {
		return fmt.Errorf("%w %q (supported: %s)", ErrUnsupportedFormat, ext, supportedFormatsList())
	}
	return nil
}

// runTranscribe executes the transcription pipeline.
// Validation order: file -> format -> config -> output -> template -> language -> size -> API key -> tools.
func runTranscribe(ctx context.Context, env *Env, inputPath string, opts transcribeOptions) error {
	// === VALIDATION (fail-fast) ===

	if err := validateInput(inputPath); err != nil {
		return err
	}

	cfg, log, err := loadConfig(env)
	if err != nil {
		return err
	}

	output := config.ResolveOutputPath(opts.output, cfg.OutputDir, deriveOutputPath(filepath.Base(inputPath)))
	if err := checkOutputFree(output); err != nil {
		return err
	}
	warnNonMarkdownExtension(env.Stderr, output)

	tplName := cfg.NotesTemplate
	if opts.template != "" {
		tplName = opts.template
		opts.notes = true
	}
	tpl, err := template.ParseName(tplName)
	if err != nil {
		return err
	}

	language, err := lang.Parse(opts.language)
	if err != nil {
		return err
	}

	maxBytes, err := maxBytesFromMB(opts.maxMB)
	if err != nil {
		return err
	}

	parallel := cfg.TranscribeMaxParallel
	if opts.parallel > 0 {
		parallel = opts.parallel
	}

	// === SETUP ===

	p, err := buildPipeline(ctx, env, cfg, log, pipelineSetup{
		maxParallel: parallel,
		keep:        opts.keep || cfg.KeepSegments,
		notes:       opts.notes,
	})
	if err != nil {
		return err
	}

	// === RUN ===

	fmt.Fprintf(env.Stderr, "Transcribing %s...\n", filepath.Base(inputPath))
	res, err := p.Run(ctx, pipeline.Request{
		Input:    tempfile.Input{Path: inputPath},
		MaxBytes: maxBytes,
		Language: language,
		Notes:    opts.notes,
		Template: tpl,
	})
	if err != nil {
		return err
	}

	if res.Segments > 0 {
		fmt.Fprintf(env.Stderr, "Transcribed %d segments (%s)\n", res.Segments, res.Plan)
	}
	if res.FailedSegments > 0 {
		fmt.Fprintf(env.Stderr, "Warning: %d of %d segments failed, the transcript has gaps\n", res.FailedSegments, res.Segments)
	}
	if opts.notes && res.Notes == "" {
		fmt.Fprintln(env.Stderr, "Warning: transcript is empty, no notes generated")
	}

	// === WRITE OUTPUT ===

	if err := writeFileAtomic(output, renderDocument(res.Transcript, res.Notes)); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}
