package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// warnNonMarkdownExtension writes a warning to w if path has an extension
// that is not .md.
func warnNonMarkdownExtension(w io.Writer, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" && ext != ".md" {
		_, _ = fmt.Fprintf(w, "Warning: output is Markdown regardless of %s extension\n", ext)
	}
}

// deriveOutputPath converts an audio file path to a markdown output path.
// Example: "lecture.m4a" -> "lecture.md"
func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".md"
}

// checkOutputFree fails early when path already exists, before any
// expensive work. writeFileAtomic repeats the check race-free.
func checkOutputFree(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, path)
	}
	return nil
}

// writeFileAtomic writes content to path.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}

// renderDocument lays out the Markdown written by the transcribe command.
// With notes, the raw transcript follows under its own heading.
func renderDocument(transcript, notesMD string) string {
	transcript = strings.TrimSpace(transcript)
	if strings.TrimSpace(notesMD) == "" {
		return transcript + "\n"
	}
	return strings.TrimSpace(notesMD) + "\n\n---\n\n## Transcript\n\n" + transcript + "\n"
}
