package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDeriveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"m4a_to_md", "lecture.m4a", "lecture.md"},
		{"no_extension", "audio", "audio.md"},
		{"double_extension", "file.backup.ogg", "file.backup.md"},
		{"path_with_dir", "/home/user/audio.caf", "/home/user/audio.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := deriveOutputPath(tt.input); got != tt.expected {
				t.Errorf("deriveOutputPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWarnNonMarkdownExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		warn bool
	}{
		{"out.md", false},
		{"OUT.MD", false},
		{"out", false},
		{"out.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			warnNonMarkdownExtension(&buf, tt.path)
			if got := buf.Len() > 0; got != tt.warn {
				t.Errorf("warnNonMarkdownExtension(%q) warned = %v, want %v", tt.path, got, tt.warn)
			}
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.md")

	if err := writeFileAtomic(path, "hello\n"); err != nil {
		t.Fatalf("writeFileAtomic() unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello\n" {
		t.Fatalf("content = %q (err = %v), want %q", data, err, "hello\n")
	}

	if err := writeFileAtomic(path, "again"); !errors.Is(err, ErrOutputExists) {
		t.Errorf("second write error = %v, want ErrOutputExists", err)
	}
	if err := checkOutputFree(path); !errors.Is(err, ErrOutputExists) {
		t.Errorf("checkOutputFree() error = %v, want ErrOutputExists", err)
	}
	if err := checkOutputFree(filepath.Join(dir, "free.md")); err != nil {
		t.Errorf("checkOutputFree(free) unexpected error: %v", err)
	}
}

func TestRenderDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		transcript string
		notes      string
		want       string
	}{
		{"transcript_only", "  hello world \n", "", "hello world\n"},
		{"blank_notes_ignored", "hello", " \n", "hello\n"},
		{"notes_then_transcript", "hello", "# Notes\n", "# Notes\n\n---\n\n## Transcript\n\nhello\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := renderDocument(tt.transcript, tt.notes); got != tt.want {
				t.Errorf("renderDocument() = %q, want %q", got, tt.want)
			}
		})
	}
}
