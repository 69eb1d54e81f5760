package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-notetaker/internal/config"
)

// Notes:
// - These tests point XDG_CONFIG_HOME at a temp dir, so they cannot run in parallel.
// - Environment lookups go through Env.Getenv, never the process environment.

func setupConfigHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	return home
}

func TestRunConfigSet(t *testing.T) {
	setupConfigHome(t)
	outDir := filepath.Join(t.TempDir(), "transcripts")

	tests := []struct {
		name    string
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{"output_dir_created", config.KeyOutputDir, outDir, outDir, false},
		{"chunk_target_mb", config.KeyChunkTargetMB, "12.5", "12.5", false},
		{"chunk_target_mb_zero", config.KeyChunkTargetMB, "0", "", true},
		{"chunk_target_mb_nan", config.KeyChunkTargetMB, "NaN", "", true},
		{"max_chunk_seconds", config.KeyMaxChunkSeconds, "1200", "1200", false},
		{"max_chunk_seconds_fraction", config.KeyMaxChunkSeconds, "12.5", "", true},
		{"min_segment_seconds_negative", config.KeyMinSegmentSeconds, "-1", "", true},
		{"model_trimmed", config.KeyTranscribeModel, "  whisper-1 ", "whisper-1", false},
		{"model_blank", config.KeyNotesModel, "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv()
			err := runConfigSet(te.Env, tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("runConfigSet(%s, %q) error = nil, want error", tt.key, tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("runConfigSet(%s, %q) unexpected error: %v", tt.key, tt.value, err)
			}

			got, err := config.Get(tt.key)
			if err != nil {
				t.Fatalf("config.Get() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("stored %s = %q, want %q", tt.key, got, tt.want)
			}
			if !strings.Contains(te.stderr.String(), "Set "+tt.key) {
				t.Errorf("stderr = %q, want confirmation", te.stderr.String())
			}
		})
	}

	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		t.Errorf("output-dir %s not created (err = %v)", outDir, err)
	}
}

func TestRunConfigSet_OutputDirIsFile(t *testing.T) {
	setupConfigHome(t)
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0600); err != nil {
		t.Fatal(err)
	}

	err := runConfigSet(newTestEnv().Env, config.KeyOutputDir, file)
	if !errors.Is(err, config.ErrNotDirectory) {
		t.Fatalf("runConfigSet() error = %v, want ErrNotDirectory", err)
	}
}

func TestRunConfig_UnknownKey(t *testing.T) {
	setupConfigHome(t)
	te := newTestEnv()

	if err := runConfigSet(te.Env, "colour", "blue"); !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("runConfigSet() error = %v, want ErrUnknownKey", err)
	}
	if err := runConfigGet(te.Env, "colour"); !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("runConfigGet() error = %v, want ErrUnknownKey", err)
	}
}

func TestRunConfigGet(t *testing.T) {
	setupConfigHome(t)
	if err := config.Save(config.KeyNotesModel, "gpt-file"); err != nil {
		t.Fatal(err)
	}

	t.Run("from_file", func(t *testing.T) {
		te := newTestEnv()
		if err := runConfigGet(te.Env, config.KeyNotesModel); err != nil {
			t.Fatalf("runConfigGet() unexpected error: %v", err)
		}
		if got := te.stdout.String(); got != "gpt-file\n" {
			t.Errorf("stdout = %q, want %q", got, "gpt-file\n")
		}
	})

	t.Run("env_wins", func(t *testing.T) {
		te := newTestEnv()
		te.Getenv = func(name string) string {
			if name == "NOTES_MODEL" {
				return "gpt-env"
			}
			return ""
		}
		if err := runConfigGet(te.Env, config.KeyNotesModel); err != nil {
			t.Fatalf("runConfigGet() unexpected error: %v", err)
		}
		if got := te.stdout.String(); got != "gpt-env\n" {
			t.Errorf("stdout = %q, want %q", got, "gpt-env\n")
		}
	})

	t.Run("unset_prints_nothing", func(t *testing.T) {
		te := newTestEnv()
		if err := runConfigGet(te.Env, config.KeyMaxChunkSeconds); err != nil {
			t.Fatalf("runConfigGet() unexpected error: %v", err)
		}
		if got := te.stdout.String(); got != "" {
			t.Errorf("stdout = %q, want empty", got)
		}
	})
}

func TestRunConfigList(t *testing.T) {
	setupConfigHome(t)

	t.Run("empty", func(t *testing.T) {
		te := newTestEnv()
		if err := runConfigList(te.Env); err != nil {
			t.Fatalf("runConfigList() unexpected error: %v", err)
		}
		out := te.stdout.String()
		if !strings.Contains(out, "No configuration set.") {
			t.Errorf("stdout = %q, want empty notice", out)
		}
		for _, key := range config.Keys() {
			if !strings.Contains(out, "  "+key+"\n") {
				t.Errorf("stdout missing available key %q", key)
			}
		}
	})

	t.Run("file_and_env_sorted", func(t *testing.T) {
		if err := config.Save(config.KeyMaxChunkSeconds, "900"); err != nil {
			t.Fatal(err)
		}
		te := newTestEnv()
		te.Getenv = func(name string) string {
			if name == "CHUNK_TARGET_MB" {
				return "20"
			}
			return ""
		}
		if err := runConfigList(te.Env); err != nil {
			t.Fatalf("runConfigList() unexpected error: %v", err)
		}
		want := "chunk-target-mb=20 (from env)\nmax-chunk-seconds=900\n"
		if got := te.stdout.String(); got != want {
			t.Errorf("stdout = %q, want %q", got, want)
		}
	})
}
