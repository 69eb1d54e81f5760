package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Config file keys.
const (
	KeyOutputDir         = "output-dir"
	KeyChunkTargetMB     = "chunk-target-mb"
	KeyMaxChunkSeconds   = "max-chunk-seconds"
	KeyMinSegmentSeconds = "min-segment-seconds"
	KeyTranscribeModel   = "transcribe-model"
	KeyNotesModel        = "notes-model"
)

// fileKeys maps config file keys to the environment variable they stand in for.
var fileKeys = map[string]string{
	KeyOutputDir:         "TRANSCRIPT_OUTPUT_DIR",
	KeyChunkTargetMB:     "CHUNK_TARGET_MB",
	KeyMaxChunkSeconds:   "MAX_CHUNK_SECONDS",
	KeyMinSegmentSeconds: "MIN_SEGMENT_SECONDS",
	KeyTranscribeModel:   "TRANSCRIBE_MODEL",
	KeyNotesModel:        "NOTES_MODEL",
}

// Keys returns the supported config file keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fileKeys))
	for k := range fileKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsKnownKey reports whether key can be stored in the config file.
func IsKnownKey(key string) bool {
	_, ok := fileKeys[key]
	return ok
}

// EnvName returns the environment variable a config file key maps to.
func EnvName(key string) string {
	return fileKeys[key]
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-notetaker.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-notetaker"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-notetaker"), nil
}

func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map sorted by key so the file diffs cleanly.
func writeFile(p string, data map[string]string) error {
	var b strings.Builder
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, data[k])
	}

	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(p, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	data, err := List()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

// List returns all config file values as a map.
// A missing file is an empty configuration, not an error.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}
