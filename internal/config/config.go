package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/alnah/go-notetaker/internal/audio"
)

// Config is the process configuration. It is parsed once at startup and
// passed explicitly to the components that need it.
type Config struct {
	// Chunking. Kept as raw strings so invalid values fall back to the
	// defaults instead of failing startup; see Limits.
	ChunkTargetMB     string `env:"CHUNK_TARGET_MB"`
	MaxChunkSeconds   string `env:"MAX_CHUNK_SECONDS"`
	MinSegmentSeconds string `env:"MIN_SEGMENT_SECONDS"`

	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	FFmpegPath  string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`

	OpenAIAPIKey          string `env:"OPENAI_API_KEY"`
	TranscribeModel       string `env:"TRANSCRIBE_MODEL" envDefault:"gpt-4o-mini-transcribe"`
	TranscribeMaxParallel int    `env:"TRANSCRIBE_MAX_PARALLEL" envDefault:"0"`

	// Notes. An empty model uses the provider's default.
	NotesProvider  string `env:"NOTES_PROVIDER" envDefault:"openai"`
	NotesModel     string `env:"NOTES_MODEL"`
	NotesTemplate  string `env:"NOTES_TEMPLATE" envDefault:"class"`
	DeepSeekAPIKey string `env:"DEEPSEEK_API_KEY"`

	UploadDir    string `env:"UPLOAD_DIR" envDefault:"uploads"`
	KeepSegments bool   `env:"KEEP_SEGMENTS" envDefault:"false"`
	OutputDir    string `env:"TRANSCRIPT_OUTPUT_DIR"`

	// ReadTimeout covers the whole upload body; ReadHeaderTimeout bounds
	// slow clients before the body starts.
	HTTPAddr          string        `env:"HTTP_ADDR" envDefault:":3000"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30m"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30m"`
	MaxUploadMB       int64         `env:"MAX_UPLOAD_MB" envDefault:"300"`
	JWTSecret         string        `env:"JWT_SECRET"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile   string
	HTTPAddr  string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the user config file, a .env file, the
// process environment and CLI overrides.
// Priority: CLI flags > environment variables > .env file > config file > struct defaults.
func Load(o Overrides) (*Config, error) {
	envFile := o.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		// godotenv never overrides variables already set.
		_ = godotenv.Load(envFile)
	}

	file, err := List()
	if err != nil {
		return nil, err
	}

	cfg, err := load(file, environMap(os.Environ()))
	if err != nil {
		return nil, err
	}

	if o.HTTPAddr != "" {
		cfg.HTTPAddr = o.HTTPAddr
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	return cfg, nil
}

// load merges config file keys under the environment and parses the result.
// Empty values count as unset so they never shadow a default.
func load(file, environ map[string]string) (*Config, error) {
	merged := make(map[string]string, len(file)+len(environ))
	for key, value := range file {
		name, ok := fileKeys[key]
		if !ok || value == "" {
			continue
		}
		merged[name] = value
	}
	for name, value := range environ {
		if value == "" {
			continue
		}
		merged[name] = value
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[name] = value
	}
	return m
}

// Limits returns the chunking limits. Each variable only takes effect when
// it parses to a finite positive number; anything else keeps the default.
// The minimum segment length is kept below the ceiling, and the ceiling is
// at least 2 seconds so a segment length below it always exists.
func (c *Config) Limits() audio.Limits {
	limits := audio.DefaultLimits()

	if mb, ok := positiveFloat(c.ChunkTargetMB); ok {
		if b := math.Floor(mb * 1024 * 1024); b >= 1 && b < math.MaxInt64 {
			limits.MaxBytes = int64(b)
		}
	}
	if s, ok := positiveInt(c.MaxChunkSeconds); ok {
		limits.HardMaxSeconds = s
	}
	if s, ok := positiveInt(c.MinSegmentSeconds); ok {
		limits.MinSegmentSeconds = s
	}

	if limits.HardMaxSeconds < 2 {
		limits.HardMaxSeconds = 2
	}
	if limits.MinSegmentSeconds >= limits.HardMaxSeconds {
		limits.MinSegmentSeconds = limits.HardMaxSeconds - 1
	}
	return limits
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 300 << 20
	}
	return c.MaxUploadMB << 20
}

func positiveFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

// positiveInt truncates fractions: "1400.9" means 1400.
func positiveInt(s string) (int, bool) {
	f, ok := positiveFloat(s)
	if !ok || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
