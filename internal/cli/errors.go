package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrUnsupportedFormat indicates an audio file has an unsupported extension.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrInvalidMaxSize indicates a --max-mb value that is not a positive number.
	ErrInvalidMaxSize = errors.New("invalid --max-mb value")

	// ErrDeepSeekKeyMissing indicates DEEPSEEK_API_KEY is required but not set.
	ErrDeepSeekKeyMissing = errors.New("DEEPSEEK_API_KEY environment variable not set")

	// ErrJWTSecretMissing indicates JWT_SECRET is required but not set.
	ErrJWTSecretMissing = errors.New("JWT_SECRET environment variable not set")
)
