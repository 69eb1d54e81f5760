// Package apierr classifies failures of the OpenAI-compatible backends used
// for transcription and note generation, and retries the transient ones.
//
// Backend errors are mapped to the sentinels below at the adapter boundary.
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import "errors"

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrServer indicates a 5xx response from the backend (retryable).
	ErrServer = errors.New("server error")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrEmptyResponse indicates the backend answered without usable content.
	ErrEmptyResponse = errors.New("empty response")
)

// IsAPIError reports whether err was classified into one of the sentinels.
func IsAPIError(err error) bool {
	for _, s := range []error{
		ErrRateLimit, ErrQuotaExceeded, ErrTimeout, ErrServer,
		ErrAuthFailed, ErrBadRequest, ErrEmptyResponse,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
