package notes

import "errors"

// ErrTranscriptTooLong indicates the transcript exceeds the input token budget.
var ErrTranscriptTooLong = errors.New("transcript exceeds token limit")

// ErrEmptyTranscript indicates there is nothing to summarize.
var ErrEmptyTranscript = errors.New("transcript is empty")

// ErrUnsupportedProvider indicates an unknown notes provider.
var ErrUnsupportedProvider = errors.New("unsupported notes provider")
