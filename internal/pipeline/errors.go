package pipeline

import "errors"

// ErrNotesUnavailable is returned when notes are requested from a pipeline
// built without a summarizer.
var ErrNotesUnavailable = errors.New("notes generation not configured")
