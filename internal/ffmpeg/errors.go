package ffmpeg

import "errors"

// ErrNotFound indicates an FFmpeg tool (ffmpeg or ffprobe) is not installed
// or not reachable at the configured location.
var ErrNotFound = errors.New("ffmpeg tool not found")

// ErrExitStatus indicates an external process exited with a non-zero status.
var ErrExitStatus = errors.New("process exited with non-zero status")
