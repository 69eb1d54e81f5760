package audio

import "errors"

// ErrFileNotFound indicates the specified input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrProbeFailed indicates the duration of an input could not be determined.
var ErrProbeFailed = errors.New("audio probe failed")

// ErrSegmentationFailed indicates the segmentation tool failed or produced no files.
var ErrSegmentationFailed = errors.New("audio segmentation failed")
