package audio

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// ParseProbeDuration exports parseProbeDuration for testing.
var ParseProbeDuration = parseProbeDuration

// ProbeArgs exports probeArgs for testing.
var ProbeArgs = probeArgs

// SegmentArgs exports segmentArgs for testing.
var SegmentArgs = segmentArgs

// SegmentNaming exports segmentNaming for testing.
var SegmentNaming = segmentNaming

// SegmentIndex exports segmentIndex for testing.
var SegmentIndex = segmentIndex

// --- Dependency injection exports ---

// CommandRunner exports commandRunner interface for testing.
type CommandRunner = commandRunner

// FileStatter exports fileStatter interface for testing.
type FileStatter = fileStatter

// DirReader exports dirReader interface for testing.
type DirReader = dirReader

// FileRemover exports fileRemover interface for testing.
type FileRemover = fileRemover
