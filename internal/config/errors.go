package config

import "errors"

var (
	// ErrUnknownKey is returned when a config file key is not recognized.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrNotDirectory is returned when an output path exists but is not a directory.
	ErrNotDirectory = errors.New("path is not a directory")

	// ErrNotWritable is returned when an output directory cannot be written to.
	ErrNotWritable = errors.New("directory is not writable")
)
