package ffmpeg

import (
	"os"
	"os/exec"
)

// ---------------------------------------------------------------------------
// Interfaces - local to this package, following Go idiom
// ---------------------------------------------------------------------------

// fileStatter abstracts stat operations on the filesystem.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// pathLooker abstracts executable lookup on PATH.
type pathLooker interface {
	LookPath(file string) (string, error)
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to standard library
// ---------------------------------------------------------------------------

// Compile-time interface verification.
var (
	_ fileStatter = osFileStatter{}
	_ pathLooker  = osPathLooker{}
)

// osFileStatter implements fileStatter using the os package.
type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// osPathLooker implements pathLooker using exec.LookPath.
type osPathLooker struct{}

func (osPathLooker) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
