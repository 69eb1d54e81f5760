package audio

import (
	"context"
	"os"

	"github.com/alnah/go-notetaker/internal/ffmpeg"
)

// commandRunner executes an external command and captures its output.
// *ffmpeg.Executor satisfies it.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string) (ffmpeg.Result, error)
}

// fileStatter retrieves file information.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// dirReader lists directory entries.
type dirReader interface {
	ReadDir(name string) ([]os.DirEntry, error)
}

// fileRemover removes files.
type fileRemover interface {
	Remove(name string) error
}

// --- Default implementations using real OS functions ---

var (
	_ commandRunner = (*ffmpeg.Executor)(nil)
	_ fileStatter   = osFileStatter{}
	_ dirReader     = osDirReader{}
	_ fileRemover   = osFileRemover{}
)

// osFileStatter implements fileStatter using os.Stat.
type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// osDirReader implements dirReader using os.ReadDir.
type osDirReader struct{}

func (osDirReader) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

// osFileRemover implements fileRemover using os.Remove.
type osFileRemover struct{}

func (osFileRemover) Remove(name string) error {
	return os.Remove(name)
}
