// Package tempfile scopes the lifetime of the media file a request works on.
//
// An input is either a path the caller already owns or content to copy (an
// upload, as a stream or raw bytes). Content is written to a uniquely named file that the handle removes on
// Release. Callers defer Release right after Acquire so the file goes away on
// every exit path, panics included.
package tempfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoInput indicates neither a path nor data was provided.
var ErrNoInput = errors.New("no input provided")

// maxExtLen bounds the extension kept from a client-supplied name.
const maxExtLen = 10

// Input designates the media of a request.
// Path takes precedence over Reader, and Reader over Data.
type Input struct {
	Path   string    // existing file, borrowed
	Reader io.Reader // streamed content, copied to a temp file
	Data   []byte    // raw content, written to a temp file
	Name   string    // original file name, used only for its extension
}

// fileSystem abstracts the filesystem operations of the manager.
type fileSystem interface {
	MkdirAll(path string, perm fs.FileMode) error
	WriteNew(name string, r io.Reader) (int64, error)
	Remove(name string) error
}

// osFileSystem implements fileSystem with the os package.
type osFileSystem struct{}

func (osFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteNew creates name exclusively (O_EXCL) and copies r into it.
// A partial file is removed on failure.
func (osFileSystem) WriteNew(name string, r io.Reader) (int64, error) {
	// #nosec G304 -- name is generated by the manager
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return n, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return n, err
	}
	return n, nil
}

func (osFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// Manager materializes inputs as files in a directory.
type Manager struct {
	dir   string
	fs    fileSystem
	newID func() string
	log   zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used to report release failures.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// withFileSystem sets the filesystem implementation (for testing).
func withFileSystem(f fileSystem) Option {
	return func(m *Manager) { m.fs = f }
}

// NewManager creates a Manager writing temp files to dir.
// An empty dir means os.TempDir().
func NewManager(dir string, opts ...Option) *Manager {
	if dir == "" {
		dir = os.TempDir()
	}
	m := &Manager{
		dir:   dir,
		fs:    osFileSystem{},
		newID: func() string { return uuid.NewString() },
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the directory temp files are written to.
func (m *Manager) Dir() string {
	return m.dir
}

// Acquire returns a handle on the input's file.
//
// A Path is borrowed: Release leaves it in place. Reader or Data content is
// copied to a new file named <uuid><ext> in the manager's directory, where
// ext comes from Name; Release removes it. Returns ErrNoInput when nothing is
// set or the content is empty.
func (m *Manager) Acquire(in Input) (*Handle, error) {
	if in.Path != "" {
		return &Handle{path: in.Path, log: m.log}, nil
	}

	src := in.Reader
	if src == nil {
		if len(in.Data) == 0 {
			return nil, ErrNoInput
		}
		src = bytes.NewReader(in.Data)
	}

	if err := m.fs.MkdirAll(m.dir, 0750); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", m.dir, err)
	}

	path := filepath.Join(m.dir, m.newID()+SafeExt(in.Name))
	n, err := m.fs.WriteNew(path, src)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	h := &Handle{path: path, owned: true, fs: m.fs, log: m.log}
	if n == 0 {
		h.Release()
		return nil, ErrNoInput
	}

	m.log.Debug().Str("path", path).Int64("bytes", n).Msg("temp file acquired")
	return h, nil
}

// SafeExt returns the lowercased extension of name when it is short and
// alphanumeric, and "" otherwise. Client-supplied names never reach the
// filesystem beyond this.
func SafeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// Handle is a scoped reference to an input file.
type Handle struct {
	path  string
	owned bool
	fs    fileSystem
	log   zerolog.Logger
	once  sync.Once
}

// Path returns the file path.
func (h *Handle) Path() string {
	return h.path
}

// Owned reports whether Release removes the file.
func (h *Handle) Owned() bool {
	return h.owned
}

// Release removes the file if the handle owns it. It is idempotent and safe
// for concurrent use. Failures are logged, never returned: the request
// outcome must not depend on cleanup.
func (h *Handle) Release() {
	h.once.Do(func() {
		if !h.owned {
			return
		}
		err := h.fs.Remove(h.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			h.log.Warn().Err(err).Str("path", h.path).Msg("failed to remove temp file")
			return
		}
		h.log.Debug().Str("path", h.path).Msg("temp file released")
	})
}
