package tempfile

// FileSystem exports fileSystem for mocks.
type FileSystem = fileSystem

// WithFileSystem exports withFileSystem for testing.
var WithFileSystem = withFileSystem

// OSFileSystem returns the production filesystem for wrapping in tests.
func OSFileSystem() FileSystem { return osFileSystem{} }

// WithIDs makes the manager use the given IDs in order (for testing).
func WithIDs(ids ...string) Option {
	return func(m *Manager) {
		i := 0
		m.newID = func() string {
			id := ids[i%len(ids)]
			i++
			return id
		}
	}
}

