package storage

// Storage defines the file operations needed to keep a playlist directory
// in sync.
type Storage interface {
	// FileExists reports whether a regular file exists at path.
	FileExists(path string) bool

	// ListAudioFiles lists the names of audio files in dir, in directory
	// listing order. A missing directory yields an empty list.
	ListAudioFiles(dir string) ([]string, error)

	// FindNormalized looks for a file in dir whose name equals name once both
	// are NFC normalized. It returns the on-disk name.
	FindNormalized(dir, name string) (string, bool, error)

	Remove(path string) error

	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic replaces path with data, never leaving a partially
	// written file behind.
	WriteFileAtomic(path string, data []byte) error
}
