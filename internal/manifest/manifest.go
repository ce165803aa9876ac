// Package manifest persists the record of songs that have been synchronized
// into a playlist directory.
package manifest

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pavlin-policar/youtube-playlist/internal/storage"
)

// FileName is the name of the manifest file inside a playlist directory.
const FileName = "data.gob"

// Status tells what Load found on disk.
type Status int

const (
	// StatusEmpty means no manifest exists yet.
	StatusEmpty Status = iota
	// StatusCorrupt means the manifest could not be decoded.
	StatusCorrupt
	// StatusStale means the manifest belongs to a different playlist.
	StatusStale
	// StatusLoaded means the manifest was read and belongs to this playlist.
	StatusLoaded
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusCorrupt:
		return "corrupt"
	case StatusStale:
		return "stale"
	case StatusLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Record is the persisted subset of a song.
type Record struct {
	ID         string
	Title      string
	URL        string
	Restricted bool
}

// Manifest is the persisted state of a playlist directory.
type Manifest struct {
	ID    string
	Name  string
	Songs map[string]Record
}

// New returns an empty manifest for the given playlist.
func New(id, name string) *Manifest {
	return &Manifest{
		ID:    id,
		Name:  name,
		Songs: make(map[string]Record),
	}
}

// Result is the outcome of Load. Manifest is always non-nil; it is empty
// unless Status is StatusLoaded.
type Result struct {
	Status   Status
	Manifest *Manifest
}

// Store reads and writes the manifest of a single playlist directory.
type Store struct {
	storage storage.Storage
	path    string
}

// NewStore creates a store for the manifest at path.
func NewStore(s storage.Storage, path string) *Store {
	return &Store{storage: s, path: path}
}

// Path returns the manifest location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the manifest and validates that it belongs to the playlist
// identified by id and name. It does not remove anything; callers decide
// what to do with corrupt or stale manifests.
func (s *Store) Load(id, name string) (Result, error) {
	empty := Result{Status: StatusEmpty, Manifest: New(id, name)}

	data, err := s.storage.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return empty, fmt.Errorf("failed to read manifest %s: %w", s.path, err)
	}

	var loaded Manifest
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&loaded); err != nil {
		slog.Debug("failed to decode manifest", "path", s.path, "error", err)
		return Result{Status: StatusCorrupt, Manifest: New(id, name)}, nil
	}

	if loaded.ID != id || loaded.Name != name {
		return Result{Status: StatusStale, Manifest: New(id, name)}, nil
	}

	if loaded.Songs == nil {
		loaded.Songs = make(map[string]Record)
	}

	return Result{Status: StatusLoaded, Manifest: &loaded}, nil
}

// Save rewrites the manifest in full.
func (s *Store) Save(m *Manifest) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := s.storage.WriteFileAtomic(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", s.path, err)
	}
	return nil
}

// Discard removes the manifest file. A missing file is not an error.
func (s *Store) Discard() error {
	if err := s.storage.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove manifest %s: %w", s.path, err)
	}
	return nil
}
