package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/pavlin-policar/youtube-playlist/internal/domain"
)

// LocalFileStorage implements the Storage interface on top of an afero
// filesystem.
type LocalFileStorage struct {
	fs afero.Fs
}

// NewLocalFileStorage creates a storage backed by fs. A nil fs means the OS
// filesystem.
func NewLocalFileStorage(fs afero.Fs) *LocalFileStorage {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &LocalFileStorage{fs: fs}
}

// Fs returns the underlying filesystem.
func (s *LocalFileStorage) Fs() afero.Fs {
	return s.fs
}

// FileExists checks if a file exists
func (s *LocalFileStorage) FileExists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// ListAudioFiles lists audio files in a directory
func (s *LocalFileStorage) ListAudioFiles(dir string) ([]string, error) {
	exists, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !exists {
		return []string{}, nil
	}

	files, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	results := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if !isAudioFile(file.Name()) {
			continue
		}
		results = append(results, file.Name())
	}

	return results, nil
}

// FindNormalized matches name against the audio files in dir, ignoring
// differences in Unicode normalization form.
func (s *LocalFileStorage) FindNormalized(dir, name string) (string, bool, error) {
	files, err := s.ListAudioFiles(dir)
	if err != nil {
		return "", false, err
	}

	want := norm.NFC.String(name)
	for _, file := range files {
		if norm.NFC.String(file) == want {
			return file, true, nil
		}
	}
	return "", false, nil
}

// Remove deletes the file at path.
func (s *LocalFileStorage) Remove(path string) error {
	return s.fs.Remove(path)
}

// ReadFile reads the whole file at path.
func (s *LocalFileStorage) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// WriteFileAtomic writes to a temp file in the same directory and renames it
// over path.
func (s *LocalFileStorage) WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".youtube-playlist-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func isAudioFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), "."+domain.AudioExtension)
}
