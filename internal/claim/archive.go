package claim

import (
	"fmt"
	"os"
	"path/filepath"
)

// Archive defines the interface for keeping uploaded receipt images
type Archive interface {
	// Save stores an image and returns the path/filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves an image by path
	Get(path string) ([]byte, error)

	// Delete removes an image
	Delete(path string) error
}

// LocalArchive implements the Archive interface using the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a new LocalArchive instance
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	return &LocalArchive{
		basePath: basePath,
	}, nil
}

// Save stores an image in the archive
func (l *LocalArchive) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves an image from the archive
func (l *LocalArchive) Get(path string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes an image from the archive
func (l *LocalArchive) Delete(path string) error {
	fullPath := filepath.Join(l.basePath, path)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
