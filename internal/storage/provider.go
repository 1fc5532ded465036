// Package storage keeps the library of imported source files on disk.
package storage

import "github.com/starford/lectern/internal/models"

// Provider is the interface for source library file operations. Paths are
// relative to the library root and use forward slashes.
type Provider interface {
	// List returns metadata for every importable file under dir.
	List(dir string) ([]models.SourceMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root is the absolute library directory.
	Root() string
}
