// Package storage defines the corpus file-system abstraction.
package storage

import "github.com/starford/semconv/internal/models"

// Provider is the interface for corpus file operations.
type Provider interface {
	// List returns metadata for every .conllu file under dir (relative to corpus root).
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to corpus root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to corpus root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to corpus root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to corpus root).
	Move(oldPath, newPath string) error
}
