// Package storage defines the screenshot library file-system abstraction.
package storage

import "time"

// File describes a stored library file.
type File struct {
	Path     string
	Checksum string
	ModTime  time.Time
}

// Provider is the interface for library file operations.
type Provider interface {
	// List returns metadata for every supported image under dir (relative to library root).
	List(dir string) ([]File, error)
	// Read returns the raw bytes of the file at path (relative to library root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to library root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to library root).
	Delete(path string) error
}
