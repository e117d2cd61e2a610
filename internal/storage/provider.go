// Package storage is the console's data directory: the persisted session,
// contact exports and the journal database live under one root.
package storage

import "time"

// FileInfo describes a stored file.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Provider is the interface for data directory operations. Paths are
// relative to the root.
type Provider interface {
	// List returns every file under dir whose name ends with ext (any file
	// when ext is empty).
	List(dir, ext string) ([]FileInfo, error)
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path.
	Write(path string, content []byte) error
	Delete(path string) error
	Exists(path string) bool
	// Abs returns the absolute location of path.
	Abs(path string) (string, error)
}
