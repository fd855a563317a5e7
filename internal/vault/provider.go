// Package vault implements the multi-root markdown file store: one
// writable root plus zero or more read-only link roots whose files are
// only materialized when reachable via links.
package vault

import (
	"path"
	"strings"
	"time"
)

// FileMeta is lightweight metadata for one markdown file in a root.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for root file operations. Read-only roots
// return apperr.ErrReadOnly from the mutating methods.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the root).
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the root).
	Move(oldPath, newPath string) error
}

// NodeID converts a root-relative file path to its node id: forward
// slashes, no .md extension.
func NodeID(relPath string) string {
	id := strings.ReplaceAll(relPath, "\\", "/")
	return strings.TrimSuffix(id, ".md")
}

// FilePath converts a node id back to its root-relative markdown path.
func FilePath(id string) string {
	return id + ".md"
}

// Basename returns the last path segment of a node id.
func Basename(id string) string {
	return path.Base(id)
}
