package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/vefr/internal/apperr"
	"github.com/starford/vefr/internal/checksum"
)

// FS implements Provider backed by one local directory tree. A read-only
// FS serves a link root: listable and readable, never written.
type FS struct {
	root     string // absolute path to the root directory
	readOnly bool
}

// NewFS creates a writable provider rooted at the given directory, which
// must already exist.
func NewFS(root string) (*FS, error) {
	return newFS(root, false)
}

// NewReadOnly creates a read-only provider for a link root.
func NewReadOnly(root string) (*FS, error) {
	return newFS(root, true)
}

func newFS(root string, readOnly bool) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &FS{root: abs, readOnly: readOnly}, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string { return f.root }

// ReadOnly reports whether this root rejects mutations.
func (f *FS) ReadOnly() bool { return f.readOnly }

// safePath resolves a relative path against the root and rejects any
// result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("vault: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("vault: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("vault: path escapes root: %s", rel)
	}
	return abs, nil
}

// List walks dir (relative to the root) and returns metadata for every .md file.
func (f *FS) List(dir string) ([]FileMeta, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []FileMeta
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, FileMeta{
			Path:      filepath.ToSlash(rel),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a file in this root.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	if f.readOnly {
		return fmt.Errorf("vault: write %s: %w", path, apperr.ErrReadOnly)
	}
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vault: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vefr-tmp-*")
	if err != nil {
		return fmt.Errorf("vault: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("vault: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("vault: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("vault: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from a writable root.
func (f *FS) Delete(path string) error {
	if f.readOnly {
		return fmt.Errorf("vault: delete %s: %w", path, apperr.ErrReadOnly)
	}
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("vault: delete %s: %w", path, err)
	}
	return nil
}

// Move renames a file within a writable root.
func (f *FS) Move(oldPath, newPath string) error {
	if f.readOnly {
		return fmt.Errorf("vault: move %s: %w", oldPath, apperr.ErrReadOnly)
	}
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absNew)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vault: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("vault: move: %w", err)
	}
	return nil
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)

// Roots is the configured root set: one writable root plus ordered
// read-only link roots. Root membership is supplied by configuration and
// never inferred.
type Roots struct {
	Write      *FS
	ReadOnLink []*FS
}

// NewRoots builds the root set from configured paths. The write path must
// exist; link roots are opened read-only in the configured order.
func NewRoots(writePath string, readOnLinkPaths []string) (*Roots, error) {
	write, err := NewFS(writePath)
	if err != nil {
		return nil, err
	}
	r := &Roots{Write: write}
	for _, p := range readOnLinkPaths {
		link, err := NewReadOnly(p)
		if err != nil {
			return nil, fmt.Errorf("vault: link root %s: %w", p, err)
		}
		r.ReadOnLink = append(r.ReadOnLink, link)
	}
	return r, nil
}
