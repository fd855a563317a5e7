package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/starford/vefr/internal/apperr"
	"github.com/starford/vefr/internal/checksum"
	"github.com/starford/vefr/internal/vault"
)

// CreateNode writes a new file into the write root and ingests it.
func (e *Engine) CreateNode(ctx context.Context, id string, content []byte) error {
	path := vault.FilePath(id)
	if _, err := e.roots.Write.Read(path); err == nil {
		return fmt.Errorf("engine: create %s: %w", id, apperr.ErrAlreadyExists)
	}
	if err := e.roots.Write.Write(path, content); err != nil {
		return err
	}
	return e.ApplyFile(ctx, id, content)
}

// UpdateNode overwrites a file with optimistic concurrency: when ifMatch is
// non-empty it must equal the checksum of the current on-disk content.
func (e *Engine) UpdateNode(ctx context.Context, id string, content []byte, ifMatch string) error {
	path := vault.FilePath(id)
	existing, err := e.roots.Write.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Visible but absent from the write root means the node came
			// from a link root and cannot be modified.
			if _, ok := e.Snapshot().Node(id); ok {
				return fmt.Errorf("engine: update %s: %w", id, apperr.ErrReadOnly)
			}
			return fmt.Errorf("engine: update %s: %w", id, apperr.ErrNotFound)
		}
		return err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return fmt.Errorf("engine: update %s: %w", id, apperr.ErrConflict)
	}
	if err := e.roots.Write.Write(path, content); err != nil {
		return err
	}
	return e.ApplyFile(ctx, id, content)
}

// DeleteNode removes a file from the write root and the graph.
func (e *Engine) DeleteNode(ctx context.Context, id string) error {
	if err := e.roots.Write.Delete(vault.FilePath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if _, ok := e.Snapshot().Node(id); ok {
				return fmt.Errorf("engine: delete %s: %w", id, apperr.ErrReadOnly)
			}
			return fmt.Errorf("engine: delete %s: %w", id, apperr.ErrNotFound)
		}
		return err
	}
	return e.RemoveFile(ctx, id)
}
