package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/vefr/internal/apperr"
	"github.com/starford/vefr/internal/delta"
	"github.com/starford/vefr/internal/parser"
	"github.com/starford/vefr/internal/vault"
)

// Rename moves oldID to newID in the write root and propagates the rename
// through the graph: the node is re-keyed, every referrer's edges are
// retargeted and their body placeholders rewritten, and the updated
// referrer files are persisted. The emitted delta carries the rename
// upserts followed by a delete of the old id.
func (e *Engine) Rename(_ context.Context, oldID, newID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, ok := e.g.Nodes[oldID]
	if !ok {
		return fmt.Errorf("engine: rename %s: %w", oldID, apperr.ErrNotFound)
	}
	if _, taken := e.g.Nodes[newID]; taken {
		return fmt.Errorf("engine: rename to %s: %w", newID, apperr.ErrAlreadyExists)
	}

	d := parser.ComputeRenameDelta(oldID, newID, e.g)
	if err := e.roots.Write.Move(vault.FilePath(oldID), vault.FilePath(newID)); err != nil {
		return err
	}

	next := e.g.WithoutNode(oldID)
	for _, entry := range d {
		if entry.Type == delta.TypeUpsert && entry.Node != nil {
			next = next.WithNode(*entry.Node)
		}
	}
	e.publish(next)

	// Persist rewritten referrer bodies; the renamed file itself was moved
	// with its content intact. Referrers living in read-only link roots are
	// updated in memory only.
	for _, entry := range d[1:] {
		if entry.Node == nil {
			continue
		}
		path := vault.FilePath(entry.Node.ID)
		if _, readErr := e.roots.Write.Read(path); readErr != nil {
			continue
		}
		if err := e.roots.Write.Write(path, parser.Serialize(*entry.Node)); err != nil {
			e.logger.Warn("engine: referrer rewrite failed",
				slog.String("id", entry.Node.ID), slog.String("error", err.Error()))
		}
	}

	d = append(d, delta.Delete(oldID, &old))
	e.journalDelta(d)
	e.emitDelta(d)
	return nil
}
