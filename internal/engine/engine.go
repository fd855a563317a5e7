// Package engine owns the published graph snapshot and coordinates
// ingestion, lazy-load resolution, rename propagation, and delta emission.
//
// Concurrency model: a single mutex serializes every mutating pass, so a
// resolution triggered by one file event always runs to fixpoint against a
// consistent visible-set snapshot before the next one starts. Readers take
// the current Graph value and work on it lock-free, since Graph values are
// never mutated in place.
package engine

import (
	"log/slog"
	"sync"

	"github.com/starford/vefr/internal/delta"
	"github.com/starford/vefr/internal/graph"
	"github.com/starford/vefr/internal/journal"
	"github.com/starford/vefr/internal/vault"
)

// EmitFunc receives every non-duplicate delta produced by the engine.
type EmitFunc func(delta.Delta)

// Engine is the single writer of the visible graph.
type Engine struct {
	mu     sync.RWMutex
	g      graph.Graph
	roots  *vault.Roots
	store  journal.Store
	logger *slog.Logger
	emit   EmitFunc
}

// New creates an engine over the configured roots and journal. emit may be
// nil when no delta consumer is attached.
func New(roots *vault.Roots, store journal.Store, logger *slog.Logger, emit EmitFunc) *Engine {
	if emit == nil {
		emit = func(delta.Delta) {}
	}
	return &Engine{
		g:      graph.New(),
		roots:  roots,
		store:  store,
		logger: logger,
		emit:   emit,
	}
}

// Snapshot returns the current immutable graph value.
func (e *Engine) Snapshot() graph.Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g
}

// IsVisible reports whether id is currently materialized in the graph.
func (e *Engine) IsVisible(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.g.Nodes[id]
	return ok
}

// Roots returns the configured vault root set.
func (e *Engine) Roots() *vault.Roots {
	return e.roots
}

// Neighborhood extracts the weighted distance-bounded subgraph around id
// from the current snapshot. Pure read; safe under concurrent ingestion.
func (e *Engine) Neighborhood(id string, maxDistance float64) graph.Graph {
	return graph.SubgraphByDistance(e.Snapshot(), id, maxDistance)
}

// publish swaps in the new snapshot. Callers must hold mu.
func (e *Engine) publish(g graph.Graph) {
	e.g = g
}

// emitDelta hashes d and forwards it to the consumer unless the identical
// normalized delta has been emitted before.
func (e *Engine) emitDelta(d delta.Delta) {
	if len(d) == 0 {
		return
	}
	hash := delta.Hash(d)
	seen, err := e.store.MarkDelta(hash)
	if err != nil {
		e.logger.Warn("engine: delta dedup failed", slog.String("error", err.Error()))
	} else if seen {
		e.logger.Debug("engine: duplicate delta suppressed", slog.String("hash", hash))
		return
	}
	e.emit(d)
}

// journalDelta persists the edge-set consequences of d.
func (e *Engine) journalDelta(d delta.Delta) {
	for _, entry := range d {
		switch entry.Type {
		case delta.TypeUpsert:
			if entry.Node == nil {
				continue
			}
			if err := e.store.UpsertNode(*entry.Node); err != nil {
				e.logger.Warn("engine: journal upsert failed",
					slog.String("id", entry.NodeID), slog.String("error", err.Error()))
			}
		case delta.TypeDelete:
			if err := e.store.DeleteNode(entry.NodeID); err != nil {
				e.logger.Warn("engine: journal delete failed",
					slog.String("id", entry.NodeID), slog.String("error", err.Error()))
			}
		}
	}
}
