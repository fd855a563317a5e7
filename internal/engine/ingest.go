package engine

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/starford/vefr/internal/delta"
	"github.com/starford/vefr/internal/graph"
	"github.com/starford/vefr/internal/parser"
	"github.com/starford/vefr/internal/resolver"
	"github.com/starford/vefr/internal/vault"
)

// LoadInitial eagerly loads every file in the write root, resolves all
// pre-existing links into the link roots, publishes the resulting snapshot,
// and reconciles the journal. A file that fails to read or parse is skipped
// with a warning; it never blocks the rest of the vault.
func (e *Engine) LoadInitial(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	metas, err := e.roots.Write.List("")
	if err != nil {
		return fmt.Errorf("engine: list write root: %w", err)
	}

	raw := make(map[string][]byte, len(metas))
	ids := make([]string, 0, len(metas))
	for _, m := range metas {
		data, readErr := e.roots.Write.Read(m.Path)
		if readErr != nil {
			e.logger.Warn("engine: initial read failed",
				slog.String("path", m.Path), slog.String("error", readErr.Error()))
			continue
		}
		id := vault.NodeID(m.Path)
		raw[id] = data
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Two passes: the candidate pool must contain every write-root id
	// before any file's links are resolved.
	g := graph.New()
	for _, id := range ids {
		g.Nodes[id] = parser.BuildNode(id, raw[id], ids)
	}

	resolved, revealed, err := resolver.ResolveReachable(ctx, g, e.source(), e.logger)
	if err != nil {
		return fmt.Errorf("engine: initial resolve: %w", err)
	}
	e.logger.Info("engine: initial load complete",
		slog.Int("write_nodes", len(ids)),
		slog.Int("revealed", len(revealed)))

	e.publish(resolved)
	e.reconcileJournal(resolved)

	d := make(delta.Delta, 0, len(resolved.Nodes))
	for _, id := range resolved.IDs() {
		d = append(d, delta.Upsert(resolved.Nodes[id], nil))
	}
	e.emitDelta(d)
	return nil
}

// ApplyFile ingests one added or changed file: parse, splice into the
// graph, retro-link forward references, chase any newly unresolved links
// into the link roots, and emit the resulting delta. The whole pass runs
// under the writer lock so concurrent events are serialized.
func (e *Engine) ApplyFile(ctx context.Context, id string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.g
	candidates := old.IDs()
	if _, known := old.Nodes[id]; !known {
		candidates = append(candidates, id)
		sort.Strings(candidates)
	}

	node := parser.BuildNode(id, data, candidates)
	work := old.WithNode(node)

	resolved, _, err := resolver.ResolveReachable(ctx, work, e.source(), e.logger)
	if err != nil {
		return fmt.Errorf("engine: resolve after %s: %w", id, err)
	}

	d := diffGraphs(old, resolved, id)
	e.publish(resolved)
	e.journalDelta(d)
	e.emitDelta(d)
	return nil
}

// RemoveFile deletes a node after its file disappeared. Edges pointing at
// the removed id stay on their source nodes as unresolved placeholders so
// the link re-forms if the file comes back.
func (e *Engine) RemoveFile(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, ok := e.g.Nodes[id]
	if !ok {
		return nil
	}
	e.publish(e.g.WithoutNode(id))

	d := delta.Delta{delta.Delete(id, &old)}
	e.journalDelta(d)
	e.emitDelta(d)
	return nil
}

// AddLinkRoot registers a new read-only root at runtime and resolves links
// into it. Only files reachable from the visible graph are revealed; an
// unreferenced root contributes nothing.
func (e *Engine) AddLinkRoot(ctx context.Context, path string) error {
	root, err := vault.NewReadOnly(path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.roots.ReadOnLink = append(e.roots.ReadOnLink, root)

	old := e.g
	resolved, revealed, err := resolver.ResolveReachable(ctx, old, e.source(), e.logger)
	if err != nil {
		return fmt.Errorf("engine: resolve new link root: %w", err)
	}
	e.logger.Info("engine: link root added",
		slog.String("path", path), slog.Int("revealed", len(revealed)))

	d := diffGraphs(old, resolved, "")
	e.publish(resolved)
	e.journalDelta(d)
	e.emitDelta(d)
	return nil
}

// diffGraphs builds the upsert delta between two snapshots. The triggering
// id (if any) is ordered first, remaining changed nodes follow in sorted
// order, each carrying its pre-mutation snapshot.
func diffGraphs(old, next graph.Graph, triggerID string) delta.Delta {
	var changed []string
	for _, id := range next.IDs() {
		if id == triggerID {
			continue
		}
		prev, existed := old.Nodes[id]
		if !existed || !reflect.DeepEqual(prev, next.Nodes[id]) {
			changed = append(changed, id)
		}
	}

	var d delta.Delta
	if n, ok := next.Nodes[triggerID]; triggerID != "" && ok {
		prev, existed := old.Nodes[triggerID]
		if !existed {
			d = append(d, delta.Upsert(n, nil))
		} else if !reflect.DeepEqual(prev, n) {
			d = append(d, delta.Upsert(n, &prev))
		}
	}
	for _, id := range changed {
		var prev *graph.Node
		if p, existed := old.Nodes[id]; existed {
			prev = &p
		}
		d = append(d, delta.Upsert(next.Nodes[id], prev))
	}
	return d
}

// reconcileJournal brings the persisted edge journal in line with a full
// snapshot: stale rows removed, current nodes upserted.
func (e *Engine) reconcileJournal(g graph.Graph) {
	persisted, err := e.store.AllIDs()
	if err != nil {
		e.logger.Warn("engine: journal read failed", slog.String("error", err.Error()))
		return
	}
	for id := range persisted {
		if _, ok := g.Nodes[id]; !ok {
			if delErr := e.store.DeleteNode(id); delErr != nil {
				e.logger.Warn("engine: journal stale delete failed",
					slog.String("id", id), slog.String("error", delErr.Error()))
			}
		}
	}
	for _, id := range g.IDs() {
		if err := e.store.UpsertNode(g.Nodes[id]); err != nil {
			e.logger.Warn("engine: journal upsert failed",
				slog.String("id", id), slog.String("error", err.Error()))
		}
	}
}
