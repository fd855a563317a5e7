// Package watch feeds file-system events from the vault roots into the
// engine. It is the thin I/O collaborator around the pure graph core: it
// classifies fsnotify events into add/change/delete and lets the engine do
// the rest.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/vefr/internal/checksum"
	"github.com/starford/vefr/internal/engine"
	"github.com/starford/vefr/internal/vault"
)

// reconcileDelay debounces the rename reconciliation pass.
const reconcileDelay = 200 * time.Millisecond

// Watcher drives one vault root. Write-root events always ingest; events
// under a read-only link root only ingest for nodes that are already
// visible (lazy-loading stays in charge of what gets revealed).
type Watcher struct {
	eng       *engine.Engine
	root      *vault.FS
	writeRoot bool
	logger    *slog.Logger

	// checksums tracks the last seen content per root-relative path so
	// reconciliation only re-ingests files that actually changed.
	checksums map[string]string
}

// New creates a watcher for one root.
func New(eng *engine.Engine, root *vault.FS, writeRoot bool, logger *slog.Logger) *Watcher {
	return &Watcher{
		eng:       eng,
		root:      root,
		writeRoot: writeRoot,
		logger:    logger,
		checksums: make(map[string]string),
	}
}

// Run starts an fsnotify watcher on the root and processes change events
// until ctx is cancelled. New directories created at runtime are added to
// the watch list; rename events schedule a debounced reconciliation pass.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addDirsRecursive(fsw, w.root.Root()); err != nil {
		return err
	}
	w.seedChecksums()

	w.logger.Info("watcher: started",
		slog.String("root", w.root.Root()),
		slog.Bool("write_root", w.writeRoot))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			w.logger.Info("watcher: stopped", slog.String("root", w.root.Root()))
			return nil

		case <-reconcileCh:
			w.Reconcile(ctx)

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, ev, scheduleReconcile)

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event, scheduleReconcile func()) {
	absPath := ev.Name

	// New directories are added to the watch list and their contents ingested.
	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(fsw, absPath); addErr != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", absPath), slog.String("error", addErr.Error()))
			}
			w.ingestDir(ctx, absPath)
			return
		}
	}

	if !strings.HasSuffix(absPath, ".md") {
		return
	}
	rel, relErr := filepath.Rel(w.root.Root(), absPath)
	if relErr != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	id := vault.NodeID(rel)

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.ingest(ctx, rel, id)

	case ev.Op&fsnotify.Remove != 0:
		w.remove(ctx, rel, id)

	case ev.Op&fsnotify.Rename != 0:
		// fsnotify fires Rename on the OLD path only; if the new path stays
		// inside a watched dir a separate Create event follows. Drop the old
		// entry now and reconcile shortly after to catch stragglers.
		w.remove(ctx, rel, id)
		scheduleReconcile()
	}
}

// ingest reads and applies one file. Link-root files are only applied when
// the node is already visible; revealing new link-root nodes is the
// resolver's job.
func (w *Watcher) ingest(ctx context.Context, rel, id string) {
	if !w.writeRoot && !w.eng.IsVisible(id) {
		return
	}
	data, err := w.root.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed",
			slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := w.eng.ApplyFile(ctx, id, data); err != nil {
		w.logger.Warn("watcher: apply failed",
			slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.checksums[rel] = checksum.Sum(data)
	w.logger.Debug("watcher: applied", slog.String("id", id))
}

func (w *Watcher) remove(ctx context.Context, rel, id string) {
	delete(w.checksums, rel)
	if !w.writeRoot && !w.eng.IsVisible(id) {
		return
	}
	if err := w.eng.RemoveFile(ctx, id); err != nil {
		w.logger.Warn("watcher: remove failed",
			slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: removed", slog.String("id", id))
}

// Reconcile does a lightweight sync against the root listing: files whose
// checksum changed (or that are new) are re-applied, and tracked files that
// vanished from disk are removed.
func (w *Watcher) Reconcile(ctx context.Context) {
	metas, err := w.root.List("")
	if err != nil {
		w.logger.Warn("watcher: reconcile list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for rel := range w.checksums {
		if _, ok := disk[rel]; !ok {
			w.remove(ctx, rel, vault.NodeID(rel))
		}
	}

	for rel, cs := range disk {
		if w.checksums[rel] == cs {
			continue
		}
		w.ingest(ctx, rel, vault.NodeID(rel))
	}
}

// ingestDir applies any .md files found in a newly created directory.
func (w *Watcher) ingestDir(ctx context.Context, dirPath string) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(w.root.Root(), path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		w.ingest(ctx, rel, vault.NodeID(rel))
		return nil
	})
}

// seedChecksums primes the reconciliation state from the current listing
// so the first reconcile pass does not re-ingest the whole root.
func (w *Watcher) seedChecksums() {
	metas, err := w.root.List("")
	if err != nil {
		return
	}
	for _, m := range metas {
		w.checksums[m.Path] = m.Checksum
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
