package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/vefr/internal/engine"
	"github.com/starford/vefr/internal/testutil"
	"github.com/starford/vefr/internal/vault"
)

func watcherTestEnv(t *testing.T) (*engine.Engine, *vault.Roots) {
	t.Helper()
	roots := testutil.TestRoots(t, 1)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	eng := engine.New(roots, db, logger, nil)
	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}
	return eng, roots
}

func startWatcher(t *testing.T, eng *engine.Engine, root *vault.FS, writeRoot bool) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = New(eng, root, writeRoot, logger).Run(ctx)
	}()
	// Give fsnotify time to register the root dirs.
	time.Sleep(100 * time.Millisecond)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileIngested(t *testing.T) {
	eng, roots := watcherTestEnv(t)
	startWatcher(t, eng, roots.Write, true)

	_ = os.WriteFile(filepath.Join(roots.Write.Root(), "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return eng.IsVisible("new")
	}, "new file not ingested by watcher")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	eng, roots := watcherTestEnv(t)
	startWatcher(t, eng, roots.Write, true)

	subDir := filepath.Join(roots.Write.Root(), "subdir")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(200 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return eng.IsVisible("subdir/deep")
	}, "file in new subdir not ingested by watcher")
}

func TestWatcher_DeleteRemovesNode(t *testing.T) {
	eng, roots := watcherTestEnv(t)

	path := filepath.Join(roots.Write.Root(), "del.md")
	_ = os.WriteFile(path, []byte("# Delete Me"), 0o644)
	if err := eng.ApplyFile(context.Background(), "del", []byte("# Delete Me")); err != nil {
		t.Fatal(err)
	}
	if !eng.IsVisible("del") {
		t.Fatal("precondition: node should be visible")
	}

	startWatcher(t, eng, roots.Write, true)

	_ = os.Remove(path)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !eng.IsVisible("del")
	}, "deleted file still visible")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	eng, roots := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(roots.Write.Root(), "old.md"), []byte("# Rename"), 0o644)
	if err := eng.ApplyFile(context.Background(), "old", []byte("# Rename")); err != nil {
		t.Fatal(err)
	}

	startWatcher(t, eng, roots.Write, true)

	_ = os.Rename(
		filepath.Join(roots.Write.Root(), "old.md"),
		filepath.Join(roots.Write.Root(), "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !eng.IsVisible("old") && eng.IsVisible("renamed")
	}, "rename reconciliation failed: old node should vanish and new node appear")
}

func TestWatcher_LinkRootOnlyUpdatesVisibleNodes(t *testing.T) {
	eng, roots := watcherTestEnv(t)
	linkRoot := roots.ReadOnLink[0]

	// A file appearing in a link root must not become visible on its own.
	startWatcher(t, eng, linkRoot, false)

	_ = os.WriteFile(filepath.Join(linkRoot.Root(), "hidden.md"), []byte("# Hidden"), 0o644)
	time.Sleep(500 * time.Millisecond)
	if eng.IsVisible("hidden") {
		t.Fatal("unreferenced link-root file should stay invisible")
	}

	// Once revealed through a link, changes to the file are applied.
	testutil.WriteFile(t, linkRoot.Root(), "shared.md", "# Shared")
	if err := eng.ApplyFile(context.Background(), "entry", []byte("see [[shared]]")); err != nil {
		t.Fatal(err)
	}
	if !eng.IsVisible("shared") {
		t.Fatal("precondition: shared should be revealed")
	}

	testutil.WriteFile(t, linkRoot.Root(), "shared.md", "# Shared v2")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		n, ok := eng.Snapshot().Node("shared")
		return ok && n.UI.Title == "Shared v2"
	}, "visible link-root node not updated by watcher")
}
