package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/starford/vefr/internal/apperr"
	"github.com/starford/vefr/internal/checksum"
	"github.com/starford/vefr/internal/delta"
	"github.com/starford/vefr/internal/testutil"
	"github.com/starford/vefr/internal/vault"
)

type deltaRecorder struct {
	mu     sync.Mutex
	deltas []delta.Delta
}

func (r *deltaRecorder) emit(d delta.Delta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, d)
}

func (r *deltaRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deltas)
}

func (r *deltaRecorder) last() delta.Delta {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.deltas) == 0 {
		return nil
	}
	return r.deltas[len(r.deltas)-1]
}

func newTestEngine(t *testing.T, linkRoots int) (*Engine, *vault.Roots, *deltaRecorder) {
	t.Helper()
	roots := testutil.TestRoots(t, linkRoots)
	db := testutil.TestDB(t)
	rec := &deltaRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(roots, db, logger, rec.emit), roots, rec
}

func TestLoadInitialLazyLoadsLinkedFiles(t *testing.T) {
	eng, roots, _ := newTestEngine(t, 1)
	testutil.WriteFile(t, roots.Write.Root(), "a.md", "see [[lib]]\n")
	testutil.WriteFile(t, roots.ReadOnLink[0].Root(), "lib.md", "uses [[dep]]\n")
	testutil.WriteFile(t, roots.ReadOnLink[0].Root(), "dep.md", "leaf\n")
	testutil.WriteFile(t, roots.ReadOnLink[0].Root(), "unrelated.md", "never\n")

	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}

	g := eng.Snapshot()
	for _, id := range []string{"a", "lib", "dep"} {
		if _, ok := g.Node(id); !ok {
			t.Errorf("missing %q in %v", id, g.IDs())
		}
	}
	if _, ok := g.Node("unrelated"); ok {
		t.Error("unreferenced link-root file was loaded")
	}
}

func TestApplyFileRevealsNewTargets(t *testing.T) {
	eng, roots, _ := newTestEngine(t, 1)
	testutil.WriteFile(t, roots.ReadOnLink[0].Root(), "extra.md", "content\n")
	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}
	if eng.IsVisible("extra") {
		t.Fatal("extra visible before any link to it")
	}

	if err := eng.ApplyFile(context.Background(), "b", []byte("link [[extra]]\n")); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if !eng.IsVisible("extra") {
		t.Error("linked file not revealed")
	}

	b, _ := eng.Snapshot().Node("b")
	if len(b.OutgoingEdges) != 1 || b.OutgoingEdges[0].TargetID != "extra" {
		t.Errorf("edges = %+v", b.OutgoingEdges)
	}
}

func TestApplyFileEmitsDeltaOnce(t *testing.T) {
	eng, _, rec := newTestEngine(t, 0)
	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}

	content := "---\nposition:\n  x: 1\n  y: 2\n---\nstable body\n"
	if err := eng.ApplyFile(context.Background(), "a", []byte(content)); err != nil {
		t.Fatal(err)
	}
	emitted := rec.count()

	// Position-only churn normalizes to the same delta and is suppressed.
	moved := "---\nposition:\n  x: 50\n  y: -7\n---\nstable body\n"
	if err := eng.ApplyFile(context.Background(), "a", []byte(moved)); err != nil {
		t.Fatal(err)
	}
	if rec.count() != emitted {
		t.Errorf("position-only change emitted a delta")
	}

	// A real body change goes through.
	if err := eng.ApplyFile(context.Background(), "a", []byte("different body\n")); err != nil {
		t.Fatal(err)
	}
	if rec.count() != emitted+1 {
		t.Errorf("content change not emitted: %d vs %d", rec.count(), emitted+1)
	}
}

func TestApplyFileUnchangedEmitsNothing(t *testing.T) {
	eng, _, rec := newTestEngine(t, 0)
	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := eng.ApplyFile(context.Background(), "a", []byte("body\n")); err != nil {
		t.Fatal(err)
	}
	emitted := rec.count()

	if err := eng.ApplyFile(context.Background(), "a", []byte("body\n")); err != nil {
		t.Fatal(err)
	}
	if rec.count() != emitted {
		t.Error("identical reapply produced a delta")
	}
}

func TestRemoveFile(t *testing.T) {
	eng, _, rec := newTestEngine(t, 0)
	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = eng.ApplyFile(context.Background(), "a", []byte("body\n"))

	if err := eng.RemoveFile(context.Background(), "a"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if eng.IsVisible("a") {
		t.Error("node still visible")
	}
	last := rec.last()
	if len(last) != 1 || last[0].Type != delta.TypeDelete || last[0].NodeID != "a" {
		t.Errorf("last delta = %+v", last)
	}
}

func TestRenamePropagatesLinks(t *testing.T) {
	eng, roots, rec := newTestEngine(t, 0)
	testutil.WriteFile(t, roots.Write.Root(), "a.md", "see [[b]]\n")
	testutil.WriteFile(t, roots.Write.Root(), "b.md", "target\n")
	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := eng.Rename(context.Background(), "b", "c"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	g := eng.Snapshot()
	if _, ok := g.Node("b"); ok {
		t.Error("old id still visible")
	}
	if _, ok := g.Node("c"); !ok {
		t.Error("new id not visible")
	}
	a, _ := g.Node("a")
	if len(a.OutgoingEdges) != 1 || a.OutgoingEdges[0].TargetID != "c" {
		t.Errorf("a edges = %+v", a.OutgoingEdges)
	}

	// On disk: file moved, referrer rewritten.
	if _, err := roots.Write.Read("b.md"); err == nil {
		t.Error("old file still exists")
	}
	if _, err := roots.Write.Read("c.md"); err != nil {
		t.Errorf("new file missing: %v", err)
	}
	data, err := roots.Write.Read("a.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[[c]]") {
		t.Errorf("referrer not rewritten: %q", data)
	}

	last := rec.last()
	if len(last) == 0 || last[len(last)-1].Type != delta.TypeDelete || last[len(last)-1].NodeID != "b" {
		t.Errorf("last delta = %+v", last)
	}
}

func TestRenameErrors(t *testing.T) {
	eng, roots, _ := newTestEngine(t, 0)
	testutil.WriteFile(t, roots.Write.Root(), "a.md", "x\n")
	testutil.WriteFile(t, roots.Write.Root(), "b.md", "y\n")
	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := eng.Rename(context.Background(), "missing", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if err := eng.Rename(context.Background(), "a", "b"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v", err)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	eng, roots, _ := newTestEngine(t, 0)
	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := eng.CreateNode(context.Background(), "n", []byte("v1\n")); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if err := eng.CreateNode(context.Background(), "n", []byte("v1\n")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v", err)
	}

	// Stale checksum is rejected; correct one passes.
	if err := eng.UpdateNode(context.Background(), "n", []byte("v2\n"), "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale update err = %v", err)
	}
	current, _ := roots.Write.Read("n.md")
	if err := eng.UpdateNode(context.Background(), "n", []byte("v2\n"), checksum.Sum(current)); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}

	if err := eng.UpdateNode(context.Background(), "missing", []byte("x"), ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}

	if err := eng.DeleteNode(context.Background(), "n"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if eng.IsVisible("n") {
		t.Error("node still visible after delete")
	}
}

func TestAddLinkRootRevealsReachable(t *testing.T) {
	eng, roots, _ := newTestEngine(t, 0)
	testutil.WriteFile(t, roots.Write.Root(), "a.md", "see [[late]]\n")
	if err := eng.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}
	if eng.IsVisible("late") {
		t.Fatal("target visible without any link root")
	}

	lateRoot := t.TempDir()
	testutil.WriteFile(t, lateRoot, "late.md", "arrived\n")
	testutil.WriteFile(t, lateRoot, "ignored.md", "not linked\n")

	if err := eng.AddLinkRoot(context.Background(), lateRoot); err != nil {
		t.Fatalf("AddLinkRoot: %v", err)
	}
	if !eng.IsVisible("late") {
		t.Error("reachable file not revealed")
	}
	if eng.IsVisible("ignored") {
		t.Error("unreachable file revealed")
	}
}
