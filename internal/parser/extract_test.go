package parser

import (
	"reflect"
	"testing"

	"github.com/starford/vefr/internal/graph"
)

func TestExtractEdgesResolvesAndDedups(t *testing.T) {
	content := "See [[go]].\nAlso [[topics/go]] again.\nAnd [[unknown]].\n"
	edges := ExtractEdges(content, []string{"topics/go"})

	want := []graph.Edge{
		{TargetID: "topics/go", Label: "See"},
		{TargetID: "unknown", Label: "And"},
	}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("edges = %+v, want %+v", edges, want)
	}
}

func TestExtractEdgesLabels(t *testing.T) {
	content := "- depends on [[x]]\n* see [[y]]\nplain prefix [[z]]\n[[w]]\n"
	edges := ExtractEdges(content, nil)

	want := []graph.Edge{
		{TargetID: "x", Label: "depends on"},
		{TargetID: "y", Label: "see"},
		{TargetID: "z", Label: "plain prefix"},
		{TargetID: "w", Label: ""},
	}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("edges = %+v, want %+v", edges, want)
	}
}

func TestExtractEdgesStripsOneListMarker(t *testing.T) {
	edges := ExtractEdges("- - nested [[x]]\n", nil)
	if len(edges) != 1 || edges[0].Label != "- nested" {
		t.Errorf("edges = %+v", edges)
	}
}

func TestExtractEdgesAlias(t *testing.T) {
	edges := ExtractEdges("read [[topics/go|the Go note]]\n", []string{"topics/go"})
	if len(edges) != 1 || edges[0].TargetID != "topics/go" {
		t.Errorf("edges = %+v", edges)
	}
}

func TestExtractEdgesEmptyLinkSkipped(t *testing.T) {
	if edges := ExtractEdges("empty [[]] link\n", nil); edges != nil {
		t.Errorf("edges = %+v, want nil", edges)
	}
	if edges := ExtractEdges("no links at all\n", nil); edges != nil {
		t.Errorf("edges = %+v, want nil", edges)
	}
}

func TestRewriteAndRestoreRoundTrip(t *testing.T) {
	body := "See [[a]] and [[b|alias]]."
	rewritten := RewritePlaceholders(body)
	if rewritten != "See [a]* and [b|alias]*." {
		t.Errorf("rewritten = %q", rewritten)
	}
	if restored := RestoreWikilinks(rewritten); restored != body {
		t.Errorf("restored = %q, want %q", restored, body)
	}
}

func TestRestoreLeavesPlainLinksAlone(t *testing.T) {
	content := "A [markdown](http://example.com) link and [text] brackets."
	if got := RestoreWikilinks(content); got != content {
		t.Errorf("got %q", got)
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("x [a]* y [b]* z")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Placeholders = %v, want %v", got, want)
	}
}
