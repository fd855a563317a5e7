package match

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"note", "note"},
		{"note.md", "note"},
		{" topics/go.md ", "topics/go"},
		{"./topics/go", "topics/go"},
		{"../../topics/go.md", "topics/go"},
		{`topics\go`, "topics/go"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSuffixes(t *testing.T) {
	got := Suffixes("a/b/c")
	want := []string{"a/b/c", "b/c", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suffixes = %v, want %v", got, want)
	}
	if Suffixes("") != nil {
		t.Error("Suffixes(\"\") should be nil")
	}
}

func TestMatchExactWins(t *testing.T) {
	ids := []string{"go", "topics/go"}
	got, ok := Match("topics/go", ids)
	if !ok || got != "topics/go" {
		t.Fatalf("Match = %q, %v", got, ok)
	}
}

func TestMatchSuffix(t *testing.T) {
	ids := []string{"topics/go", "topics/rust"}
	got, ok := Match("go", ids)
	if !ok || got != "topics/go" {
		t.Fatalf("Match = %q, %v", got, ok)
	}
}

func TestMatchLongestSuffixFirst(t *testing.T) {
	// The link "deep/go" should prefer an id ending in "deep/go" over one
	// merely ending in "go".
	ids := []string{"vault/go", "archive/deep/go"}
	got, ok := Match("deep/go", ids)
	if !ok || got != "archive/deep/go" {
		t.Fatalf("Match = %q, %v", got, ok)
	}
}

func TestMatchPrefersLongerID(t *testing.T) {
	ids := []string{"a/note", "a/deeper/note"}
	got, ok := Match("note", ids)
	if !ok || got != "a/deeper/note" {
		t.Fatalf("Match = %q, %v", got, ok)
	}
}

func TestMatchTieBreaks(t *testing.T) {
	// Same id length: fewer segments wins.
	got, ok := Match("note", []string{"ab/cd/note", "abcde/note"})
	if !ok || got != "abcde/note" {
		t.Fatalf("Match = %q, %v", got, ok)
	}
	// Same length and segment count: lexicographic.
	got, ok = Match("note", []string{"b/note", "a/note"})
	if !ok || got != "a/note" {
		t.Fatalf("Match = %q, %v", got, ok)
	}
}

func TestMatchNoCandidate(t *testing.T) {
	if _, ok := Match("missing", []string{"topics/go"}); ok {
		t.Error("expected no match")
	}
	if _, ok := Match("", []string{"topics/go"}); ok {
		t.Error("expected no match for empty link")
	}
}

func TestMatchNormalizesLink(t *testing.T) {
	got, ok := Match("./go.md", []string{"topics/go"})
	if !ok || got != "topics/go" {
		t.Fatalf("Match = %q, %v", got, ok)
	}
}

func TestLinkMatchScore(t *testing.T) {
	cases := []struct {
		link, id string
		want     int
	}{
		{"topics/go", "topics/go", 2},
		{"go", "topics/go", 1},
		{"topics/go", "archive/topics/go", 2},
		{"a/b", "b", 1},
		{"missing", "topics/go", 0},
		{"", "topics/go", 0},
	}
	for _, c := range cases {
		if got := LinkMatchScore(c.link, c.id); got != c.want {
			t.Errorf("LinkMatchScore(%q, %q) = %d, want %d", c.link, c.id, got, c.want)
		}
	}
}
