// Package match resolves raw wikilink text to canonical node identifiers
// using longest-suffix path-segment matching.
package match

import (
	"sort"
	"strings"
)

// Normalize strips a trailing .md suffix and leading ./ and ../ prefixes
// from raw link text and converts backslashes to forward slashes.
func Normalize(link string) string {
	s := strings.TrimSpace(link)
	s = strings.ReplaceAll(s, "\\", "/")
	s = strings.TrimSuffix(s, ".md")
	for {
		switch {
		case strings.HasPrefix(s, "./"):
			s = s[2:]
		case strings.HasPrefix(s, "../"):
			s = s[3:]
		default:
			return s
		}
	}
}

// Suffixes returns every segment suffix of a normalized path, longest first:
// "a/b/c" → ["a/b/c", "b/c", "c"]. Empty input yields nil.
func Suffixes(path string) []string {
	if path == "" {
		return nil
	}
	segs := strings.Split(path, "/")
	out := make([]string, 0, len(segs))
	for i := 0; i < len(segs); i++ {
		out = append(out, strings.Join(segs[i:], "/"))
	}
	return out
}

// hasSuffix reports whether id ends with the given segment suffix on a
// segment boundary.
func hasSuffix(id, suffix string) bool {
	if id == suffix {
		return true
	}
	return strings.HasSuffix(id, "/"+suffix)
}

// Match resolves link text against a set of candidate ids.
//
// Each suffix of the link (longest first) is tried in turn: an exact id
// match wins immediately; otherwise any candidate whose own suffix set
// contains the link suffix is considered, preferring the candidate with the
// longest id string. Ties on id length prefer the id with fewer path
// segments, then the lexicographically smaller id. Returns ("", false)
// when no suffix matches anything.
func Match(link string, candidateIDs []string) (string, bool) {
	norm := Normalize(link)
	if norm == "" {
		return "", false
	}

	exact := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		exact[id] = struct{}{}
	}

	for _, suffix := range Suffixes(norm) {
		if _, ok := exact[suffix]; ok {
			return suffix, true
		}
		if best, ok := bestSuffixCandidate(suffix, candidateIDs); ok {
			return best, true
		}
	}
	return "", false
}

// bestSuffixCandidate scans all candidates for ones ending in suffix and
// applies the longest-id, then fewest-segments, then lexicographic rule.
func bestSuffixCandidate(suffix string, candidateIDs []string) (string, bool) {
	var hits []string
	for _, id := range candidateIDs {
		if hasSuffix(Normalize(id), suffix) {
			hits = append(hits, id)
		}
	}
	if len(hits) == 0 {
		return "", false
	}
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		sa, sb := strings.Count(a, "/"), strings.Count(b, "/")
		if sa != sb {
			return sa < sb
		}
		return a < b
	})
	return hits[0], true
}

// LinkMatchScore scores how well link text matches a candidate id:
// 0 means no match, otherwise the number of path segments in the longest
// link suffix that the id ends with (a longer matched suffix scores higher).
func LinkMatchScore(link, id string) int {
	norm := Normalize(link)
	if norm == "" {
		return 0
	}
	normID := Normalize(id)
	suffixes := Suffixes(norm)
	for i, suffix := range suffixes {
		if hasSuffix(normID, suffix) {
			return len(suffixes) - i
		}
	}
	return 0
}
