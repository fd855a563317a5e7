package parser

import (
	"regexp"
	"strings"

	"github.com/starford/vefr/internal/graph"
	"github.com/starford/vefr/internal/match"
)

var (
	wikilinkRe    = regexp.MustCompile(`\[\[(.*?)\]\]`)
	placeholderRe = regexp.MustCompile(`\[([^\[\]]*)\]\*`)
	listMarkerRe  = regexp.MustCompile(`^[-*+]\s+`)
)

// ExtractEdges scans content for [[wikilink]] occurrences and returns the
// ordered, deduplicated edge list. Link text is resolved against
// candidateIDs via suffix matching; unresolved links keep the raw trimmed
// text as a forward-reference placeholder target. The label of each edge is
// the text from the start of its containing line up to the link, trimmed,
// with one leading list marker stripped.
//
// Pure function: neither content nor candidateIDs is mutated.
func ExtractEdges(content string, candidateIDs []string) []graph.Edge {
	locs := wikilinkRe.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}

	var out []graph.Edge
	seen := make(map[string]struct{}, len(locs))
	for _, loc := range locs {
		raw := content[loc[2]:loc[3]]
		target := linkTarget(raw)
		if target == "" {
			continue
		}
		if resolved, ok := match.Match(target, candidateIDs); ok {
			target = resolved
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, graph.Edge{
			TargetID: target,
			Label:    edgeLabel(content, loc[0]),
		})
	}
	return out
}

// linkTarget trims the link text and drops an [[target|alias]] alias part.
func linkTarget(raw string) string {
	target := raw
	if i := strings.Index(raw, "|"); i >= 0 {
		target = raw[:i]
	}
	return strings.TrimSpace(target)
}

// edgeLabel derives the display label for a link occurrence starting at
// offset: line prefix, trimmed, minus one leading list marker.
func edgeLabel(content string, offset int) string {
	lineStart := strings.LastIndexByte(content[:offset], '\n') + 1
	label := strings.TrimSpace(content[lineStart:offset])
	return listMarkerRe.ReplaceAllString(label, "")
}

// RewritePlaceholders converts [[text]] wikilinks to the in-memory
// placeholder form [text]*, so node content is link-syntax-free.
func RewritePlaceholders(body string) string {
	return wikilinkRe.ReplaceAllString(body, "[$1]*")
}

// RestoreWikilinks is the inverse of RewritePlaceholders: [text]* becomes
// [[text]]. This is the only on-disk form; placeholders are never persisted.
func RestoreWikilinks(content string) string {
	return placeholderRe.ReplaceAllString(content, "[[$1]]")
}

// Placeholders returns the text of every [text]* placeholder in content, in
// order of appearance.
func Placeholders(content string) []string {
	ms := placeholderRe.FindAllStringSubmatch(content, -1)
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m[1])
	}
	return out
}
