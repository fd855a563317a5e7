// Package parser turns raw Markdown files into graph nodes and back:
// frontmatter parsing, wikilink edge extraction, placeholder rewriting,
// and the inverse serialization.
package parser

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/vefr/internal/graph"
)

// Frontmatter keys that map to modeled UI metadata fields. Everything else
// is carried through AdditionalYAML verbatim.
const (
	keyTitle       = "title"
	keyColor       = "color"
	keyPosition    = "position"
	keyContextNode = "isContextNode"
)

// Result holds the output of parsing one Markdown file. Body is the raw
// body text with wikilink syntax intact; edge extraction and placeholder
// rewriting run against it separately.
type Result struct {
	Body string
	UI   graph.UIMetadata
}

// Parse extracts frontmatter and body from raw Markdown bytes. Malformed
// YAML degrades to empty frontmatter rather than failing, so one bad file
// never blocks vault ingestion. filename supplies the title fallback.
func Parse(filename string, data []byte) Result {
	fm, body := splitFrontmatter(data)
	ui := metadataFromFrontmatter(fm)
	if ui.Title == "" {
		ui.Title = deriveTitle(body, filename)
	}
	return Result{Body: body, UI: ui}
}

// BuildNode parses data and assembles the full node record for id: body in
// placeholder form plus edges extracted against the candidate pool.
func BuildNode(id string, data []byte, candidateIDs []string) graph.Node {
	res := Parse(path.Base(id), data)
	return graph.Node{
		ID:            id,
		Content:       RewritePlaceholders(res.Body),
		OutgoingEdges: ExtractEdges(res.Body, candidateIDs),
		UI:            res.UI,
	}
}

// splitFrontmatter separates the YAML frontmatter block (between leading
// --- delimiters) from the Markdown body. Missing or unparseable
// frontmatter yields a nil map and the full content as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// metadataFromFrontmatter pulls the modeled fields out of fm and preserves
// every other key in AdditionalYAML. Non-string values are JSON-encoded so
// round-tripping does not lose typed user data.
func metadataFromFrontmatter(fm map[string]any) graph.UIMetadata {
	var ui graph.UIMetadata
	if fm == nil {
		return ui
	}

	for key, raw := range fm {
		switch key {
		case keyTitle:
			if s, ok := raw.(string); ok {
				ui.Title = s
			}
		case keyColor:
			if s, ok := raw.(string); ok {
				ui.Color = s
			}
		case keyPosition:
			ui.Position = parsePosition(raw)
		case keyContextNode:
			if b, ok := raw.(bool); ok {
				ui.IsContextNode = b
			}
		default:
			if ui.AdditionalYAML == nil {
				ui.AdditionalYAML = make(map[string]string)
			}
			if s, ok := raw.(string); ok {
				ui.AdditionalYAML[key] = s
			} else if encoded, err := json.Marshal(raw); err == nil {
				ui.AdditionalYAML[key] = string(encoded)
			}
		}
	}
	return ui
}

// parsePosition accepts a mapping with numeric x and y fields. Partial or
// malformed position data is silently treated as absent; bad UI metadata
// is not a parse failure.
func parsePosition(raw any) *graph.Position {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	x, okX := toFloat(m["x"])
	y, okY := toFloat(m["y"])
	if !okX || !okY {
		return nil
	}
	return &graph.Position{X: x, Y: y}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// deriveTitle falls back to the first heading or first non-empty line of
// the body, then to the filename stem.
func deriveTitle(body, filename string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimLeft(trimmed, "#")
		return strings.TrimSpace(trimmed)
	}
	return strings.TrimSuffix(path.Base(filename), ".md")
}
