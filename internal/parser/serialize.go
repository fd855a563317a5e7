package parser

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/vefr/internal/graph"
	"github.com/starford/vefr/internal/match"
)

// Serialize reconstructs the on-disk Markdown for a node: modeled UI
// metadata merged back into frontmatter (UI metadata wins over stale
// same-named passthrough fields), placeholders restored to [[wikilink]]
// form, and a trailing [[target]] line appended for any outgoing edge whose
// target is not already referenced in the body. Appending only unreferenced
// targets keeps repeated saves from duplicating link lines.
func Serialize(n graph.Node) []byte {
	var b strings.Builder

	if fm := frontmatterMap(n.UI); len(fm) > 0 {
		block, err := yaml.Marshal(fm)
		if err == nil {
			b.WriteString("---\n")
			b.Write(block)
			b.WriteString("---\n")
		}
	}

	body := RestoreWikilinks(n.Content)
	b.WriteString(body)

	missing := unreferencedTargets(n)
	if len(missing) > 0 {
		if body != "" && !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
		for _, target := range missing {
			b.WriteString("[[" + target + "]]\n")
		}
	}
	return []byte(b.String())
}

// frontmatterMap rebuilds the frontmatter mapping: passthrough YAML
// properties first (JSON-encoded values decoded back to their typed form),
// then the modeled fields layered on top.
func frontmatterMap(ui graph.UIMetadata) map[string]any {
	fm := make(map[string]any, len(ui.AdditionalYAML)+4)
	for key, raw := range ui.AdditionalYAML {
		fm[key] = decodeYAMLProp(raw)
	}
	if ui.Title != "" {
		fm[keyTitle] = ui.Title
	}
	if ui.Color != "" {
		fm[keyColor] = ui.Color
	}
	if ui.Position != nil {
		fm[keyPosition] = map[string]any{"x": ui.Position.X, "y": ui.Position.Y}
	}
	if ui.IsContextNode {
		fm[keyContextNode] = true
	}
	return fm
}

// decodeYAMLProp undoes the JSON encoding applied by the parser for
// non-string frontmatter values. Plain strings stay strings.
func decodeYAMLProp(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	switch trimmed[0] {
	case '{', '[', '"', 't', 'f', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return raw
}

// unreferencedTargets returns the targets of outgoing edges that no body
// placeholder already points at, in edge order.
func unreferencedTargets(n graph.Node) []string {
	placeholders := Placeholders(n.Content)
	var out []string
	for _, e := range n.OutgoingEdges {
		if referenced(e.TargetID, placeholders) {
			continue
		}
		out = append(out, e.TargetID)
	}
	return out
}

func referenced(targetID string, placeholders []string) bool {
	for _, p := range placeholders {
		text := linkTarget(p)
		if text == targetID || match.LinkMatchScore(text, targetID) > 0 {
			return true
		}
	}
	return false
}
