package mcpserver

// NodeFormatContract describes the canonical Markdown node format that
// LLM consumers should follow when creating or updating nodes.
const NodeFormatContract = `# Vefr Node Format Contract

Every Markdown node stored in Vefr SHOULD follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – derived from the first heading if absent
color: "#4a90d9"                   # OPTIONAL – display color for the graph view
position:                          # OPTIONAL – saved layout position; requires BOTH x and y
  x: 120
  y: -40
isContextNode: false               # OPTIONAL – context nodes are bridged out of graph views
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other nodes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **Frontmatter is optional.** When present, the ` + "`---`" + ` fences must be the
   first thing in the file (no leading blank lines). A node without
   frontmatter is still valid; its title derives from the first heading.
2. **Node ids** are root-relative paths without the ` + "`.md`" + ` extension, using
   forward slashes (e.g. ` + "`topics/go`" + `).
3. **Wikilinks** use double brackets: ` + "`[[other-node]]`" + `. The target may be
   a full id or any trailing segment suffix of one; the longest matching id
   wins. Links that match no node stay as unresolved placeholders until a
   matching file appears in a linked root.
4. **Link labels** come from the text on the same line before the link, with
   a single leading list marker stripped (e.g. ` + "`- depends on [[x]]`" + `
   labels the edge "depends on").
5. **position** requires both numeric ` + "`x`" + ` and ` + "`y`" + `; a partial position is
   dropped. Position changes never produce graph deltas.
6. **Context nodes** (` + "`isContextNode: true`" + `) are organizational. Graph
   views bridge links through them, so do not rely on them as endpoints.
7. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
title: Go concurrency
color: "#4a90d9"
---

# Go concurrency

Goroutines are scheduled by the [[runtime]].

## Related

- builds on [[topics/go]]
- compare with [[threads|OS threads]]
` + "```" + `
`
