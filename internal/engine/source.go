package engine

import (
	"fmt"

	"github.com/starford/vefr/internal/resolver"
	"github.com/starford/vefr/internal/vault"
)

// rootSource adapts the configured read-only link roots to the resolver's
// candidate-file interface. Candidates are enumerated in configured root
// order so earlier roots win ambiguous matches deterministically.
type rootSource struct {
	roots []*vault.FS
}

func (e *Engine) source() rootSource {
	return rootSource{roots: e.roots.ReadOnLink}
}

func (s rootSource) Candidates() ([]resolver.Candidate, error) {
	var out []resolver.Candidate
	for _, root := range s.roots {
		metas, err := root.List("")
		if err != nil {
			return nil, fmt.Errorf("engine: list link root %s: %w", root.Root(), err)
		}
		for _, m := range metas {
			out = append(out, resolver.Candidate{
				ID:   vault.NodeID(m.Path),
				Root: root.Root(),
				Path: m.Path,
			})
		}
	}
	return out, nil
}

func (s rootSource) Read(c resolver.Candidate) ([]byte, error) {
	for _, root := range s.roots {
		if root.Root() == c.Root {
			return root.Read(c.Path)
		}
	}
	return nil, fmt.Errorf("engine: unknown link root %s", c.Root)
}

// Verify rootSource satisfies resolver.Source at compile time.
var _ resolver.Source = rootSource{}
