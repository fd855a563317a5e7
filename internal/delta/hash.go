package delta

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/starford/vefr/internal/checksum"
)

// Hash returns the SHA-256 digest of the normalized, positionally
// serialized delta. Two deltas that normalize to structurally identical
// sequences hash identically; entry order is significant.
func Hash(d Delta) string {
	payload, err := json.Marshal(Normalize(d))
	if err != nil {
		// Delta entries are plain data; marshal cannot realistically fail.
		return checksum.Sum([]byte(fmt.Sprintf("%#v", d)))
	}
	return checksum.Sum(payload)
}

// Difference is one structural divergence between two normalized deltas.
type Difference struct {
	Path string `json:"path"`
	A    any    `json:"a"`
	B    any    `json:"b"`
}

// CompareResult reports whether two deltas normalize identically and, if
// not, where they diverge.
type CompareResult struct {
	Matching    bool         `json:"matching"`
	Differences []Difference `json:"differences,omitempty"`
}

// Compare performs a structural diff on the normalized forms of a and b.
// Intended for diagnostics when two supposedly equivalent deltas hash
// differently.
func Compare(a, b Delta) CompareResult {
	var diffs []Difference
	diffValues(asJSON(Normalize(a)), asJSON(Normalize(b)), "$", &diffs)
	return CompareResult{Matching: len(diffs) == 0, Differences: diffs}
}

// asJSON round-trips a value through encoding/json so the diff walks plain
// maps, slices, and primitives.
func asJSON(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func diffValues(a, b any, path string, diffs *[]Difference) {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			*diffs = append(*diffs, Difference{Path: path, A: a, B: b})
			return
		}
		keys := make(map[string]struct{}, len(av)+len(bv))
		for k := range av {
			keys[k] = struct{}{}
		}
		for k := range bv {
			keys[k] = struct{}{}
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)
		for _, k := range sorted {
			diffValues(av[k], bv[k], joinPath(path, ".", k), diffs)
		}
	case []any:
		bv, ok := b.([]any)
		if !ok {
			*diffs = append(*diffs, Difference{Path: path, A: a, B: b})
			return
		}
		n := len(av)
		if len(bv) > n {
			n = len(bv)
		}
		for i := 0; i < n; i++ {
			var ai, bi any
			if i < len(av) {
				ai = av[i]
			}
			if i < len(bv) {
				bi = bv[i]
			}
			diffValues(ai, bi, joinPath(path, fmt.Sprintf("[%d]", i)), diffs)
		}
	default:
		if !jsonEqual(a, b) {
			*diffs = append(*diffs, Difference{Path: path, A: a, B: b})
		}
	}
}

func jsonEqual(a, b any) bool {
	ra, _ := json.Marshal(a)
	rb, _ := json.Marshal(b)
	return string(ra) == string(rb)
}
