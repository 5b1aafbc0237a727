package pure

// MapLeaves applies fn to every leaf of a nested structure of []any slices
// and map[string]any maps, preserving the structure. Anything else is a
// leaf. The input is never mutated; containers are rebuilt.
//
// Callers of the memoization layer use it to sanitize argument trees into
// comparable key material before they reach a cache key.
func MapLeaves(fn func(leaf any) any, tree any) any {
	switch node := tree.(type) {
	case []any:
		out := make([]any, len(node))
		for i, v := range node {
			out[i] = MapLeaves(fn, v)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, v := range node {
			out[k] = MapLeaves(fn, v)
		}
		return out
	default:
		return fn(node)
	}
}

// Leaves collects the leaves of a nested structure in deterministic
// traversal order for slices; map iteration order is not specified.
func Leaves(tree any) []any {
	var out []any
	MapLeaves(func(leaf any) any {
		out = append(out, leaf)
		return leaf
	}, tree)
	return out
}
