package cache

import (
	"github.com/on-the-ground/transform_ive_go/transforms"
	"github.com/on-the-ground/transform_ive_go/transforms/internal/keys"
)

// keyPath assembles the memo-table key path for one call: the stack's
// identity components, the extra arguments, the runtime-flags key, and the
// epoch. Length markers keep adjacent variable-length sections unambiguous.
func keyPath(fun transforms.WrappedFn, extra []any, flags, ep any) []any {
	parts := fun.CacheKey()
	parts = append(parts, len(extra))
	for _, a := range extra {
		parts = append(parts, keys.Canon(a))
	}
	parts = append(parts, keys.Canon(flags), keys.Canon(ep))
	return parts
}
