package transforms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/on-the-ground/transform_ive_go/transforms/internal/keys"
	"github.com/on-the-ground/transform_ive_go/transforms/slot"
)

var (
	ErrSignatureSet = errors.New("input signature already set")
	ErrDebugInfoSet = errors.New("debug info already set")
	ErrSlotCount    = errors.New("slot count mismatch")
)

// Param is one static parameter, passed as a keyword argument to the base
// computation on every call.
type Param struct {
	Name  string
	Value any
}

type entry struct {
	trans  *Transformation
	static Args
}

// WrappedFn represents a base computation together with the ordered stack of
// transformations to be applied to it. It is an immutable value: wrapping,
// annotating, or attaching debug info each produce a new WrappedFn.
//
// WrappedFns compare as equal only if they compute the same function, so they
// can key memoization tables. Equality covers the base computation, the
// entries with their static arguments, the static params, the input
// signature, and the debug info, but never the slots or the observer, which
// are per-call storage, not identity.
type WrappedFn struct {
	fn      *Fn
	entries []entry     // entries[0] is the most recently wrapped
	slots   []slot.Slot // parallel to entries; nil means no aux capture
	params  []Param     // sorted by name
	sig     any         // opaque, pre-validated by its producer
	debug   *DebugInfo
	obs     Observer
}

// WrapInit wraps a base computation with an empty transformation stack.
// Params are captured sorted by name, so two param sets with the same
// key/value pairs yield equal WrappedFns regardless of construction order.
func WrapInit(fn *Fn, params KwArgs) WrappedFn {
	sorted := make([]Param, 0, len(params))
	for name, val := range params {
		sorted = append(sorted, Param{Name: name, Value: val})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return WrappedFn{fn: fn, params: sorted}
}

// wrap prepends one transformation entry and its slot, producing a new stack.
// The signature and debug info do not carry over: they describe the stack
// they were attached to, not the longer one.
func (w WrappedFn) wrap(t *Transformation, static Args, out slot.Slot) WrappedFn {
	entries := make([]entry, 0, len(w.entries)+1)
	entries = append(entries, entry{trans: t, static: static})
	entries = append(entries, w.entries...)
	slots := make([]slot.Slot, 0, len(w.slots)+1)
	slots = append(slots, out)
	slots = append(slots, w.slots...)
	return WrappedFn{fn: w.fn, entries: entries, slots: slots, params: w.params, obs: w.obs}
}

// Fn returns the base computation's identity wrapper.
func (w WrappedFn) Fn() *Fn { return w.fn }

// Annotate attaches the typed input signature. The signature is stored and
// compared, never inspected; its well-formedness is its producer's problem.
// Annotating with nil is a no-op; annotating twice fails.
func (w WrappedFn) Annotate(sig any) (WrappedFn, error) {
	if sig == nil {
		return w, nil
	}
	if w.sig != nil {
		return w, fmt.Errorf("%w: %v", ErrSignatureSet, w.sig)
	}
	w.sig = sig
	return w, nil
}

// Signature returns the attached input signature, or nil.
func (w WrappedFn) Signature() any { return w.sig }

// WithDebugInfo attaches a debug descriptor. Attaching nil is a no-op;
// attaching twice fails.
func (w WrappedFn) WithDebugInfo(info *DebugInfo) (WrappedFn, error) {
	if info == nil {
		return w, nil
	}
	if w.debug != nil {
		return w, fmt.Errorf("%w: %v", ErrDebugInfoSet, w.debug)
	}
	w.debug = info
	return w, nil
}

// Debug returns the attached debug descriptor, or nil.
func (w WrappedFn) Debug() *DebugInfo { return w.debug }

// WithObserver attaches stage hooks for the call protocol. The observer is
// per-call plumbing like the slots: it never participates in equality.
func (w WrappedFn) WithObserver(obs Observer) WrappedFn {
	w.obs = obs
	return w
}

// Slots returns the per-call auxiliary cells, parallel to the entries.
// Positions without aux capture are nil.
func (w WrappedFn) Slots() []slot.Slot { return w.slots }

// PopulateSlots replays recorded auxiliary values into this stack's slots, so
// that aux thunks see a value even though the transformation bodies did not
// actually run. The recorded slots must come from a structurally equal stack.
func (w WrappedFn) PopulateSlots(recorded []slot.Slot) error {
	if len(recorded) != len(w.slots) {
		return fmt.Errorf("%w: have %d, recorded %d", ErrSlotCount, len(w.slots), len(recorded))
	}
	for i, own := range w.slots {
		if own == nil {
			continue
		}
		val, err := recorded[i].Value()
		if err != nil {
			return err
		}
		if err := own.Store(val); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether both stacks compute the same function.
func (w WrappedFn) Equal(other WrappedFn) bool {
	if w.fn != other.fn || len(w.entries) != len(other.entries) || len(w.params) != len(other.params) {
		return false
	}
	for i, e := range w.entries {
		o := other.entries[i]
		if e.trans != o.trans || !keys.EqualSeq(e.static, o.static) {
			return false
		}
	}
	for i, p := range w.params {
		o := other.params[i]
		if p.Name != o.Name || !keys.Equal(p.Value, o.Value) {
			return false
		}
	}
	if (w.sig == nil) != (other.sig == nil) || (w.sig != nil && !keys.Equal(w.sig, other.sig)) {
		return false
	}
	if (w.debug == nil) != (other.debug == nil) || (w.debug != nil && w.debug.String() != other.debug.String()) {
		return false
	}
	return true
}

// CacheKey returns the comparable key components of the stack's identity:
// the entries with their static arguments, the static params, and the input
// signature. Debug info never changes what is computed, so it is excluded;
// the base computation is excluded too, since memo tables are already
// partitioned per Fn.
func (w WrappedFn) CacheKey() []any {
	parts := make([]any, 0, 4+3*len(w.entries)+2*len(w.params))
	parts = append(parts, len(w.entries))
	for _, e := range w.entries {
		parts = append(parts, e.trans, len(e.static))
		for _, s := range e.static {
			parts = append(parts, keys.Canon(s))
		}
	}
	parts = append(parts, len(w.params))
	for _, p := range w.params {
		parts = append(parts, p.Name, keys.Canon(p.Value))
	}
	parts = append(parts, keys.Canon(w.sig))
	return parts
}

// Digest returns an xxhash of the full stack identity, including the base
// computation and debug info. Stable within one process run only.
func (w WrappedFn) Digest() uint64 {
	seq := append([]any{w.fn}, w.CacheKey()...)
	if w.debug != nil {
		seq = append(seq, w.debug.String())
	}
	return keys.Digest(seq)
}

// String renders the stack for debugging, outermost entry first.
func (w WrappedFn) String() string {
	var b strings.Builder
	b.WriteString("Wrapped function:\n")
	for i, e := range w.entries {
		fmt.Fprintf(&b, "%d   : %s   %v\n", i, e.trans.Name(), e.static)
	}
	fmt.Fprintf(&b, "Core: %s\n", w.fn.Name())
	return b.String()
}

// DebugInfo packages up descriptive info about a wrapped computation, read
// only in debug rendering and error messages.
type DebugInfo struct {
	TracedFor string   // e.g. "memoize", "pipeline"
	SrcInfo   string   // e.g. "inc at pipeline.go:42"
	ArgNames  []string // e.g. ("args[0]", ...)
}

func (d *DebugInfo) String() string {
	return fmt.Sprintf("%s(%s)[%s]", d.TracedFor, d.SrcInfo, strings.Join(d.ArgNames, ","))
}
