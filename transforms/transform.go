package transforms

import (
	"github.com/on-the-ground/transform_ive_go/transforms/slot"
)

// Gen is the first half of a transformation. It receives the static arguments
// bound at wrap time plus the current call arguments, rewrites them, and
// returns the Suspension carrying the second half. Returning an error aborts
// the call before this stage suspends; the stage must release anything it
// acquired before returning such an error.
type Gen func(static Args, args Args, kw KwArgs) (Args, KwArgs, Suspension, error)

// Suspension is the paused second half of a transformation, held on the
// execution stack between the argument rewrite and the result rewrite.
// It is resumed exactly once, strictly within the call that created it.
type Suspension struct {
	// Resume rewrites the inner result. For stages wrapped with ApplyAux or
	// ApplyEqAux it must return a Resumed with HasAux set.
	Resume func(result any) (Resumed, error)
	// Cancel releases anything the first half acquired. It is invoked only
	// when the call fails before this suspension is resumed. May be nil.
	Cancel func()
}

// Resumed is the outcome of a resumed transformation stage.
type Resumed struct {
	Result any
	Aux    any
	HasAux bool
}

// ResumedValue wraps a bare rewritten result.
func ResumedValue(result any) Resumed {
	return Resumed{Result: result}
}

// ResumedWithAux wraps a rewritten result together with an auxiliary value
// destined for the stage's slot.
func ResumedWithAux(result, aux any) Resumed {
	return Resumed{Result: result, Aux: aux, HasAux: true}
}

// Transformation is a named, reusable two-phase rewrite stage. Define one
// once (typically as a package-level var) and apply it to any number of
// WrappedFns: the *Transformation pointer is the stage's identity, so two
// stack entries are equal only if they share the same Transformation and
// equal static arguments.
type Transformation struct {
	name string
	gen  Gen
}

// NewTransformation builds a transformation from its first-half Gen.
func NewTransformation(name string, gen Gen) *Transformation {
	if gen == nil {
		panic("NewTransformation: nil gen")
	}
	return &Transformation{name: name, gen: gen}
}

// Name returns the transformation's name, for debug rendering only.
func (t *Transformation) Name() string { return t.name }

// Apply wraps fun with this transformation and the given static arguments.
// The new stage is the outermost for argument rewriting and the innermost
// for result rewriting.
func (t *Transformation) Apply(fun WrappedFn, static ...any) WrappedFn {
	return fun.wrap(t, Args(static), nil)
}

// AuxThunk reads a stage's auxiliary value after the stack has been called.
// It fails with slot.ErrEmpty until the value has been produced.
type AuxThunk func() (any, error)

// ApplyAux wraps fun like Apply and additionally captures the stage's
// auxiliary output. The returned thunk is how the stage publishes its side
// result to the caller of the whole stack.
func (t *Transformation) ApplyAux(fun WrappedFn, static ...any) (WrappedFn, AuxThunk) {
	out := slot.New()
	return fun.wrap(t, Args(static), out), out.Value
}

// ApplyEqAux is ApplyAux with an equality-tolerant slot: replaying a
// structurally equal auxiliary value (e.g. on a memoization hit against an
// already-populated stack) succeeds as a no-op.
func (t *Transformation) ApplyEqAux(fun WrappedFn, static ...any) (WrappedFn, AuxThunk) {
	out := slot.NewEqual()
	return fun.wrap(t, Args(static), out), out.Value
}

// Partial binds extra positional arguments statically, so a partially
// applied computation stays usable as a memoization key. The bound arguments
// are prepended to the call's positional arguments; keyword arguments are
// dropped and the result passes through unchanged.
var Partial = NewTransformation("partial", func(static Args, args Args, kw KwArgs) (Args, KwArgs, Suspension, error) {
	bound := make(Args, 0, len(static)+len(args))
	bound = append(bound, static...)
	bound = append(bound, args...)
	return bound, KwArgs{}, Suspension{Resume: func(result any) (Resumed, error) {
		return ResumedValue(result), nil
	}}, nil
})
