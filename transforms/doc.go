// Package transforms provides a minimal and idiomatic transformation stack for Go.
//
// Transform-ive Go lets a base computation be wrapped by an ordered stack of
// composable transformations, stages that rewrite the arguments on the way in
// and the result on the way out, while the whole wrapped computation stays
// usable as a memoization key.
//
// # What is a transformation?
//
// A transformation is a two-phase rewrite stage:
//   - its first half receives the call's arguments and may rewrite them,
//   - its second half receives the inner result and may rewrite it,
//   - optionally, the second half emits one auxiliary value through a
//     single-assignment slot, readable by the caller of the whole stack.
//
// In Go the two halves are an explicit split: the first half returns a
// Suspension whose Resume closure carries the continuation state to the
// second half, and whose Cancel closure releases anything the first half
// acquired if the call fails before Resume runs.
//
// # How does it work?
//
// A WrappedFn pairs a base computation with the stack of transformations
// applied to it. Each Apply produces a new, immutable WrappedFn:
//
//	fn := transforms.NamedFn("inc", func(args transforms.Args, kw transforms.KwArgs) (any, error) {
//	    return args[0].(int) + 1, nil
//	})
//
//	fun := transforms.WrapInit(fn, nil)
//	fun = doubleArgs.Apply(fun)
//	fun, auxFn := negateResult.ApplyAux(fun)
//
//	res, err := fun.CallWrapped(transforms.Args{3}, nil)
//	// Now auxFn() is the auxiliary output.
//
// The arguments are rewritten first by the last applied transformation; the
// result is rewritten first by the first applied one, unwinding the stack
// like nested function calls.
//
// WrappedFn values compare as equal only if they compute the same function,
// so they can key memoization tables: see the cache subpackage. Static
// arguments, static params, and auxiliary values must be immutable and either
// comparable or fmt.Stringer, because they end up in those tables.
//
// # Design Philosophy
//
// Transform-ive Go embraces:
//   - Explicit two-phase control flow (no hidden rewriting)
//   - Deterministic cleanup when any stage fails
//   - Structural identity over ad-hoc registration
//
// This package exports the transformation stack and its call protocol; the
// slot, cache, epoch, and log subpackages carry the supporting pieces.
package transforms
