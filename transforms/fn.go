package transforms

// Args are the positional arguments of a wrapped call.
type Args []any

// KwArgs are the keyword arguments of a wrapped call.
type KwArgs map[string]any

// Fn is the identity wrapper around a base computation. Go functions are not
// comparable, so the *Fn pointer stands in as the computation's identity:
// two WrappedFns compute the same function only if they share the same *Fn.
// The cache subpackage also uses the pointer as its weak eviction target.
type Fn struct {
	name string
	call func(args Args, kw KwArgs) (any, error)
}

// NamedFn wraps a base computation under a stable name.
func NamedFn(name string, call func(args Args, kw KwArgs) (any, error)) *Fn {
	if call == nil {
		panic("NamedFn: nil computation")
	}
	return &Fn{name: name, call: call}
}

// Name returns the computation's name, for debug rendering only.
func (f *Fn) Name() string {
	if f == nil || f.name == "" {
		return "<unnamed fn>"
	}
	return f.name
}

// Invoke calls the base computation directly, without any transformations.
func (f *Fn) Invoke(args Args, kw KwArgs) (any, error) {
	return f.call(args, kw)
}
