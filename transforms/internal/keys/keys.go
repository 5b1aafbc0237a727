// Package keys normalizes arbitrary values into canonical comparable keys
// for identity checks, digests, and memo-table paths.
package keys

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ComparableOrStringer is a value that is either comparable under == or
// implements fmt.Stringer with a string consistent with its equality.
type ComparableOrStringer = any

// ComparableOrString is the canonical form of a ComparableOrStringer.
type ComparableOrString = any

// Canon maps a value to its canonical comparable form: Stringers collapse to
// their string, everything else passes through unchanged.
func Canon(v ComparableOrStringer) ComparableOrString {
	if stringer, ok := v.(fmt.Stringer); ok {
		return stringer.String()
	}
	return v
}

// Equal compares two values by their canonical forms. Non-Stringer values
// must be comparable; passing a non-comparable value is a contract violation
// and panics.
func Equal(a, b ComparableOrStringer) bool {
	return Canon(a) == Canon(b)
}

// EqualSeq compares two key sequences element-wise.
func EqualSeq(a, b []ComparableOrStringer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Digest hashes a key sequence with xxhash. The digest is stable within one
// process run only: pointer-identity components render by address.
func Digest(seq []ComparableOrStringer) uint64 {
	h := xxhash.New()
	for _, k := range seq {
		fmt.Fprintf(h, "%T:%v;", k, Canon(k))
	}
	return h.Sum64()
}
