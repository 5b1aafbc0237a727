package transforms

import (
	"errors"

	"github.com/on-the-ground/transform_ive_go/transforms/slot"
)

var (
	ErrNeitherAux = errors.New("neither aux thunk produced a value")
	ErrBothAux    = errors.New("both aux thunks produced a value")
)

// MergeExclusiveAux reads two aux thunks of which exactly one must have
// produced a value: two alternative computation paths with an exclusive-or
// postcondition on their side results. It returns true with the first
// thunk's value, or false with the second's. Neither or both being populated
// fails with ErrNeitherAux or ErrBothAux; any error other than slot.ErrEmpty
// propagates as-is.
func MergeExclusiveAux(aux1, aux2 AuxThunk) (bool, any, error) {
	out1, err := aux1()
	if err != nil {
		if !errors.Is(err, slot.ErrEmpty) {
			return false, nil, err
		}
		// thunk 1 was not populated, so thunk 2 better be
		out2, err := aux2()
		if err != nil {
			if !errors.Is(err, slot.ErrEmpty) {
				return false, nil, err
			}
			return false, nil, ErrNeitherAux
		}
		return false, out2, nil
	}
	// thunk 1 was populated, so thunk 2 must not be
	if _, err := aux2(); err != nil {
		if !errors.Is(err, slot.ErrEmpty) {
			return false, nil, err
		}
		return true, out1, nil
	}
	return false, nil, ErrBothAux
}
