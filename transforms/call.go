package transforms

import (
	"errors"
	"fmt"

	"github.com/on-the-ground/transform_ive_go/transforms/slot"
)

var (
	ErrAuxMissing    = errors.New("transformation produced no auxiliary value")
	ErrAuxUncaptured = errors.New("transformation produced an auxiliary value without aux capture")
)

// frame is one suspended stage on the local execution stack.
type frame struct {
	stage string
	susp  Suspension
	out   slot.Slot
}

// CallWrapped calls the base computation, applying the transformations.
//
// The positional args and keyword kwargs are handed to the most recently
// applied transformation first; the base computation receives the fully
// rewritten arguments with the static params merged in under them (caller
// kwargs win on a key collision). The result then flows back through the
// stack in reverse, each stage rewriting it and optionally storing its
// auxiliary value.
//
// If any stage or the base computation fails, every still-suspended stage is
// synchronously canceled, deepest-pushed first, before the error returns.
// Stage cleanup must have completed by the time the caller observes the
// error. The error itself is returned untranslated.
func (w WrappedFn) CallWrapped(args Args, kw KwArgs) (any, error) {
	obs := w.obs
	if obs == nil {
		obs = NopObserver{}
	}

	stack := make([]frame, 0, len(w.entries))
	cancelAll := func() {
		for i := len(stack) - 1; i >= 0; i-- {
			if cancel := stack[i].susp.Cancel; cancel != nil {
				cancel()
			}
			obs.StageCanceled(stack[i].stage)
		}
	}

	for i, e := range w.entries {
		newArgs, newKw, susp, err := e.trans.gen(e.static, args, kw)
		if err != nil {
			// The failing stage never suspended; it owns its own cleanup.
			cancelAll()
			return nil, err
		}
		stack = append(stack, frame{stage: e.trans.name, susp: susp, out: w.slots[i]})
		obs.StageApplied(e.trans.name)
		args, kw = newArgs, newKw
	}

	result, err := w.fn.call(args, mergeKw(w.params, kw))
	if err != nil {
		cancelAll()
		return nil, err
	}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		resumed, err := fr.susp.Resume(result)
		if err != nil {
			cancelAll()
			return nil, err
		}
		if fr.out != nil {
			if !resumed.HasAux {
				cancelAll()
				return nil, fmt.Errorf("%w: %s", ErrAuxMissing, fr.stage)
			}
			if err := fr.out.Store(resumed.Aux); err != nil {
				cancelAll()
				return nil, err
			}
		} else if resumed.HasAux {
			cancelAll()
			return nil, fmt.Errorf("%w: %s", ErrAuxUncaptured, fr.stage)
		}
		obs.StageResumed(fr.stage)
		result = resumed.Result
	}

	return result, nil
}

// mergeKw merges the static params under the caller-supplied kwargs: on a
// key collision the caller wins.
func mergeKw(params []Param, kw KwArgs) KwArgs {
	if len(params) == 0 {
		return kw
	}
	merged := make(KwArgs, len(params)+len(kw))
	for _, p := range params {
		merged[p.Name] = p.Value
	}
	for k, v := range kw {
		merged[k] = v
	}
	return merged
}
