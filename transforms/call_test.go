package transforms_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/on-the-ground/transform_ive_go/shared/helper"
	"github.com/on-the-ground/transform_ive_go/transforms"
)

// incFn is the base computation of most tests: f(x) = x + 1.
func incFn() *transforms.Fn {
	return transforms.NamedFn("inc", func(args transforms.Args, kw transforms.KwArgs) (any, error) {
		return args[0].(int) + 1, nil
	})
}

func passThroughResume(result any) (transforms.Resumed, error) {
	return transforms.ResumedValue(result), nil
}

// doubleArgs doubles the single positional argument, result passthrough.
var doubleArgs = transforms.NewTransformation("double_args", func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
	return transforms.Args{args[0].(int) * 2}, kw, transforms.Suspension{Resume: passThroughResume}, nil
})

// negateResult negates the result and emits its absolute value as aux.
var negateResult = transforms.NewTransformation("negate_result", func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
	return args, kw, transforms.Suspension{Resume: func(result any) (transforms.Resumed, error) {
		n := result.(int)
		abs := n
		if abs < 0 {
			abs = -abs
		}
		return transforms.ResumedWithAux(-n, abs), nil
	}}, nil
})

// multiplyArg multiplies the argument by its static factor, passthrough result.
var multiplyArg = transforms.NewTransformation("multiply_arg", func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
	return transforms.Args{args[0].(int) * static[0].(int)}, kw, transforms.Suspension{Resume: passThroughResume}, nil
})

// addToResult passes arguments through and adds its static offset to the result.
var addToResult = transforms.NewTransformation("add_to_result", func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
	offset := static[0].(int)
	return args, kw, transforms.Suspension{Resume: func(result any) (transforms.Resumed, error) {
		return transforms.ResumedValue(result.(int) + offset), nil
	}}, nil
})

func TestCallWrapped_Unwrapped(t *testing.T) {
	fun := transforms.WrapInit(incFn(), nil)
	res, err := fun.CallWrapped(transforms.Args{3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, res)
}

func TestCallWrapped_ConcreteScenario(t *testing.T) {
	// f(x) = x+1, wrapped with double_args then negate_result.
	// Apply: negate_result passes 3 through, double_args makes it 6.
	// Base: 7. Unwind: double_args passes 7 through, negate_result
	// yields -7 and stores aux 7.
	fun := transforms.WrapInit(incFn(), nil)
	fun = doubleArgs.Apply(fun)
	fun, aux := negateResult.ApplyAux(fun)

	res, err := fun.CallWrapped(transforms.Args{3}, nil)
	require.NoError(t, err)
	assert.Equal(t, -7, res)

	side, err := aux()
	require.NoError(t, err)
	assert.Equal(t, 7, side)

	sideTyped, err := helper.GetTypedValueOf[int](aux)
	require.NoError(t, err)
	assert.Equal(t, 7, sideTyped)
}

func TestCallWrapped_CompositionLaw(t *testing.T) {
	// wrapped in order T1=multiplyArg(3), T2=addToResult(10):
	// args run T2 then T1, results run T1 then T2.
	fun := transforms.WrapInit(incFn(), nil)
	fun = multiplyArg.Apply(fun, 3)
	fun = addToResult.Apply(fun, 10)

	got, err := fun.CallWrapped(transforms.Args{5}, nil)
	require.NoError(t, err)

	// manual composition
	x := 5         // addToResult leaves args alone
	x = x * 3      // multiplyArg
	y := x + 1     // base
	_ = y          // multiplyArg leaves results alone
	want := y + 10 // addToResult

	assert.Equal(t, want, got)
}

func TestCallWrapped_OrderingLaw(t *testing.T) {
	var argOrder, resOrder []string
	tracer := func(name string) *transforms.Transformation {
		return transforms.NewTransformation(name, func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
			argOrder = append(argOrder, name)
			return args, kw, transforms.Suspension{Resume: func(result any) (transforms.Resumed, error) {
				resOrder = append(resOrder, name)
				return transforms.ResumedValue(result), nil
			}}, nil
		})
	}

	fun := transforms.WrapInit(incFn(), nil)
	fun = tracer("t1").Apply(fun)
	fun = tracer("t2").Apply(fun)
	fun = tracer("t3").Apply(fun)

	_, err := fun.CallWrapped(transforms.Args{0}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"t3", "t2", "t1"}, argOrder)
	assert.Equal(t, []string{"t1", "t2", "t3"}, resOrder)
}

func TestCallWrapped_ParamsMergedUnderKwargs(t *testing.T) {
	readX := transforms.NamedFn("read_x", func(args transforms.Args, kw transforms.KwArgs) (any, error) {
		return kw["x"], nil
	})

	fun := transforms.WrapInit(readX, transforms.KwArgs{"x": 1})

	res, err := fun.CallWrapped(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res)

	// caller-supplied kwargs win on key collision
	res, err = fun.CallWrapped(nil, transforms.KwArgs{"x": 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res)
}

var errBoom = errors.New("boom")

// acquiring bumps a counter before suspending and releases it again if the
// call is torn down before its resume runs.
func acquiring(counter *int) *transforms.Transformation {
	return transforms.NewTransformation("acquiring", func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
		*counter++
		return args, kw, transforms.Suspension{
			Resume: func(result any) (transforms.Resumed, error) {
				*counter--
				return transforms.ResumedValue(result), nil
			},
			Cancel: func() { *counter-- },
		}, nil
	})
}

func TestCallWrapped_CleanupOnBaseFailure(t *testing.T) {
	failing := transforms.NamedFn("failing", func(args transforms.Args, kw transforms.KwArgs) (any, error) {
		return nil, errBoom
	})

	counter := 0
	fun := transforms.WrapInit(failing, nil)
	fun = acquiring(&counter).Apply(fun)
	fun = acquiring(&counter).Apply(fun)

	_, err := fun.CallWrapped(transforms.Args{1}, nil)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, counter, "cleanup must run before the error reaches the caller")
}

func TestCallWrapped_CleanupOnApplyFailure(t *testing.T) {
	counter := 0
	failingGen := transforms.NewTransformation("failing_gen", func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
		return nil, nil, transforms.Suspension{}, errBoom
	})

	fun := transforms.WrapInit(incFn(), nil)
	// failing_gen applies after acquiring: acquiring is wrapped last, so its
	// first half runs first and must be canceled.
	fun = failingGen.Apply(fun)
	fun = acquiring(&counter).Apply(fun)

	_, err := fun.CallWrapped(transforms.Args{1}, nil)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, counter)
}

func TestCallWrapped_CleanupOnUnwindFailure(t *testing.T) {
	counter := 0
	failingResume := transforms.NewTransformation("failing_resume", func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
		return args, kw, transforms.Suspension{Resume: func(result any) (transforms.Resumed, error) {
			return transforms.Resumed{}, errBoom
		}}, nil
	})

	// failing_resume wrapped first: its resume runs first during unwind and
	// the still-suspended acquiring stage must be canceled.
	fun := transforms.WrapInit(incFn(), nil)
	fun = failingResume.Apply(fun)
	fun = acquiring(&counter).Apply(fun)

	_, err := fun.CallWrapped(transforms.Args{1}, nil)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, counter)
}

func TestCallWrapped_CancelOrderDeepestFirst(t *testing.T) {
	var canceled []string
	canceling := func(name string) *transforms.Transformation {
		return transforms.NewTransformation(name, func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
			return args, kw, transforms.Suspension{
				Resume: passThroughResume,
				Cancel: func() { canceled = append(canceled, name) },
			}, nil
		})
	}

	failing := transforms.NamedFn("failing", func(args transforms.Args, kw transforms.KwArgs) (any, error) {
		return nil, errBoom
	})

	fun := transforms.WrapInit(failing, nil)
	fun = canceling("inner").Apply(fun) // applies last, pushed deepest
	fun = canceling("outer").Apply(fun)

	_, err := fun.CallWrapped(transforms.Args{1}, nil)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"inner", "outer"}, canceled)
}

func TestCallWrapped_AuxContractViolations(t *testing.T) {
	noAux := transforms.NewTransformation("no_aux", func(static, args transforms.Args, kw transforms.KwArgs) (transforms.Args, transforms.KwArgs, transforms.Suspension, error) {
		return args, kw, transforms.Suspension{Resume: passThroughResume}, nil
	})

	// captured aux but the stage never produced one
	fun, _ := noAux.ApplyAux(transforms.WrapInit(incFn(), nil))
	_, err := fun.CallWrapped(transforms.Args{1}, nil)
	assert.ErrorIs(t, err, transforms.ErrAuxMissing)

	// produced aux without capture
	fun2 := negateResult.Apply(transforms.WrapInit(incFn(), nil))
	_, err = fun2.CallWrapped(transforms.Args{1}, nil)
	assert.ErrorIs(t, err, transforms.ErrAuxUncaptured)
}

func TestCallWrapped_SlotPopulatedOncePerCall(t *testing.T) {
	fun, aux := negateResult.ApplyAux(transforms.WrapInit(incFn(), nil))

	_, err := fun.CallWrapped(transforms.Args{1}, nil)
	require.NoError(t, err)

	// a second call on the same stack reuses the same slot and must fail
	// the single-assignment rule
	_, err = fun.CallWrapped(transforms.Args{1}, nil)
	require.Error(t, err)

	side, err := aux()
	require.NoError(t, err)
	assert.Equal(t, 2, side)
}

func TestPartial_BindsArgsStatically(t *testing.T) {
	sum := transforms.NamedFn("sum", func(args transforms.Args, kw transforms.KwArgs) (any, error) {
		total := 0
		for _, a := range args {
			total += a.(int)
		}
		return total, nil
	})

	fun := transforms.Partial.Apply(transforms.WrapInit(sum, nil), 10, 20)
	res, err := fun.CallWrapped(transforms.Args{3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 33, res)
}

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) StageApplied(stage string)  { o.events = append(o.events, "apply:"+stage) }
func (o *recordingObserver) StageResumed(stage string)  { o.events = append(o.events, "resume:"+stage) }
func (o *recordingObserver) StageCanceled(stage string) { o.events = append(o.events, "cancel:"+stage) }

func TestCallWrapped_ObserverSequencing(t *testing.T) {
	obs := &recordingObserver{}
	fun := transforms.WrapInit(incFn(), nil).WithObserver(obs)
	fun = multiplyArg.Apply(fun, 2)
	fun = addToResult.Apply(fun, 1)

	_, err := fun.CallWrapped(transforms.Args{1}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"apply:add_to_result",
		"apply:multiply_arg",
		"resume:multiply_arg",
		"resume:add_to_result",
	}, obs.events)
}
