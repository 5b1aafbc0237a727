package transforms

// Observer receives stage-level hooks from the call protocol. The core never
// logs on its own; attach an observer (see the log subpackage) to watch a
// stack execute.
type Observer interface {
	// StageApplied fires after a stage's argument rewrite suspended.
	StageApplied(stage string)
	// StageResumed fires after a stage's result rewrite completed.
	StageResumed(stage string)
	// StageCanceled fires when a suspended stage is synchronously closed
	// because the call failed before resuming it.
	StageCanceled(stage string)
}

// NopObserver ignores every hook.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) StageApplied(string)  {}
func (NopObserver) StageResumed(string)  {}
func (NopObserver) StageCanceled(string) {}
