package engine

import "context"

// ContextScope is the scoped context-activation primitive spec.md §4.1
// describes: acquiring one activates an engine context, dropping it
// deactivates. Every DebuggerCore entry point that calls engine APIs holds
// one for its duration.
type ContextScope interface {
	Close()
}

// Facade is the capability surface spec.md §4.1 names. It is the only way
// the rest of this module touches the embedded engine; DebuggerCore, the
// domain agents and ConditionEvaluator all depend on this interface, never
// on the concrete goja-backed type, so tests can substitute a fake engine.
type Facade interface {
	// StartDebugging registers cb as the engine's diagnostic callback and
	// begins delivering debug events to it. Idempotent per engine instance
	// is not guaranteed; callers (DebuggerCore) call it once per enable and
	// never again without a StopDebugging in between.
	StartDebugging(cb DebugCallback) error
	// StopDebugging unregisters the callback and releases debug-mode state.
	StopDebugging()
	// RequestAsyncBreak asks the engine to emit an AsyncBreak event at its
	// next safe point. Non-blocking.
	RequestAsyncBreak()

	GetScripts() []*Script
	GetStackTrace() []CallFrame
	GetObjectFromHandle(handle int) (Value, error)
	// HandleFor allocates (or returns the existing) stable integer handle
	// for v, used to build the {"handle":N} objectId wire form.
	HandleFor(v Value) int
	// GetScopeVariables enumerates the named scope of the given call frame,
	// valid only while paused. Returns NotAtBreak when the engine has no
	// current pause to resolve frameOrdinal against.
	GetScopeVariables(frameOrdinal int, scope ScopeKind) ([]Variable, error)

	// SetBreakpoint attempts to resolve a breakpoint against scriptID at
	// line/col, returning the engine-assigned id and the normalized
	// location it actually landed at.
	SetBreakpoint(scriptID string, line, col int) (id, resolvedLine, resolvedCol int, err error)
	RemoveBreakpoint(id int) error

	// SetStep returns NotAtBreak when the engine is not currently paused;
	// callers ignore that error and proceed to continue.
	SetStep(kind StepKind) error

	GetBreakOnException() BreakOnExceptionAttr
	SetBreakOnException(attr BreakOnExceptionAttr) error

	EvaluateAtFrame(ctx context.Context, expr string, frameOrdinal int) (Value, error)
	EvaluateGlobal(ctx context.Context, expr string) (Value, error)

	// ActivateContext acquires a context-activation scope; Close deactivates.
	ActivateContext() ContextScope
}

// NotAtBreak is the distinguished non-failure sentinel described in
// spec.md §4.1: SetStep returns it when the engine is not currently paused.
var NotAtBreak = &notAtBreak{}

type notAtBreak struct{}

func (*notAtBreak) Error() string { return "engine is not at a break" }
