// Package engine implements spec.md §4.1's EngineFacade: a thin capability
// surface over an embedded JavaScript engine's diagnostic primitives.
//
// The facade is grounded on two sources from the retrieval pack. Its shape
// (start/stop debugging, a synchronous pause callback that returns a
// command, breakpoints keyed by engine id, per-frame evaluate, scope
// enumeration) is _examples/arturoeanton-goja/debugger.go, a fork of
// dop251/goja that adds exactly these diagnostic hooks directly onto the
// Runtime. The lifecycle discipline around it (owning a StatusManager,
// logging every entry point the way "[Component] Verb" does, running
// long-lived work on a supervised goroutine) is the teacher's
// debugger/go_debugger/go_debugger.go wrapping go-delve/delve.
package engine

import "github.com/dop251/goja"

// DebugEventKind mirrors the debug_event_kind the engine callback delivers,
// spec.md §3/§4.3.
type DebugEventKind int

const (
	EventSourceCompile DebugEventKind = iota
	EventCompileError
	EventBreakpoint
	EventStepComplete
	EventDebuggerStatement
	EventRuntimeException
	EventAsyncBreak
)

func (k DebugEventKind) String() string {
	switch k {
	case EventSourceCompile:
		return "SourceCompile"
	case EventCompileError:
		return "CompileError"
	case EventBreakpoint:
		return "Breakpoint"
	case EventStepComplete:
		return "StepComplete"
	case EventDebuggerStatement:
		return "DebuggerStatement"
	case EventRuntimeException:
		return "RuntimeException"
	case EventAsyncBreak:
		return "AsyncBreak"
	default:
		return "Unknown"
	}
}

// StepKind selects the flavor of step EngineFacade.SetStep issues.
type StepKind int

const (
	StepIn StepKind = iota
	StepOut
	StepOver
)

// BreakOnExceptionAttr controls whether/when the engine should pause on a
// thrown exception, spec.md §4.1.
type BreakOnExceptionAttr int

const (
	BreakNone BreakOnExceptionAttr = iota
	BreakFirstChance
	BreakUncaught
)

// Script is a parsed source unit as reported by the engine, spec.md §3.
type Script struct {
	ID              string
	URL             string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	ExecutionCtxID  int
	Hash            string
	LiveEdit        bool
	SourceMapURL    string
	HasSourceURL    bool
	source          string
	program         *goja.Program
}

// Source returns the full source text, which LoadScript keeps from the
// moment the script is compiled.
func (s *Script) Source() string { return s.source }

// CallFrame is ephemeral: valid only while the engine is paused, spec.md §3.
// Its locals/globals scopes are addressed by (Ordinal, ScopeKind) rather than
// a separate handle, matching the {"ordinal":F,"name":"locals"|"globals"}
// wire form spec.md §6 defines for scope objectIds.
type CallFrame struct {
	Ordinal      int
	FunctionName string
	ScriptID     string
	Line         int
	Column       int
}

// ScopeKind selects which of a call frame's two scopes GetScopeVariables
// enumerates, spec.md §4.4.2's getProperties-on-a-scope-objectId case.
type ScopeKind int

const (
	LocalsScope ScopeKind = iota
	GlobalsScope
)

// Variable is one named binding inside a call-frame scope.
type Variable struct {
	Name  string
	Value Value
}

// EventData carries the payload for a debug callback invocation. Only the
// fields relevant to Kind are populated.
type EventData struct {
	Script          *Script
	CompileErr      error
	ResolvedBreakID int // engine-assigned id of the breakpoint that fired, -1 if none
	Exception       *Value
}

// DebugCallback is what StartDebugging installs. It is invoked synchronously
// on the engine's script-executing thread and must return a SkipPauseRequest
// telling the engine whether/how to resume, spec.md §4.3.1. The engine
// blocks on this return value exactly the way goja's DebugHandler blocks the
// VM until its handler returns a DebugCommand.
type DebugCallback func(kind DebugEventKind, data EventData) SkipPauseRequest

// SkipPauseRequest is the break subscriber's verdict, spec.md §3/§4.3.1.
type SkipPauseRequest int

const (
	NoSkip SkipPauseRequest = iota
	SkipContinue
	SkipStepFrame
	SkipStepInto
	SkipStepOut
)

// Value is a minimal engine value surfaced to callers that need to inspect
// or wrap it (RemoteObject construction lives in internal/agents, not here,
// per spec.md's separation between EngineFacade and the domain agents).
type Value struct {
	Raw     goja.Value
	IsError bool
}
