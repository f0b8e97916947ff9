// Package core implements spec.md §4.3's DebuggerCore: it wraps the
// engine's event callback and drives the pause/resume/step state machine.
//
// The break-handling control flow (set paused, invoke the break subscriber,
// run a nested loop, clear paused, fire resume) is grounded on the teacher's
// debugger/go_debugger/go_debugger.go Command method, which performs the
// same shape of work (mark Stopped, emit a StoppedEvent, and on the next
// Command call resume) but without a nested pump — this package adds the
// pump because spec.md §4.3.1 requires commands to keep draining while
// paused, which the teacher's synchronous request/response server does not
// need since it never blocks the engine thread across multiple client
// round-trips.
package core

import (
	"github.com/fansqz/js-inspector-bridge/internal/engine"
	"github.com/fansqz/js-inspector-bridge/internal/obs"
)

var log = obs.For("core")

// CommandDrainer is implemented by ProtocolHub. DebuggerCore calls it at the
// top of every debug event, per spec.md §4.3 step 1, and Break handling
// calls its nested-loop primitives while the engine is paused.
type CommandDrainer interface {
	ProcessCommandQueue()
	ProcessDeferredGo()
	WaitForDebugger()
}

// SourceHandler is notified of parsed scripts. success is false for
// CompileError events.
type SourceHandler func(sc *engine.Script, success bool)

// BreakHandler decides what to do about a break event, spec.md §4.3.1 step 2.
type BreakHandler func(data engine.EventData) engine.SkipPauseRequest

// ResumeHandler is notified after a break's nested loop exits and the step
// (if any) has been issued to the engine.
type ResumeHandler func()

// Core is spec.md §4.3's DebuggerCore.
type Core struct {
	facade  engine.Facade
	drainer CommandDrainer

	enabled              bool
	paused               bool
	inNestedLoop         bool
	pauseOnNextStatement bool

	onSource SourceHandler
	onBreak  BreakHandler
	onResume ResumeHandler
}

func New(facade engine.Facade, drainer CommandDrainer) *Core {
	return &Core{facade: facade, drainer: drainer}
}

func (c *Core) SetSourceHandler(h SourceHandler) { c.onSource = h }
func (c *Core) SetBreakHandler(h BreakHandler)   { c.onBreak = h }
func (c *Core) SetResumeHandler(h ResumeHandler) { c.onResume = h }

func (c *Core) Enabled() bool { return c.enabled }
func (c *Core) Paused() bool  { return c.paused }

// Enable starts the engine's debug callback delivery. Idempotent: calling
// it twice is a no-op the second time (spec.md §8's idempotence law), since
// the underlying facade doesn't support re-registering a callback safely.
func (c *Core) Enable() error {
	if c.enabled {
		return nil
	}
	if err := c.facade.StartDebugging(c.handleDebugEvent); err != nil {
		return err
	}
	c.enabled = true
	return nil
}

// Disable tears down the callback and resets transient state. Idempotent.
func (c *Core) Disable() {
	if !c.enabled {
		return
	}
	c.facade.StopDebugging()
	c.enabled = false
	c.paused = false
	c.inNestedLoop = false
	c.pauseOnNextStatement = false
}

// PauseOnNextStatement sets the flag and issues an async-break request,
// spec.md §4.3's pause_on_next_statement().
func (c *Core) PauseOnNextStatement() {
	c.pauseOnNextStatement = true
	c.facade.RequestAsyncBreak()
}

// ClearPauseOnNextStatement is used by ProtocolHub's "Debugger.go" host
// request, which resumes execution.
func (c *Core) ClearPauseOnNextStatement() { c.pauseOnNextStatement = false }

// handleDebugEvent is installed as the engine's DebugCallback. It performs,
// in order, exactly the steps spec.md §4.3 lists.
func (c *Core) handleDebugEvent(kind engine.DebugEventKind, data engine.EventData) engine.SkipPauseRequest {
	// 1. Drain the command queue - commands queued by the transport thread
	// are always processed on this thread, inside a debug callback.
	c.drainer.ProcessCommandQueue()

	// 2. If not enabled, return.
	if !c.enabled {
		return engine.NoSkip
	}

	// 3. Enter a context-activation scope.
	scope := c.facade.ActivateContext()
	defer scope.Close()

	// 4. Dispatch by debug_event_kind.
	switch kind {
	case engine.EventSourceCompile, engine.EventCompileError:
		if c.onSource != nil {
			c.onSource(data.Script, kind == engine.EventSourceCompile)
		}
		if c.pauseOnNextStatement {
			// The engine considers any debug event to satisfy a prior
			// request, even a source event that never reaches the UI.
			c.facade.RequestAsyncBreak()
		}
		return engine.NoSkip

	case engine.EventBreakpoint, engine.EventStepComplete, engine.EventDebuggerStatement, engine.EventRuntimeException:
		return c.handleBreak(data)

	case engine.EventAsyncBreak:
		if c.pauseOnNextStatement {
			c.pauseOnNextStatement = false
			return c.handleBreak(data)
		}
		return engine.NoSkip
	}
	return engine.NoSkip
}

// handleBreak implements spec.md §4.3.1.
func (c *Core) handleBreak(data engine.EventData) engine.SkipPauseRequest {
	if c.inNestedLoop {
		// Reentrant pauses are forbidden.
		return engine.NoSkip
	}

	c.paused = true
	skip := engine.NoSkip
	if c.onBreak != nil {
		skip = c.onBreak(data)
	}

	if skip == engine.NoSkip {
		c.inNestedLoop = true
		c.drainer.ProcessDeferredGo()
		c.drainer.WaitForDebugger()
		c.inNestedLoop = false
	}
	c.paused = false

	switch skip {
	case engine.SkipStepFrame, engine.SkipStepInto:
		if err := c.facade.SetStep(engine.StepIn); err != nil && err != engine.NotAtBreak {
			log.WithError(err).Warn("step-in request failed")
		}
	case engine.SkipStepOut:
		if err := c.facade.SetStep(engine.StepOut); err != nil && err != engine.NotAtBreak {
			log.WithError(err).Warn("step-out request failed")
		}
	}

	if c.onResume != nil {
		c.onResume()
	}
	return skip
}
