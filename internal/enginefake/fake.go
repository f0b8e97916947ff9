// Package enginefake provides a test double for engine.Facade, used across
// this module's package tests instead of a real goja runtime so that
// DebuggerCore, the domain agents and ProtocolHub can be exercised without
// standing up a JS engine. Grounded on the teacher's own test style
// (debugger/go_debugger/go_debugger_test.go stubs a fake process rather
// than launching delve), generalized to satisfy engine.Facade in full.
package enginefake

import (
	"context"
	"sync"

	"github.com/fansqz/js-inspector-bridge/internal/engine"
)

// Facade is a fully scriptable engine.Facade implementation.
type Facade struct {
	mu sync.Mutex

	cb      engine.DebugCallback
	started bool

	scripts       []*engine.Script
	frames        []engine.CallFrame
	breakAttr     engine.BreakOnExceptionAttr
	nextBreakID   int
	removed       map[int]bool
	asyncBreaks   int
	steps         []engine.StepKind
	handles       map[int]engine.Value
	nextHandle    int
	evalAtFrame   func(expr string, frame int) (engine.Value, error)
	evalGlobal    func(expr string) (engine.Value, error)
	scopeVars     func(frameOrdinal int, scope engine.ScopeKind) ([]engine.Variable, error)
	contextScopes int
}

func New() *Facade {
	return &Facade{
		removed:    make(map[int]bool),
		handles:    make(map[int]engine.Value),
		nextHandle: 1,
	}
}

func (f *Facade) StartDebugging(cb engine.DebugCallback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
	f.started = true
	return nil
}

func (f *Facade) StopDebugging() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = nil
	f.started = false
}

func (f *Facade) RequestAsyncBreak() {
	f.mu.Lock()
	f.asyncBreaks++
	f.mu.Unlock()
}

// AsyncBreakCount reports how many times RequestAsyncBreak was called.
func (f *Facade) AsyncBreakCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.asyncBreaks
}

// Fire invokes the installed callback synchronously, as goja's DebugHandler
// would, and returns its verdict.
func (f *Facade) Fire(kind engine.DebugEventKind, data engine.EventData) engine.SkipPauseRequest {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb == nil {
		return engine.NoSkip
	}
	return cb(kind, data)
}

func (f *Facade) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *Facade) GetScripts() []*engine.Script {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*engine.Script(nil), f.scripts...)
}

// AddScript registers a script for GetScripts to report.
func (f *Facade) AddScript(sc *engine.Script) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, sc)
}

func (f *Facade) GetStackTrace() []engine.CallFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.CallFrame(nil), f.frames...)
}

// SetStackTrace configures what GetStackTrace reports.
func (f *Facade) SetStackTrace(frames []engine.CallFrame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = frames
}

func (f *Facade) GetObjectFromHandle(handle int) (engine.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.handles[handle]
	if !ok {
		return engine.Value{}, engine.NotAtBreak
	}
	return v, nil
}

func (f *Facade) HandleFor(v engine.Value) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := f.nextHandle
	f.nextHandle++
	f.handles[h] = v
	return h
}

func (f *Facade) SetBreakpoint(scriptID string, line, col int) (int, int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextBreakID++
	return f.nextBreakID, line, col, nil
}

func (f *Facade) RemoveBreakpoint(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed[id] = true
	return nil
}

func (f *Facade) SetStep(kind engine.StepKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, kind)
	return nil
}

// Steps reports every SetStep call in order.
func (f *Facade) Steps() []engine.StepKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.StepKind(nil), f.steps...)
}

func (f *Facade) GetBreakOnException() engine.BreakOnExceptionAttr {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.breakAttr
}

func (f *Facade) SetBreakOnException(attr engine.BreakOnExceptionAttr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakAttr = attr
	return nil
}

// OnEvaluateAtFrame installs the function EvaluateAtFrame delegates to.
func (f *Facade) OnEvaluateAtFrame(fn func(expr string, frame int) (engine.Value, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evalAtFrame = fn
}

// OnEvaluateGlobal installs the function EvaluateGlobal delegates to.
func (f *Facade) OnEvaluateGlobal(fn func(expr string) (engine.Value, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evalGlobal = fn
}

func (f *Facade) EvaluateAtFrame(_ context.Context, expr string, frame int) (engine.Value, error) {
	f.mu.Lock()
	fn := f.evalAtFrame
	f.mu.Unlock()
	if fn == nil {
		return engine.Value{}, engine.NotAtBreak
	}
	return fn(expr, frame)
}

func (f *Facade) EvaluateGlobal(_ context.Context, expr string) (engine.Value, error) {
	f.mu.Lock()
	fn := f.evalGlobal
	f.mu.Unlock()
	if fn == nil {
		return engine.Value{}, nil
	}
	return fn(expr)
}

// OnGetScopeVariables installs the function GetScopeVariables delegates to.
func (f *Facade) OnGetScopeVariables(fn func(frameOrdinal int, scope engine.ScopeKind) ([]engine.Variable, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopeVars = fn
}

func (f *Facade) GetScopeVariables(frameOrdinal int, scope engine.ScopeKind) ([]engine.Variable, error) {
	f.mu.Lock()
	fn := f.scopeVars
	f.mu.Unlock()
	if fn == nil {
		return nil, engine.NotAtBreak
	}
	return fn(frameOrdinal, scope)
}

func (f *Facade) ActivateContext() engine.ContextScope {
	f.mu.Lock()
	f.contextScopes++
	f.mu.Unlock()
	return fakeScope{}
}

type fakeScope struct{}

func (fakeScope) Close() {}
