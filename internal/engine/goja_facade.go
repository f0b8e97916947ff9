package engine

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"

	"github.com/fansqz/js-inspector-bridge/internal/idgen"
	"github.com/fansqz/js-inspector-bridge/internal/ierrors"
	"github.com/fansqz/js-inspector-bridge/internal/obs"
	"github.com/fansqz/js-inspector-bridge/internal/runstate"
)

var log = obs.For("engine")

// GojaFacade implements Facade over a dop251/goja Runtime whose Debugger
// hooks (SetHandler/AddBreakpoint/Evaluate/GetScopes/...) are the diagnostic
// primitives added by the fork _examples/arturoeanton-goja carries. This is
// the "engine bindings" collaborator spec.md §1 places out of core scope;
// this file is the adapter that presents it as the abstract Facade the core
// consumes.
type GojaFacade struct {
	mu      sync.Mutex
	rt      *goja.Runtime
	dbg     *goja.Debugger
	cb      DebugCallback
	nextID  int64
	scripts map[string]*Script
	order   []string // preserves parse order for replay, spec.md §5

	breakAttr BreakOnExceptionAttr
	execCtxID int

	handles    map[int]goja.Value
	handleByID map[goja.Value]int
	nextHandle int

	// pausedState is the fork's DebuggerState for the pause currently in
	// progress, set for the duration of the debug callback and cleared the
	// moment it returns. GetStackTrace and GetScopeVariables only have
	// anything to report while it is non-nil.
	pausedState *goja.DebuggerState

	runState *runstate.Tracker
}

// NewGojaFacade constructs a facade around a fresh goja Runtime.
func NewGojaFacade() *GojaFacade {
	rt := goja.New()
	return &GojaFacade{
		rt:         rt,
		scripts:    make(map[string]*Script),
		execCtxID:  1,
		handles:    make(map[int]goja.Value),
		handleByID: make(map[goja.Value]int),
		nextHandle: 1,
		runState:   runstate.New(),
	}
}

// RunState reports the loaded script's coarse execution lifecycle
// (init/running/finished/failed), for the embedder's own logging - it is
// not part of the diagnostic surface spec.md §4.1 names.
func (g *GojaFacade) RunState() string { return g.runState.Get() }

// Runtime exposes the underlying goja Runtime for callers that need to bind
// host objects (internal/console does this for the console global).
func (g *GojaFacade) Runtime() *goja.Runtime { return g.rt }

func (g *GojaFacade) StartDebugging(cb DebugCallback) error {
	if cb == nil {
		return ierrors.ErrCallbackRequired
	}
	g.mu.Lock()
	g.cb = cb
	g.dbg = g.rt.NewDebugger()
	g.mu.Unlock()

	g.dbg.SetHandler(func(state *goja.DebuggerState) goja.DebugCommand {
		g.mu.Lock()
		g.pausedState = state
		g.mu.Unlock()

		kind, data := translateState(state)
		skip := cb(kind, data)

		g.mu.Lock()
		g.pausedState = nil
		g.mu.Unlock()

		return translateSkip(skip)
	})
	log.Info("debugging started")
	return nil
}

func (g *GojaFacade) StopDebugging() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dbg != nil {
		g.dbg.SetHandler(nil)
	}
	g.dbg = nil
	g.cb = nil
	log.Info("debugging stopped")
}

func (g *GojaFacade) RequestAsyncBreak() {
	g.mu.Lock()
	dbg := g.dbg
	g.mu.Unlock()
	if dbg == nil {
		return
	}
	dbg.Pause()
}

// LoadScript compiles src, registers it in the script table and, if a debug
// callback is installed, emits a SourceCompile/CompileError event on the
// caller's goroutine, which must be the engine thread. It is called from
// cmd/inspectord's script-loading path and from Runtime.compileScript, which
// runs inside the hub's drain loop on the engine thread.
func (g *GojaFacade) LoadScript(url, src string) (*Script, error) {
	sum := sha1.Sum([]byte(src))
	prog, err := goja.Compile(url, src, false)
	g.mu.Lock()
	id := fmt.Sprintf("script#%d", atomic.AddInt64(&g.nextID, 1))
	g.mu.Unlock()

	if err != nil {
		if g.cb != nil {
			g.cb(EventCompileError, EventData{CompileErr: err})
		}
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}

	sc := &Script{
		ID:             id,
		URL:            url,
		Hash:           hex.EncodeToString(sum[:]),
		ExecutionCtxID: g.execCtxID,
		source:         src,
		program:        prog,
	}

	g.mu.Lock()
	g.scripts[id] = sc
	g.order = append(g.order, id)
	g.mu.Unlock()

	if g.cb != nil {
		g.cb(EventSourceCompile, EventData{Script: sc})
	}
	return sc, nil
}

// Run executes a previously loaded script's compiled program.
func (g *GojaFacade) Run(sc *Script) (goja.Value, error) {
	g.runState.Set(runstate.Running)
	v, err := g.rt.RunProgram(sc.program)
	if err != nil {
		g.runState.Set(runstate.Failed)
	} else {
		g.runState.Set(runstate.Finished)
	}
	return v, err
}

func (g *GojaFacade) GetScripts() []*Script {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Script, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.scripts[id])
	}
	return out
}

// GetStackTrace builds spec.md §3's CallFrame model from the fork's
// DebugStack, per _examples/arturoeanton-goja/debugger.go's buildDebugStack.
// Only valid for the duration of the debug callback that set pausedState.
func (g *GojaFacade) GetStackTrace() []CallFrame {
	g.mu.Lock()
	state := g.pausedState
	g.mu.Unlock()
	if state == nil {
		return nil
	}
	frames := make([]CallFrame, 0, len(state.DebugStack))
	for i, sf := range state.DebugStack {
		pos := sf.Position()
		frames = append(frames, CallFrame{
			Ordinal:      i,
			FunctionName: sf.FuncName(),
			ScriptID:     g.scriptIDForURL(pos.Filename),
			Line:         pos.Line,
			Column:       pos.Column,
		})
	}
	return frames
}

// scriptIDForURL resolves the engine-assigned script id for a source
// filename, the reverse of the url LoadScript registered under.
func (g *GojaFacade) scriptIDForURL(url string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, sc := range g.scripts {
		if sc.URL == url {
			return sc.ID
		}
	}
	return ""
}

// GetScopeVariables enumerates one call frame's Local or Global scope via
// the fork's GetScopes/GetVariables (debugger.go:571-649), only valid while
// paused.
func (g *GojaFacade) GetScopeVariables(frameOrdinal int, scope ScopeKind) ([]Variable, error) {
	g.mu.Lock()
	dbg := g.dbg
	paused := g.pausedState != nil
	g.mu.Unlock()
	if dbg == nil || !paused {
		return nil, NotAtBreak
	}

	want := "Local"
	if scope == GlobalsScope {
		want = "Global"
	}
	for _, sc := range dbg.GetScopes(frameOrdinal) {
		if sc.Name != want {
			continue
		}
		vars := dbg.GetVariables(sc.VariablesRef)
		out := make([]Variable, 0, len(vars))
		for _, v := range vars {
			out = append(out, Variable{Name: v.Name, Value: Value{Raw: v.Value}})
		}
		return out, nil
	}
	return nil, nil
}

func (g *GojaFacade) GetObjectFromHandle(handle int) (Value, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.handles[handle]
	if !ok {
		return Value{}, ierrors.ErrInvalidObjectID
	}
	return Value{Raw: v}, nil
}

// HandleFor allocates a stable handle for v, reusing one already minted for
// the same underlying value so ParseObjectID(GetObjectId(h)).handle == h
// holds (spec.md §8's round-trip law).
func (g *GojaFacade) HandleFor(v Value) int {
	if v.Raw == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if h, ok := g.handleByID[v.Raw]; ok {
		return h
	}
	h := g.nextHandle
	g.nextHandle++
	g.handles[h] = v.Raw
	g.handleByID[v.Raw] = h
	return h
}

func (g *GojaFacade) SetBreakpoint(scriptID string, line, col int) (int, int, int, error) {
	g.mu.Lock()
	sc, ok := g.scripts[scriptID]
	dbg := g.dbg
	g.mu.Unlock()
	if !ok {
		return -1, 0, 0, ierrors.ErrScriptMustBeLoaded
	}
	if dbg == nil {
		return -1, 0, 0, ierrors.NewEngineError("NoDebugger", nil)
	}
	id := dbg.AddBreakpoint(sc.URL, line, col)
	return id, line, col, nil
}

func (g *GojaFacade) RemoveBreakpoint(id int) error {
	g.mu.Lock()
	dbg := g.dbg
	g.mu.Unlock()
	if dbg == nil {
		return ierrors.ErrBreakpointNotFound
	}
	if !dbg.RemoveBreakpoint(id) {
		return ierrors.ErrBreakpointNotFound
	}
	return nil
}

func (g *GojaFacade) SetStep(kind StepKind) error {
	g.mu.Lock()
	dbg := g.dbg
	paused := g.pausedState != nil
	g.mu.Unlock()
	if dbg == nil || !paused {
		return NotAtBreak
	}
	switch kind {
	case StepIn:
		dbg.StepInto()
	case StepOut:
		dbg.StepOut()
	case StepOver:
		dbg.StepOver()
	}
	return nil
}

func (g *GojaFacade) GetBreakOnException() BreakOnExceptionAttr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.breakAttr
}

func (g *GojaFacade) SetBreakOnException(attr BreakOnExceptionAttr) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.breakAttr = attr
	return nil
}

func (g *GojaFacade) EvaluateAtFrame(ctx context.Context, expr string, frameOrdinal int) (Value, error) {
	g.mu.Lock()
	dbg := g.dbg
	g.mu.Unlock()
	if dbg == nil {
		return Value{}, NotAtBreak
	}
	v, err := dbg.EvaluateInFrame(expr, frameOrdinal)
	if err != nil {
		if exc, ok := err.(*goja.Exception); ok {
			return Value{Raw: exc.Value(), IsError: true}, nil
		}
		return Value{}, ierrors.NewEngineError("ScriptException", err)
	}
	return Value{Raw: v}, nil
}

func (g *GojaFacade) EvaluateGlobal(ctx context.Context, expr string) (Value, error) {
	v, err := g.rt.RunString(expr)
	if err != nil {
		if exc, ok := err.(*goja.Exception); ok {
			return Value{Raw: exc.Value(), IsError: true}, nil
		}
		return Value{}, ierrors.NewEngineError("ScriptCompile", err)
	}
	return Value{Raw: v}, nil
}

func (g *GojaFacade) ActivateContext() ContextScope {
	id := idgen.New()
	log.WithField("scope", id).Debug("context scope activated")
	return &gojaContextScope{id: id}
}

// gojaContextScope is a no-op scope beyond log correlation: goja is
// single-runtime, single-thread, so there is nothing to activate/deactivate
// beyond the mutex discipline already enforced by GojaFacade's methods.
// Kept as a distinct type (rather than folding activation into every call)
// so DebuggerCore's control flow matches spec.md §4.3's "enter a
// context-activation scope" step exactly, and so a future multi-context
// engine binding has a seam to extend.
type gojaContextScope struct{ id string }

func (s *gojaContextScope) Close() {
	log.WithField("scope", s.id).Debug("context scope closed")
}

func translateState(state *goja.DebuggerState) (DebugEventKind, EventData) {
	data := EventData{ResolvedBreakID: -1}
	if state.Breakpoint != nil {
		data.ResolvedBreakID = state.Breakpoint.ID()
		return EventBreakpoint, data
	}
	if state.StepMode {
		return EventStepComplete, data
	}
	return EventDebuggerStatement, data
}

func translateSkip(skip SkipPauseRequest) goja.DebugCommand {
	switch skip {
	case SkipStepFrame, SkipStepInto:
		return goja.DebugStepInto
	case SkipStepOut:
		return goja.DebugStepOut
	case SkipContinue:
		return goja.DebugContinue
	default:
		return goja.DebugContinue
	}
}
