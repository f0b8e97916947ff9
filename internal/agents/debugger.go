// Debugger domain agent, spec.md §4.4.1. Grounded on the teacher's
// AddBreakpoints/RemoveBreakpoints (debugger/go_debugger/go_debugger.go) for
// the resolve-then-notify shape, generalized from the teacher's single
// (file,line) breakpoints to the nominal/resolved two-stage model spec.md
// §3 requires.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/fansqz/js-inspector-bridge/internal/breakpoint"
	"github.com/fansqz/js-inspector-bridge/internal/condition"
	"github.com/fansqz/js-inspector-bridge/internal/core"
	"github.com/fansqz/js-inspector-bridge/internal/engine"
	"github.com/fansqz/js-inspector-bridge/internal/ierrors"
	"github.com/fansqz/js-inspector-bridge/internal/obs"
	"github.com/fansqz/js-inspector-bridge/internal/protocol"
)

var dlog = obs.For("agents.debugger")

// Debugger implements the Debugger.* protocol methods.
type Debugger struct {
	mu       sync.Mutex
	facade   engine.Facade
	core     *core.Core
	registry *breakpoint.Registry
	cond     *condition.Evaluator
	frontend Frontend

	enabled bool
	scripts map[string]*engine.Script
	order   []string // insertion order, replayed on enable per spec.md §5
}

func NewDebugger(facade engine.Facade, c *core.Core, registry *breakpoint.Registry, cond *condition.Evaluator, frontend Frontend) *Debugger {
	d := &Debugger{
		facade:   facade,
		core:     c,
		registry: registry,
		cond:     cond,
		frontend: frontend,
		scripts:  make(map[string]*engine.Script),
	}
	c.SetSourceHandler(d.onSource)
	c.SetBreakHandler(d.onBreak)
	c.SetResumeHandler(d.onResume)
	return d
}

// Register binds this agent's methods into disp, per ProtocolHub's Connect
// command dispatch (spec.md §4.5).
func (d *Debugger) Register(disp *Dispatcher) {
	disp.Register("Debugger.enable", wrapNoParams(d.Enable))
	disp.Register("Debugger.disable", wrapNoParams(d.Disable))
	disp.Register("Debugger.setBreakpointByUrl", d.handleSetBreakpointByURL)
	disp.Register("Debugger.setBreakpoint", d.handleSetBreakpoint)
	disp.Register("Debugger.removeBreakpoint", d.handleRemoveBreakpoint)
	disp.Register("Debugger.stepOver", wrapNoParams(func() (interface{}, error) { return nil, d.StepOver() }))
	disp.Register("Debugger.stepInto", wrapNoParams(func() (interface{}, error) { return nil, d.StepInto() }))
	disp.Register("Debugger.stepOut", wrapNoParams(func() (interface{}, error) { return nil, d.StepOut() }))
	disp.Register("Debugger.pause", wrapNoParams(func() (interface{}, error) { return nil, d.Pause() }))
	disp.Register("Debugger.resume", wrapNoParams(func() (interface{}, error) { return nil, d.Resume() }))
	disp.Register("Debugger.setPauseOnExceptions", d.handleSetPauseOnExceptions)
	disp.Register("Debugger.evaluateOnCallFrame", d.handleEvaluateOnCallFrame)
	disp.Register("Debugger.getScriptSource", d.handleGetScriptSource)

	for _, m := range notImplementedDebuggerMethods {
		disp.Register(m, notImplemented)
	}
}

var notImplementedDebuggerMethods = []string{
	"Debugger.setBreakpointsActive",
	"Debugger.setSkipAllPauses",
	"Debugger.continueToLocation",
	"Debugger.searchInContent",
	"Debugger.setScriptSource",
	"Debugger.restartFrame",
	"Debugger.setVariableValue",
	"Debugger.setAsyncCallStackDepth",
	"Debugger.setBlackboxPatterns",
	"Debugger.setBlackboxedRanges",
}

func notImplemented(json.RawMessage) (interface{}, error) { return nil, ierrors.ErrNotImplemented }

// Enable is idempotent: register handlers, replay every already-loaded
// script as scriptParsed, register successfully.
func (d *Debugger) Enable() (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enabled {
		return struct{}{}, nil
	}
	if err := d.core.Enable(); err != nil {
		return nil, err
	}
	d.enabled = true
	for _, sc := range d.facade.GetScripts() {
		if _, exists := d.scripts[sc.ID]; !exists {
			d.order = append(d.order, sc.ID)
			d.scripts[sc.ID] = sc
		}
	}
	for _, id := range d.order {
		d.notifyScriptParsed(d.scripts[id])
	}
	return struct{}{}, nil
}

// Disable is idempotent: stop the core's event delivery and clear the
// breakpoint and script maps. There is no skip-all-pauses state to reset;
// Debugger.setSkipAllPauses is not implemented.
func (d *Debugger) Disable() (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.enabled {
		return struct{}{}, nil
	}
	d.core.Disable()
	d.registry.Clear()
	d.scripts = make(map[string]*engine.Script)
	d.order = nil
	d.enabled = false
	return struct{}{}, nil
}

func (d *Debugger) notifyScriptParsed(sc *engine.Script) {
	d.frontend.Notify("Debugger.scriptParsed", map[string]interface{}{
		"scriptId":      sc.ID,
		"url":           sc.URL,
		"startLine":     sc.StartLine,
		"startColumn":   sc.StartColumn,
		"endLine":       sc.EndLine,
		"endColumn":     sc.EndColumn,
		"executionContextId": sc.ExecutionCtxID,
		"hash":          sc.Hash,
		"hasSourceURL":  sc.HasSourceURL,
		"sourceMapURL":  sc.SourceMapURL,
	})
}

// onSource is DebuggerCore's SourceHandler.
func (d *Debugger) onSource(sc *engine.Script, success bool) {
	d.mu.Lock()
	if success && sc != nil {
		if _, exists := d.scripts[sc.ID]; !exists {
			d.order = append(d.order, sc.ID)
		}
		d.scripts[sc.ID] = sc
	}
	enabled := d.enabled
	d.mu.Unlock()

	if !enabled {
		return
	}
	if !success {
		d.frontend.Notify("Debugger.scriptFailedToParse", map[string]interface{}{})
		return
	}
	d.notifyScriptParsed(sc)
	d.resolvePending(sc)
}

// resolvePending re-attempts every unresolved nominal breakpoint whose
// URL/regex matches sc, per spec.md §4.2's lifecycle and invariant 2.
func (d *Debugger) resolvePending(sc *engine.Script) {
	for _, bp := range d.registry.All() {
		if bp.IsResolved() {
			continue
		}
		if !matches(bp.Nominal, sc.URL) {
			continue
		}
		id, line, col, err := d.facade.SetBreakpoint(sc.ID, bp.Nominal.Line, bp.Nominal.Column)
		if err != nil {
			continue
		}
		if err := d.registry.MarkResolved(bp, id, sc.ID, line, col); err != nil {
			continue
		}
		d.frontend.Notify("Debugger.breakpointResolved", map[string]interface{}{
			"breakpointId": bp.Fingerprint,
			"location": map[string]interface{}{
				"scriptId":     sc.ID,
				"lineNumber":   line,
				"columnNumber": col,
			},
		})
	}
}

func matches(key protocol.NominalKey, url string) bool {
	switch key.Kind {
	case protocol.ByURL:
		return key.URLOrPattern == url
	case protocol.ByURLRegex:
		re, err := regexp.Compile(key.URLOrPattern)
		if err != nil {
			return false
		}
		return re.MatchString(url)
	default:
		return false
	}
}

// onBreak is DebuggerCore's BreakHandler: filter by condition, then notify.
func (d *Debugger) onBreak(data engine.EventData) engine.SkipPauseRequest {
	skip := d.cond.Decide(data.ResolvedBreakID)
	if skip != engine.NoSkip {
		return skip
	}
	reason := "other"
	switch {
	case data.ResolvedBreakID >= 0:
		reason = "Break"
	case data.Exception != nil:
		reason = "exception"
	}
	d.frontend.Notify("Debugger.paused", map[string]interface{}{
		"reason":      reason,
		"callFrames":  d.buildCallFrames(),
	})
	return engine.NoSkip
}

func (d *Debugger) onResume() {
	d.frontend.Notify("Debugger.resumed", struct{}{})
}

func (d *Debugger) buildCallFrames() []map[string]interface{} {
	frames := d.facade.GetStackTrace()
	out := make([]map[string]interface{}, 0, len(frames))
	for _, f := range frames {
		out = append(out, map[string]interface{}{
			"callFrameId":  protocol.CallFrameID{Ordinal: f.Ordinal},
			"functionName": f.FunctionName,
			"location": map[string]interface{}{
				"scriptId":     f.ScriptID,
				"lineNumber":   f.Line,
				"columnNumber": f.Column,
			},
			"scopeChain": []map[string]interface{}{
				{"type": "local", "object": map[string]interface{}{
					"type":     "object",
					"objectId": protocol.NewScopeObjectID(f.Ordinal, "locals").String(),
				}},
				{"type": "global", "object": map[string]interface{}{
					"type":     "object",
					"objectId": protocol.NewScopeObjectID(f.Ordinal, "globals").String(),
				}},
			},
		})
	}
	return out
}

type setBreakpointByURLParams struct {
	LineNumber   int    `json:"lineNumber"`
	URL          string `json:"url"`
	URLRegex     string `json:"urlRegex"`
	ColumnNumber *int   `json:"columnNumber"`
	Condition    string `json:"condition"`
}

func (d *Debugger) handleSetBreakpointByURL(raw json.RawMessage) (interface{}, error) {
	var p setBreakpointByURLParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}
	hasURL := p.URL != ""
	hasRegex := p.URLRegex != ""
	if hasURL == hasRegex {
		return nil, ierrors.ErrURLRequired
	}
	column := 0
	if p.ColumnNumber != nil {
		column = *p.ColumnNumber
	}
	if column < 0 {
		return nil, ierrors.ErrInvalidColumn
	}

	kind := protocol.ByURL
	pattern := p.URL
	if hasRegex {
		kind = protocol.ByURLRegex
		pattern = p.URLRegex
	}
	key := protocol.NominalKey{Kind: kind, URLOrPattern: pattern, Line: p.LineNumber, Column: column, Condition: p.Condition}

	d.mu.Lock()
	defer d.mu.Unlock()

	bp, err := d.registry.Insert(key)
	if err != nil {
		return nil, err
	}

	locations := []map[string]interface{}{}
	for _, id := range d.order {
		sc := d.scripts[id]
		if !matches(key, sc.URL) {
			continue
		}
		rid, line, col, err := d.facade.SetBreakpoint(sc.ID, p.LineNumber, column)
		if err != nil {
			continue
		}
		if err := d.registry.MarkResolved(bp, rid, sc.ID, line, col); err != nil {
			continue
		}
		locations = append(locations, map[string]interface{}{
			"scriptId":     sc.ID,
			"lineNumber":   line,
			"columnNumber": col,
		})
	}

	return map[string]interface{}{
		"breakpointId": bp.Fingerprint,
		"locations":    locations,
	}, nil
}

type setBreakpointParams struct {
	Location struct {
		ScriptID     string `json:"scriptId"`
		LineNumber   int    `json:"lineNumber"`
		ColumnNumber int    `json:"columnNumber"`
	} `json:"location"`
	Condition string `json:"condition"`
}

func (d *Debugger) handleSetBreakpoint(raw json.RawMessage) (interface{}, error) {
	var p setBreakpointParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	sc, ok := d.scripts[p.Location.ScriptID]
	if !ok {
		return nil, ierrors.ErrBreakpointCouldNotResolve
	}

	key := protocol.NominalKey{Kind: protocol.ByLocation, URLOrPattern: p.Location.ScriptID, Line: p.Location.LineNumber, Column: p.Location.ColumnNumber, Condition: p.Condition}
	bp, err := d.registry.Insert(key)
	if err != nil {
		return nil, err
	}

	id, line, col, err := d.facade.SetBreakpoint(sc.ID, p.Location.LineNumber, p.Location.ColumnNumber)
	if err != nil {
		_, _ = d.registry.Remove(bp.Fingerprint)
		return nil, ierrors.ErrBreakpointCouldNotResolve
	}
	if err := d.registry.MarkResolved(bp, id, sc.ID, line, col); err != nil {
		_, _ = d.registry.Remove(bp.Fingerprint)
		return nil, err
	}

	return map[string]interface{}{
		"breakpointId": bp.Fingerprint,
		"actualLocation": map[string]interface{}{
			"scriptId":     sc.ID,
			"lineNumber":   line,
			"columnNumber": col,
		},
	}, nil
}

func (d *Debugger) handleRemoveBreakpoint(raw json.RawMessage) (interface{}, error) {
	var p struct {
		BreakpointID string `json:"breakpointId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}
	bp, err := d.registry.Remove(p.BreakpointID)
	if err != nil {
		return nil, err
	}
	if bp.IsResolved() {
		_ = d.facade.RemoveBreakpoint(bp.ResolvedID)
	}
	return struct{}{}, nil
}

func (d *Debugger) StepOver() error { return d.step(engine.StepOver) }
func (d *Debugger) StepInto() error { return d.step(engine.StepIn) }
func (d *Debugger) StepOut() error  { return d.step(engine.StepOut) }

func (d *Debugger) step(kind engine.StepKind) error {
	if err := d.facade.SetStep(kind); err != nil && err != engine.NotAtBreak {
		dlog.WithError(err).Warn("step request failed")
	}
	return d.Resume()
}

// Pause requests a break on the next statement.
func (d *Debugger) Pause() error {
	d.core.PauseOnNextStatement()
	return nil
}

// Resume fails NotEnabled if disabled; otherwise issues Continue by sending
// the hub the "Debugger.go" host request, spec.md §4.4.1/§4.5.
func (d *Debugger) Resume() error {
	if !d.core.Enabled() {
		return ierrors.ErrNotEnabled
	}
	d.frontend.SendRequest("Debugger.go")
	return nil
}

func (d *Debugger) handleSetPauseOnExceptions(raw json.RawMessage) (interface{}, error) {
	var p struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}
	var attr engine.BreakOnExceptionAttr
	switch p.State {
	case "none":
		attr = engine.BreakNone
	case "all":
		attr = engine.BreakFirstChance
	case "uncaught":
		attr = engine.BreakUncaught
	default:
		return nil, ierrors.ErrInvalidArgument
	}
	if err := d.facade.SetBreakOnException(attr); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

func (d *Debugger) handleEvaluateOnCallFrame(raw json.RawMessage) (interface{}, error) {
	var p struct {
		CallFrameID json.RawMessage `json:"callFrameId"`
		Expression  string          `json:"expression"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}
	cf, err := protocol.ParseCallFrameID(string(p.CallFrameID))
	if err != nil {
		return nil, ierrors.ErrInvalidCallFrameID
	}
	result, err := d.facade.EvaluateAtFrame(context.Background(), p.Expression, cf.Ordinal)
	if err != nil {
		return nil, ierrors.NewEngineError("Evaluate", err)
	}
	if result.IsError {
		return map[string]interface{}{
			"exceptionDetails": exceptionDetails(result, d.facade),
		}, nil
	}
	return map[string]interface{}{"result": WrapValue(result, d.facade)}, nil
}

func (d *Debugger) handleGetScriptSource(raw json.RawMessage) (interface{}, error) {
	var p struct {
		ScriptID string `json:"scriptId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.enabled {
		return nil, ierrors.ErrNotEnabled
	}
	sc, ok := d.scripts[p.ScriptID]
	if !ok {
		return nil, ierrors.ErrScriptNotFound
	}
	return map[string]interface{}{"scriptSource": sc.Source()}, nil
}

func exceptionDetails(v engine.Value, facade engine.Facade) map[string]interface{} {
	return map[string]interface{}{
		"text":      "Uncaught",
		"exception": WrapValue(v, facade),
	}
}

func wrapNoParams(f func() (interface{}, error)) HandlerFunc {
	return func(json.RawMessage) (interface{}, error) { return f() }
}
