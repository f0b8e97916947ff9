// Runtime domain agent, spec.md §4.4.2.
package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fansqz/js-inspector-bridge/internal/engine"
	"github.com/fansqz/js-inspector-bridge/internal/ierrors"
	"github.com/fansqz/js-inspector-bridge/internal/protocol"
)

// StartupTransition is implemented by ProtocolHub; runIfWaitingForDebugger
// transitions the hub's startup state machine (spec.md §4.5).
type StartupTransition interface {
	RunIfWaitingForDebugger()
}

type Runtime struct {
	facade   engine.Facade
	frontend Frontend
	startup  StartupTransition
	enabled  bool
}

func NewRuntime(facade engine.Facade, frontend Frontend, startup StartupTransition) *Runtime {
	return &Runtime{facade: facade, frontend: frontend, startup: startup}
}

func (r *Runtime) Register(disp *Dispatcher) {
	disp.Register("Runtime.enable", wrapNoParams(r.Enable))
	disp.Register("Runtime.evaluate", r.handleEvaluate)
	disp.Register("Runtime.getProperties", r.handleGetProperties)
	disp.Register("Runtime.compileScript", r.handleCompileScript)
	disp.Register("Runtime.runIfWaitingForDebugger", wrapNoParams(r.RunIfWaitingForDebugger))

	for _, m := range notImplementedRuntimeMethods {
		disp.Register(m, notImplemented)
	}
}

var notImplementedRuntimeMethods = []string{
	"Runtime.awaitPromise",
	"Runtime.callFunctionOn",
	"Runtime.releaseObject",
	"Runtime.releaseObjectGroup",
	"Runtime.discardConsoleEntries",
	"Runtime.setCustomObjectFormatterEnabled",
	"Runtime.runScript",
}

// Enable is idempotent; emits executionContextCreated.
func (r *Runtime) Enable() (interface{}, error) {
	if r.enabled {
		return struct{}{}, nil
	}
	r.enabled = true
	r.frontend.Notify("Runtime.executionContextCreated", map[string]interface{}{
		"context": map[string]interface{}{"id": 1, "origin": "default", "name": "default"},
	})
	return struct{}{}, nil
}

func (r *Runtime) RunIfWaitingForDebugger() (interface{}, error) {
	if !r.enabled {
		return nil, ierrors.ErrNotEnabled
	}
	r.startup.RunIfWaitingForDebugger()
	return struct{}{}, nil
}

type evaluateParams struct {
	Expression        string `json:"expression"`
	Silent            bool   `json:"silent"`
	AwaitPromise      bool   `json:"awaitPromise"`
	ThrowOnSideEffect bool   `json:"throwOnSideEffect"`
}

func (r *Runtime) handleEvaluate(raw json.RawMessage) (interface{}, error) {
	var p evaluateParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}

	// 1. throwOnSideEffect: synthesize without ever calling the evaluator.
	if p.ThrowOnSideEffect {
		return map[string]interface{}{
			"exceptionDetails": map[string]interface{}{"text": "Possible side effects"},
		}, nil
	}
	// 2. awaitPromise unsupported.
	if p.AwaitPromise {
		return nil, ierrors.ErrNotImplemented
	}

	ctx := context.Background()

	// 3. Try frame 0.
	result, err := r.facade.EvaluateAtFrame(ctx, p.Expression, 0)
	if err == nil {
		if result.IsError {
			return map[string]interface{}{"exceptionDetails": exceptionDetails(result, r.facade)}, nil
		}
		return map[string]interface{}{"result": WrapValue(result, r.facade)}, nil
	}
	if err != engine.NotAtBreak {
		// A syntax error in the client's own expression surfaces from goja as
		// a compile error, not a *goja.Exception - EvaluateAtFrame reports it
		// as a ScriptException EngineError rather than an engine.Value. That
		// still counts as the pending-exception outcome spec.md §4.4.2 step 3
		// wants wrapped in exceptionDetails, not a method error.
		var ee *ierrors.EngineError
		if errors.As(err, &ee) && ee.Code == "ScriptException" {
			return map[string]interface{}{
				"exceptionDetails": map[string]interface{}{"text": ee.Error()},
			}, nil
		}
		return r.failEvaluate(err, p.Silent)
	}

	// 4. Global evaluation, guarded.
	guarded := fmt.Sprintf(`try{({value:eval(%q)})}catch(e){({error:e})}`, p.Expression)
	global, gerr := r.facade.EvaluateGlobal(ctx, guarded)
	if gerr != nil {
		return r.failEvaluate(gerr, p.Silent)
	}
	if global.Raw != nil {
		obj := global.Raw.ToObject(nil)
		if obj != nil {
			if v := obj.Get("value"); v != nil {
				return map[string]interface{}{"result": WrapValue(engine.Value{Raw: v}, r.facade)}, nil
			}
			if e := obj.Get("error"); e != nil {
				return map[string]interface{}{"exceptionDetails": exceptionDetails(engine.Value{Raw: e, IsError: true}, r.facade)}, nil
			}
		}
	}
	return r.failEvaluate(fmt.Errorf("evaluation produced neither value nor error"), p.Silent)
}

func (r *Runtime) failEvaluate(err error, silent bool) (interface{}, error) {
	if silent {
		return map[string]interface{}{
			"exceptionDetails": map[string]interface{}{"text": err.Error()},
		}, nil
	}
	return nil, ierrors.NewEngineError("Evaluate", err)
}

func (r *Runtime) handleGetProperties(raw json.RawMessage) (interface{}, error) {
	var p struct {
		ObjectID              json.RawMessage `json:"objectId"`
		AccessorPropertiesOnly bool           `json:"accessorPropertiesOnly"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}
	if p.AccessorPropertiesOnly {
		return map[string]interface{}{"result": []interface{}{}}, nil
	}

	// objectIds are emitted as JSON strings holding the ObjectID text; a raw
	// JSON object is accepted as well.
	text := string(p.ObjectID)
	var quoted string
	if json.Unmarshal(p.ObjectID, &quoted) == nil {
		text = quoted
	}
	id, err := protocol.ParseObjectID(text)
	if err != nil {
		return nil, ierrors.ErrInvalidObjectID
	}

	if id.IsHandle() {
		v, err := r.facade.GetObjectFromHandle(*id.Handle)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"result":            r.describeProperties(v),
			"internalProperties": r.internalProperties(v),
		}, nil
	}

	if id.IsScope() && (id.Name == "locals" || id.Name == "globals") {
		kind := engine.LocalsScope
		if id.Name == "globals" {
			kind = engine.GlobalsScope
		}
		vars, err := r.facade.GetScopeVariables(*id.Ordinal, kind)
		if err != nil && err != engine.NotAtBreak {
			return nil, err
		}
		out := make([]map[string]interface{}, 0, len(vars))
		for _, v := range vars {
			out = append(out, map[string]interface{}{
				"name":  v.Name,
				"value": WrapValue(v.Value, r.facade),
			})
		}
		return map[string]interface{}{"result": out}, nil
	}
	return nil, ierrors.ErrInvalidObjectID
}

func (r *Runtime) describeProperties(v engine.Value) []map[string]interface{} {
	obj, ok := v.Raw.(interface{ Keys() []string })
	if !ok {
		return []map[string]interface{}{}
	}
	out := make([]map[string]interface{}, 0)
	for _, k := range obj.Keys() {
		out = append(out, map[string]interface{}{"name": k, "enumerable": true})
	}
	return out
}

// internalProperties always attaches [[Prototype]] for object handles, per
// SPEC_FULL.md's original_source supplement; scope handles have none.
func (r *Runtime) internalProperties(v engine.Value) []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "[[Prototype]]", "value": map[string]interface{}{"type": "object", "subtype": "internal"}},
	}
}

func (r *Runtime) handleCompileScript(raw json.RawMessage) (interface{}, error) {
	var p struct {
		Expression    string `json:"expression"`
		SourceURL     string `json:"sourceURL"`
		PersistScript bool   `json:"persistScript"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err)
	}
	if p.PersistScript {
		return nil, ierrors.ErrNotImplemented
	}

	gf, ok := r.facade.(interface {
		LoadScript(url, src string) (*engine.Script, error)
	})
	if !ok {
		return nil, ierrors.NewEngineError("ScriptParse", fmt.Errorf("facade does not support compilation"))
	}
	// goja's Compile only ever fails with a syntax error, never a pending
	// runtime exception, so the "return it as exceptionDetails" branch of
	// spec.md §4.4.2 never applies for this engine binding; every failure
	// here is the ScriptParse method-error branch.
	if _, err := gf.LoadScript(p.SourceURL, p.Expression); err != nil {
		return nil, ierrors.NewEngineError("ScriptParse", err)
	}
	return map[string]interface{}{}, nil
}
