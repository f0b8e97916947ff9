// Package condition implements spec.md §4.5's "Condition evaluation on
// breakpoint": a breakpoint's condition expression is evaluated at
// call-frame 0 on the engine thread, during a break event, before the
// client is ever notified.
//
// Grounded on the teacher's go_debugger.go Command method, which similarly
// calls back into the underlying debugger (EvaluateInFrame-equivalent)
// while a break is being processed, and swallows evaluation errors rather
// than letting them escape the debug callback.
package condition

import (
	"context"

	"github.com/fansqz/js-inspector-bridge/internal/breakpoint"
	"github.com/fansqz/js-inspector-bridge/internal/engine"
	"github.com/fansqz/js-inspector-bridge/internal/obs"
)

var log = obs.For("condition")

// Evaluator decides, for a resolved breakpoint id, whether the engine
// should actually pause.
type Evaluator struct {
	facade   engine.Facade
	registry *breakpoint.Registry
}

func New(facade engine.Facade, registry *breakpoint.Registry) *Evaluator {
	return &Evaluator{facade: facade, registry: registry}
}

// Decide implements spec.md §4.5's condition-evaluation rules:
//   - no matching breakpoint or no condition string -> NoSkip (pause).
//   - condition evaluates truthy -> NoSkip (pause).
//   - condition evaluates falsy -> SkipContinue (silently resume).
//   - evaluation throws -> swallow, NoSkip (pause anyway).
func (e *Evaluator) Decide(resolvedBreakID int) engine.SkipPauseRequest {
	if resolvedBreakID < 0 {
		return engine.NoSkip
	}
	bp, ok := e.registry.FindByResolvedID(resolvedBreakID)
	if !ok || bp.Nominal.Condition == "" {
		return engine.NoSkip
	}

	result, err := e.facade.EvaluateAtFrame(context.Background(), bp.Nominal.Condition, 0)
	if err != nil {
		log.WithError(err).Debug("condition evaluation failed, pausing anyway")
		return engine.NoSkip
	}
	if result.IsError {
		log.Debug("condition raised an exception, pausing anyway")
		return engine.NoSkip
	}
	if isTruthy(result) {
		return engine.NoSkip
	}
	return engine.SkipContinue
}

func isTruthy(v engine.Value) bool {
	if v.Raw == nil {
		return false
	}
	return v.Raw.ToBoolean()
}
