package condition

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fansqz/js-inspector-bridge/internal/breakpoint"
	"github.com/fansqz/js-inspector-bridge/internal/enginefake"
	"github.com/fansqz/js-inspector-bridge/internal/engine"
	"github.com/fansqz/js-inspector-bridge/internal/protocol"
)

func setup(t *testing.T) (*enginefake.Facade, *breakpoint.Registry, *Evaluator) {
	t.Helper()
	f := enginefake.New()
	r := breakpoint.NewRegistry()
	return f, r, New(f, r)
}

func TestDecideNoMatchingBreakpointPauses(t *testing.T) {
	f, _, e := setup(t)
	_ = f
	assert.Equal(t, engine.NoSkip, e.Decide(-1))
	assert.Equal(t, engine.NoSkip, e.Decide(123))
}

func TestDecideNoConditionPauses(t *testing.T) {
	f, r, e := setup(t)
	_ = f
	bp, err := r.Insert(protocol.NominalKey{Kind: protocol.ByURL, URLOrPattern: "a.js", Line: 1})
	require.NoError(t, err)
	require.NoError(t, r.MarkResolved(bp, 5, "script#1", 1, 0))

	assert.Equal(t, engine.NoSkip, e.Decide(5))
}

func TestDecideTruthyConditionPauses(t *testing.T) {
	f, r, e := setup(t)
	bp, err := r.Insert(protocol.NominalKey{Kind: protocol.ByURL, URLOrPattern: "a.js", Line: 1, Condition: "x > 0"})
	require.NoError(t, err)
	require.NoError(t, r.MarkResolved(bp, 5, "script#1", 1, 0))

	rt := goja.New()
	f.OnEvaluateAtFrame(func(expr string, frame int) (engine.Value, error) {
		v, err := rt.RunString("true")
		return engine.Value{Raw: v}, err
	})

	assert.Equal(t, engine.NoSkip, e.Decide(5))
}

func TestDecideFalsyConditionSkips(t *testing.T) {
	f, r, e := setup(t)
	bp, err := r.Insert(protocol.NominalKey{Kind: protocol.ByURL, URLOrPattern: "a.js", Line: 1, Condition: "x > 0"})
	require.NoError(t, err)
	require.NoError(t, r.MarkResolved(bp, 5, "script#1", 1, 0))

	rt := goja.New()
	f.OnEvaluateAtFrame(func(expr string, frame int) (engine.Value, error) {
		v, err := rt.RunString("false")
		return engine.Value{Raw: v}, err
	})

	assert.Equal(t, engine.SkipContinue, e.Decide(5))
}

func TestDecideEvaluationErrorPausesAnyway(t *testing.T) {
	f, r, e := setup(t)
	bp, err := r.Insert(protocol.NominalKey{Kind: protocol.ByURL, URLOrPattern: "a.js", Line: 1, Condition: "x > 0"})
	require.NoError(t, err)
	require.NoError(t, r.MarkResolved(bp, 5, "script#1", 1, 0))

	f.OnEvaluateAtFrame(func(expr string, frame int) (engine.Value, error) {
		return engine.Value{}, engine.NotAtBreak
	})

	assert.Equal(t, engine.NoSkip, e.Decide(5))
}
