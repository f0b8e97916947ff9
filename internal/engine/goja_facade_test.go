package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fansqz/js-inspector-bridge/internal/ierrors"
	"github.com/fansqz/js-inspector-bridge/internal/runstate"
)

func TestLoadScriptSuccess(t *testing.T) {
	g := NewGojaFacade()
	sc, err := g.LoadScript("a.js", "1+1;")
	require.NoError(t, err)
	assert.Equal(t, "a.js", sc.URL)
	assert.Contains(t, g.GetScripts(), sc)
}

func TestLoadScriptSyntaxError(t *testing.T) {
	g := NewGojaFacade()
	_, err := g.LoadScript("bad.js", "this is not js(((")
	assert.ErrorIs(t, err, ierrors.ErrParse)
}

func TestRunUpdatesRunState(t *testing.T) {
	g := NewGojaFacade()
	sc, err := g.LoadScript("a.js", "var x = 1;")
	require.NoError(t, err)

	assert.Equal(t, runstate.Init, g.RunState())
	_, err = g.Run(sc)
	require.NoError(t, err)
	assert.Equal(t, runstate.Finished, g.RunState())
}

func TestRunFailureMarksRunStateFailed(t *testing.T) {
	g := NewGojaFacade()
	sc, err := g.LoadScript("a.js", "throw new Error('boom');")
	require.NoError(t, err)

	_, err = g.Run(sc)
	require.Error(t, err)
	assert.Equal(t, runstate.Failed, g.RunState())
}

func TestHandleForRoundTrip(t *testing.T) {
	g := NewGojaFacade()
	sc, err := g.LoadScript("a.js", "({a:1})")
	require.NoError(t, err)
	v, err := g.Run(sc)
	require.NoError(t, err)

	h1 := g.HandleFor(Value{Raw: v})
	h2 := g.HandleFor(Value{Raw: v})
	assert.Equal(t, h1, h2, "same value must yield the same handle")

	got, err := g.GetObjectFromHandle(h1)
	require.NoError(t, err)
	assert.Equal(t, v, got.Raw)
}

func TestEvaluateGlobal(t *testing.T) {
	g := NewGojaFacade()
	v, err := g.EvaluateGlobal(nil, "40+2")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Raw.ToInteger())
}

func TestSetStepWithoutDebuggerIsNotAtBreak(t *testing.T) {
	g := NewGojaFacade()
	err := g.SetStep(StepOver)
	assert.Equal(t, NotAtBreak, err)
}

func TestGetStackTraceOutsidePauseIsEmpty(t *testing.T) {
	g := NewGojaFacade()
	assert.Nil(t, g.GetStackTrace())
}

func TestGetScopeVariablesOutsidePauseIsNotAtBreak(t *testing.T) {
	g := NewGojaFacade()
	_, err := g.GetScopeVariables(0, LocalsScope)
	assert.Equal(t, NotAtBreak, err)
}

func TestGetStackTraceDuringPauseReportsRealFrames(t *testing.T) {
	g := NewGojaFacade()
	sc, err := g.LoadScript("a.js", "function f(){ debugger; return 1; }\nf();")
	require.NoError(t, err)

	var captured []CallFrame
	require.NoError(t, g.StartDebugging(func(kind DebugEventKind, data EventData) SkipPauseRequest {
		captured = g.GetStackTrace()
		return SkipContinue
	}))

	_, err = g.Run(sc)
	require.NoError(t, err)

	require.NotEmpty(t, captured)
	assert.Equal(t, "f", captured[0].FunctionName)
	assert.Equal(t, sc.ID, captured[0].ScriptID)
}

func TestGetScopeVariablesDuringPauseReportsLocals(t *testing.T) {
	g := NewGojaFacade()
	sc, err := g.LoadScript("b.js", "function f(){ var x = 42; debugger; return x; }\nf();")
	require.NoError(t, err)

	var locals []Variable
	require.NoError(t, g.StartDebugging(func(kind DebugEventKind, data EventData) SkipPauseRequest {
		locals, err = g.GetScopeVariables(0, LocalsScope)
		require.NoError(t, err)
		return SkipContinue
	}))

	_, err = g.Run(sc)
	require.NoError(t, err)

	assert.NotEmpty(t, locals)
}
