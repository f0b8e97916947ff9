package agents

import (
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fansqz/js-inspector-bridge/internal/enginefake"
	"github.com/fansqz/js-inspector-bridge/internal/engine"
	"github.com/fansqz/js-inspector-bridge/internal/protocol"
)

func runValue(t *testing.T, rt *goja.Runtime, expr string) goja.Value {
	t.Helper()
	v, err := rt.RunString(expr)
	require.NoError(t, err)
	return v
}

func TestWrapValuePrimitives(t *testing.T) {
	rt := goja.New()

	num := WrapValue(engine.Value{Raw: runValue(t, rt, "3.5")}, nil)
	assert.Equal(t, "number", num.Type)
	assert.Equal(t, "3.50000000", num.Description)

	str := WrapValue(engine.Value{Raw: runValue(t, rt, `"hi"`)}, nil)
	assert.Equal(t, "string", str.Type)
	assert.Equal(t, "hi", str.Description)

	b := WrapValue(engine.Value{Raw: runValue(t, rt, "true")}, nil)
	assert.Equal(t, "boolean", b.Type)
	assert.Equal(t, "true", b.Description)

	u := WrapValue(engine.Value{Raw: goja.Undefined()}, nil)
	assert.Equal(t, "undefined", u.Type)

	n := WrapValue(engine.Value{Raw: goja.Null()}, nil)
	assert.Equal(t, "null", n.Subtype)
}

func TestWrapValueTruncatesLongStrings(t *testing.T) {
	rt := goja.New()
	long := strings.Repeat("a", 300)
	str := WrapValue(engine.Value{Raw: runValue(t, rt, `"`+long+`"`)}, nil)
	assert.True(t, strings.HasSuffix(str.Description, "..."))
	assert.Equal(t, stringTruncateAt+3, len(str.Description))
}

func TestWrapValueObjectHasObjectID(t *testing.T) {
	rt := goja.New()
	f := enginefake.New()

	obj := WrapValue(engine.Value{Raw: runValue(t, rt, "({a:1})")}, f)
	assert.Equal(t, "object", obj.Type)
	require.NotEmpty(t, obj.ObjectID)

	id, err := protocol.ParseObjectID(obj.ObjectID)
	require.NoError(t, err)
	assert.True(t, id.IsHandle())
}

func TestWrapValueFunctionAndArray(t *testing.T) {
	rt := goja.New()
	f := enginefake.New()

	fn := WrapValue(engine.Value{Raw: runValue(t, rt, "(function(){})")}, f)
	assert.Equal(t, "function", fn.Type)

	arr := WrapValue(engine.Value{Raw: runValue(t, rt, "[1,2,3]")}, f)
	assert.Equal(t, "array", arr.Subtype)
}

func TestWrapValueErrorGetsErrorSubtype(t *testing.T) {
	rt := goja.New()
	obj := WrapValue(engine.Value{Raw: runValue(t, rt, `new Error("boom")`), IsError: true}, nil)
	assert.Equal(t, "error", obj.Subtype)
}
