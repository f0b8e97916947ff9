package agents

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchUnknownMethod(t *testing.T) {
	d := NewDispatcher()
	_, err := d.Dispatch("Nope.method", nil)
	assert.ErrorIs(t, err, ErrMethodNotFound)
}

func TestDispatchInvokesHandler(t *testing.T) {
	d := NewDispatcher()
	d.Register("Foo.bar", func(p json.RawMessage) (interface{}, error) {
		return string(p), nil
	})

	result, err := d.Dispatch("Foo.bar", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, result)
}

func TestUnregisterAllClearsHandlers(t *testing.T) {
	d := NewDispatcher()
	d.Register("Foo.bar", func(json.RawMessage) (interface{}, error) { return nil, nil })
	d.UnregisterAll()

	_, err := d.Dispatch("Foo.bar", nil)
	assert.ErrorIs(t, err, ErrMethodNotFound)
}

func TestRegisterTwiceReplacesHandler(t *testing.T) {
	d := NewDispatcher()
	d.Register("Foo.bar", func(json.RawMessage) (interface{}, error) { return "first", nil })
	d.Register("Foo.bar", func(json.RawMessage) (interface{}, error) { return "second", nil })

	result, err := d.Dispatch("Foo.bar", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", result)
}
