package hub

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fansqz/js-inspector-bridge/internal/enginefake"
	"github.com/fansqz/js-inspector-bridge/internal/ierrors"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) send(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, text)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestNewRejectsNilEngine(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ierrors.ErrEngineRequired)
}

func TestConnectRequiresCallback(t *testing.T) {
	h, err := New(enginefake.New())
	require.NoError(t, err)
	assert.ErrorIs(t, h.Connect(false, nil), ierrors.ErrCallbackRequired)
}

func TestConnectTwiceFails(t *testing.T) {
	h, err := New(enginefake.New())
	require.NoError(t, err)
	rec := &recorder{}

	require.NoError(t, h.Connect(false, rec.send))
	assert.ErrorIs(t, h.Connect(false, rec.send), ierrors.ErrHandlerAlreadyConnected)
}

func TestDisconnectWithoutConnectFails(t *testing.T) {
	h, err := New(enginefake.New())
	require.NoError(t, err)
	assert.ErrorIs(t, h.Disconnect(), ierrors.ErrNoHandlerConnected)
}

func TestSendCommandRequiresText(t *testing.T) {
	h, err := New(enginefake.New())
	require.NoError(t, err)
	assert.ErrorIs(t, h.SendCommand(""), ierrors.ErrCommandRequired)
}

func TestConnectDrainsAndWiresAgents(t *testing.T) {
	f := enginefake.New()
	h, err := New(f)
	require.NoError(t, err)
	rec := &recorder{}

	require.NoError(t, h.Connect(false, rec.send))
	h.ProcessCommandQueue()

	require.NoError(t, h.SendCommand(`{"id":1,"method":"Schema.getDomains"}`))
	h.ProcessCommandQueue()

	msgs := rec.all()
	require.NotEmpty(t, msgs)
	assert.True(t, strings.Contains(msgs[len(msgs)-1], `"id":1`))
	assert.True(t, strings.Contains(msgs[len(msgs)-1], "domains"))
}

func TestUnknownMethodReturnsMethodNotFoundError(t *testing.T) {
	h, err := New(enginefake.New())
	require.NoError(t, err)
	rec := &recorder{}
	require.NoError(t, h.Connect(false, rec.send))
	h.ProcessCommandQueue()

	require.NoError(t, h.SendCommand(`{"id":2,"method":"Nope.method"}`))
	h.ProcessCommandQueue()

	msgs := rec.all()
	last := msgs[len(msgs)-1]
	assert.True(t, strings.Contains(last, `"id":2`))
	assert.True(t, strings.Contains(last, "-32601"))
}

func TestMalformedJSONReturnsParseError(t *testing.T) {
	h, err := New(enginefake.New())
	require.NoError(t, err)
	rec := &recorder{}
	require.NoError(t, h.Connect(false, rec.send))
	h.ProcessCommandQueue()

	require.NoError(t, h.SendCommand(`not json`))
	h.ProcessCommandQueue()

	msgs := rec.all()
	last := msgs[len(msgs)-1]
	assert.True(t, strings.Contains(last, "-32700"))
}

func TestDisconnectTearsDownDispatch(t *testing.T) {
	h, err := New(enginefake.New())
	require.NoError(t, err)
	rec := &recorder{}
	require.NoError(t, h.Connect(false, rec.send))
	h.ProcessCommandQueue()

	require.NoError(t, h.Disconnect())
	h.ProcessCommandQueue()

	// The dispatcher was torn down; a further command is still accepted for
	// queuing, it just has nothing registered to answer it.
	assert.NoError(t, h.SendCommand("x"))
}

func TestProcessCommandQueueIsNotReentrant(t *testing.T) {
	h, err := New(enginefake.New())
	require.NoError(t, err)
	h.processingCommandQueue = true
	// Should return immediately without deadlocking on the mutex.
	h.ProcessCommandQueue()
}
