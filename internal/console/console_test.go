package console

import (
	"sync"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu   sync.Mutex
	msgs []struct{ level, text string }
}

func (s *fakeSink) OnMessage(level, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, struct{ level, text string }{level, text})
}

func (s *fakeSink) last() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return "", ""
	}
	m := s.msgs[len(s.msgs)-1]
	return m.level, m.text
}

func TestCreateBindsConsoleGlobal(t *testing.T) {
	rt := goja.New()
	sink := &fakeSink{}
	obj, err := Create(rt, sink)
	require.NoError(t, err)
	defer obj.Close()

	_, err = rt.RunString(`console.log("hello", "world")`)
	require.NoError(t, err)

	level, text := sink.last()
	assert.Equal(t, "log", level)
	assert.Equal(t, "hello world", text)
}

func TestCreateDispatchesEachLevel(t *testing.T) {
	rt := goja.New()
	sink := &fakeSink{}
	obj, err := Create(rt, sink)
	require.NoError(t, err)
	defer obj.Close()

	for _, level := range []string{"log", "warn", "error", "info"} {
		_, err := rt.RunString("console." + level + "('x')")
		require.NoError(t, err)
		got, _ := sink.last()
		assert.Equal(t, level, got)
	}
}
