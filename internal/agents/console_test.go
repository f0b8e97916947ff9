package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleOnMessageDropsWhenDisabled(t *testing.T) {
	fr := &fakeFrontend{}
	c := NewConsole(fr)
	c.OnMessage("log", "hi")
	assert.Empty(t, fr.notifications)
}

func TestConsoleOnMessageForwardsWhenEnabled(t *testing.T) {
	fr := &fakeFrontend{}
	c := NewConsole(fr)
	_, err := c.Enable()
	require.NoError(t, err)

	c.OnMessage("warn", "careful")
	require.Len(t, fr.notifications, 1)
	assert.Equal(t, "Console.messageAdded", fr.notifications[0].method)
}

func TestConsoleDisableStopsForwarding(t *testing.T) {
	fr := &fakeFrontend{}
	c := NewConsole(fr)
	_, _ = c.Enable()
	_, _ = c.Disable()

	c.OnMessage("log", "hi")
	assert.Empty(t, fr.notifications)
}
