// Console domain agent. Console object plumbing itself (binding a console
// global into the engine) is an out-of-scope collaborator per spec.md §1;
// this agent only implements the protocol-facing Console.* methods and the
// notification path internal/console feeds into via OnMessage.
package agents

type Console struct {
	frontend Frontend
	enabled  bool
}

func NewConsole(frontend Frontend) *Console {
	return &Console{frontend: frontend}
}

func (c *Console) Register(disp *Dispatcher) {
	disp.Register("Console.enable", wrapNoParams(c.Enable))
	disp.Register("Console.disable", wrapNoParams(c.Disable))
	disp.Register("Console.clearMessages", wrapNoParams(c.ClearMessages))
}

func (c *Console) Enable() (interface{}, error) {
	c.enabled = true
	return struct{}{}, nil
}

func (c *Console) Disable() (interface{}, error) {
	c.enabled = false
	return struct{}{}, nil
}

func (c *Console) ClearMessages() (interface{}, error) {
	return struct{}{}, nil
}

// OnMessage is the callback internal/console invokes for every console.*
// call made from script; it forwards a Console.messageAdded notification
// when enabled, and drops the message silently otherwise (spec.md's
// FrontendChannel/agent notification pattern applied to console output).
func (c *Console) OnMessage(level, text string) {
	if !c.enabled {
		return
	}
	c.frontend.Notify("Console.messageAdded", map[string]interface{}{
		"message": map[string]interface{}{
			"level": level,
			"text":  text,
		},
	})
}
