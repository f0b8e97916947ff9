// Package agents implements spec.md §4.4's domain agents (Debugger, Runtime,
// Console, Schema) plus the small Dispatcher abstraction ProtocolHub binds
// them to. Method registration/lookup mirrors the shape of the teacher's
// handler.go dispatchRequest switch, generalized from a fixed switch
// statement to a registration map since spec.md treats "domain dispatch
// glue" as an external collaborator the core only needs an abstract
// interface for.
package agents

import (
	"encoding/json"
	"fmt"
)

// HandlerFunc executes one protocol method call. params is the raw JSON
// params object (nil if omitted); the returned value is marshalled as the
// response's result.
type HandlerFunc func(params json.RawMessage) (interface{}, error)

// Dispatcher parses an inbound JSON message and invokes a handler on a
// domain agent, spec.md §1's "Domain dispatch glue" collaborator. This is
// the concrete implementation ProtocolHub binds agents to at Connect time.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Register binds "<Domain>.<method>" to h. Registering the same method
// twice replaces the previous handler, matching ProtocolHub's Connect
// re-wiring the agents on every new connection.
func (d *Dispatcher) Register(method string, h HandlerFunc) {
	d.handlers[method] = h
}

// UnregisterAll removes every handler, used at Disconnect.
func (d *Dispatcher) UnregisterAll() {
	d.handlers = make(map[string]HandlerFunc)
}

// ErrMethodNotFound is returned by Dispatch when no handler is registered
// for the method.
var ErrMethodNotFound = fmt.Errorf("method not found")

// Dispatch looks up and invokes the handler for method.
func (d *Dispatcher) Dispatch(method string, params json.RawMessage) (interface{}, error) {
	h, ok := d.handlers[method]
	if !ok {
		return nil, ErrMethodNotFound
	}
	return h(params)
}
