// Package console implements the "Console object plumbing" collaborator
// spec.md §1 places out of the core's scope: minting an engine-side console
// object and piping its output back through the adapter.
//
// Grounded on the teacher's debugger/go_debugger/go_debugger.go, which binds
// a subprocess's stdout/stderr to an OutputEvent sink; here the sink is fed
// directly from the console global's own Go-native methods rather than a
// pty, since goja runs the script in-process and its console.log calls
// never touch a file descriptor the way a compiled subprocess's stdout does.
package console

import (
	"github.com/dop251/goja"

	"github.com/fansqz/js-inspector-bridge/internal/obs"
)

var log = obs.For("console")

// Sink receives every console.* call, one per Go call, already split into
// level and text.
type Sink interface {
	OnMessage(level, text string)
}

// Object binds a console global into rt and pipes its output through sink.
type Object struct {
	sink Sink
}

// Create mints a new console object bound to rt and sink, per spec.md §6's
// CreateConsoleObject.
func Create(rt *goja.Runtime, sink Sink) (*Object, error) {
	obj := &Object{sink: sink}

	console := rt.NewObject()
	for _, level := range []string{"log", "warn", "error", "info"} {
		lvl := level
		_ = console.Set(lvl, func(call goja.FunctionCall) goja.Value {
			text := ""
			for i, arg := range call.Arguments {
				if i > 0 {
					text += " "
				}
				text += arg.String()
			}
			obj.sink.OnMessage(lvl, text)
			return goja.Undefined()
		})
	}
	if err := rt.Set("console", console); err != nil {
		return nil, err
	}

	log.Debug("console object bound")
	return obj, nil
}

// Close is a no-op that lets callers scope an Object's lifetime with defer;
// there is no resource here to release.
func (o *Object) Close() {}
