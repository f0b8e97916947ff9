// Package hub implements spec.md §4.5's ProtocolHub, the concurrency core
// that owns the command queue, the startup state machine, the nested
// message-loop pump and the wire send path, and binds the domain agents to
// a dispatcher.
//
// Grounded on the teacher's server.go, which pumps a sendQueue channel
// between a TCP connection and its Debugger, and utils/status_manager.go,
// which guards a small state machine behind a mutex. Neither the teacher
// nor the rest of the pack uses a condition variable, since the teacher's
// debugger never blocks the same thread it delivers events on - this
// package adds the mutex+cond drain loop spec.md §4.5 requires, since here
// the engine callback and the nested message loop share one goroutine and
// must rendezvous through a queue instead of channels (a channel send from
// the transport goroutine could not, by itself, block the engine goroutine
// inside a synchronous debug callback).
package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/fansqz/js-inspector-bridge/internal/agents"
	"github.com/fansqz/js-inspector-bridge/internal/breakpoint"
	"github.com/fansqz/js-inspector-bridge/internal/condition"
	"github.com/fansqz/js-inspector-bridge/internal/console"
	"github.com/fansqz/js-inspector-bridge/internal/core"
	"github.com/fansqz/js-inspector-bridge/internal/engine"
	"github.com/fansqz/js-inspector-bridge/internal/idgen"
	"github.com/fansqz/js-inspector-bridge/internal/ierrors"
	"github.com/fansqz/js-inspector-bridge/internal/obs"
	"github.com/fansqz/js-inspector-bridge/internal/protocol"
)

var log = obs.For("hub")

// StartupState is spec.md §4.5's startup state machine.
type StartupState int

const (
	StartupPause StartupState = iota
	StartupContinue
	StartupRunning
)

// Hub is spec.md §4.5's ProtocolHub.
type Hub struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue                  []protocol.Command
	startupState           StartupState
	waitingForDebugger     bool
	deferredGo             bool
	processingCommandQueue bool
	isConnected            bool

	sendCB    func(string)
	arrivalCB func()

	facade     engine.Facade
	core       *core.Core
	registry   *breakpoint.Registry
	dispatcher *agents.Dispatcher

	debuggerAgent *agents.Debugger
	runtimeAgent  *agents.Runtime
	consoleAgent  *agents.Console
	schemaAgent   *agents.Schema

	sessionID string
}

// New is spec.md §6's Create(engine): construct the hub bound to a running
// engine. Fails InvalidArgument if engine is nil.
func New(facade engine.Facade) (*Hub, error) {
	if facade == nil {
		return nil, ierrors.ErrEngineRequired
	}
	h := &Hub{
		facade:       facade,
		startupState: StartupRunning,
		sessionID:    idgen.New(),
	}
	h.cond = sync.NewCond(&h.mu)

	h.registry = breakpoint.NewRegistry()
	condEval := condition.New(facade, h.registry)
	h.core = core.New(facade, h)
	h.dispatcher = agents.NewDispatcher()

	h.debuggerAgent = agents.NewDebugger(facade, h.core, h.registry, condEval, h)
	h.runtimeAgent = agents.NewRuntime(facade, h, h)
	h.consoleAgent = agents.NewConsole(h)
	h.schemaAgent = agents.NewSchema()

	log.WithField("session", h.sessionID).Info("hub created")
	return h, nil
}

// Destroy tears the hub down, idempotent to in-flight callbacks.
func (h *Hub) Destroy() {
	h.mu.Lock()
	connected := h.sendCB != nil
	h.mu.Unlock()
	if connected {
		_ = h.Disconnect()
	}
	h.core.Disable()
}

// CreateConsoleObject mints an engine-side console object bound to this
// hub's Console agent, spec.md §6's CreateConsoleObject.
func (h *Hub) CreateConsoleObject(rt *goja.Runtime) (*console.Object, error) {
	return console.Create(rt, h.consoleAgent)
}

// SetCommandQueueCallback registers a notification fired when the transport
// thread enqueues a command. Passing a nil cb clears it.
func (h *Hub) SetCommandQueueCallback(cb func()) {
	h.mu.Lock()
	h.arrivalCB = cb
	h.mu.Unlock()
}

// Connect attaches a single wire connection; only one allowed at a time.
func (h *Hub) Connect(breakOnNextLine bool, sendCB func(string)) error {
	if sendCB == nil {
		return ierrors.ErrCallbackRequired
	}
	h.mu.Lock()
	if h.sendCB != nil {
		h.mu.Unlock()
		return ierrors.ErrHandlerAlreadyConnected
	}
	h.sendCB = sendCB
	if breakOnNextLine {
		h.startupState = StartupPause
	} else {
		h.startupState = StartupContinue
	}
	h.queue = append(h.queue, protocol.ConnectCommand())
	h.mu.Unlock()

	h.facade.RequestAsyncBreak()
	return nil
}

// Disconnect detaches the wire connection.
func (h *Hub) Disconnect() error {
	h.mu.Lock()
	if h.sendCB == nil {
		h.mu.Unlock()
		return ierrors.ErrNoHandlerConnected
	}
	h.sendCB = nil
	h.queue = append(h.queue, protocol.DisconnectCommand())
	h.mu.Unlock()

	h.facade.RequestAsyncBreak()
	return nil
}

// SendCommand submits one inbound protocol message from the transport.
func (h *Hub) SendCommand(text string) error {
	if text == "" {
		return ierrors.ErrCommandRequired
	}
	h.mu.Lock()
	h.queue = append(h.queue, protocol.MessageReceived(text))
	arrival := h.arrivalCB
	h.cond.Signal()
	h.mu.Unlock()

	h.facade.RequestAsyncBreak()
	if arrival != nil {
		arrival()
	}
	return nil
}

// SendRequest implements agents.Frontend: submit an internal host-side
// control string. Unlike SendCommand, the arrival callback is never
// invoked - this is an intra-process nudge, not a protocol message.
func (h *Hub) SendRequest(text string) {
	h.mu.Lock()
	h.queue = append(h.queue, protocol.HostRequest(text))
	h.cond.Signal()
	h.mu.Unlock()

	h.facade.RequestAsyncBreak()
}

// Notify implements agents.Frontend: send an unsolicited message.
func (h *Hub) Notify(method string, params interface{}) {
	h.sendProtocolNotification(method, params)
}

// RunIfWaitingForDebugger implements agents.StartupTransition. If the
// startup state is Pause, request pause-on-next-statement; then clear
// waiting_for_debugger regardless.
func (h *Hub) RunIfWaitingForDebugger() {
	h.mu.Lock()
	pause := h.startupState == StartupPause
	h.mu.Unlock()

	if pause {
		h.core.PauseOnNextStatement()
	}

	h.mu.Lock()
	h.waitingForDebugger = false
	h.cond.Signal()
	h.mu.Unlock()
}

// Continue clears waiting_for_debugger and marks startup complete.
func (h *Hub) Continue() {
	h.mu.Lock()
	h.waitingForDebugger = false
	h.startupState = StartupRunning
	h.cond.Signal()
	h.mu.Unlock()
}

// WaitForDebugger implements core.CommandDrainer: block the engine thread
// inside a nested loop until something clears waiting_for_debugger.
func (h *Hub) WaitForDebugger() {
	h.mu.Lock()
	h.waitingForDebugger = true
	h.mu.Unlock()
	h.ProcessCommandQueue()
}

// ProcessDeferredGo implements core.CommandDrainer: if deferred_go is set,
// clear it and enqueue a synthetic Debugger.go host request.
func (h *Hub) ProcessDeferredGo() {
	h.mu.Lock()
	if h.deferredGo {
		h.deferredGo = false
		h.queue = append(h.queue, protocol.HostRequest("Debugger.go"))
		h.cond.Signal()
	}
	h.mu.Unlock()
}

// ProcessCommandQueue implements core.CommandDrainer: the drain loop,
// spec.md §4.5. Non-reentrant; always runs inside a scoped context
// activation.
func (h *Hub) ProcessCommandQueue() {
	h.mu.Lock()
	if h.processingCommandQueue {
		h.mu.Unlock()
		return
	}
	h.processingCommandQueue = true
	h.mu.Unlock()

	scope := h.facade.ActivateContext()
	defer scope.Close()
	defer func() {
		h.mu.Lock()
		h.processingCommandQueue = false
		h.mu.Unlock()
	}()

	for {
		h.mu.Lock()
		for h.waitingForDebugger && len(h.queue) == 0 {
			h.cond.Wait()
		}
		batch := h.queue
		h.queue = nil
		waiting := h.waitingForDebugger
		h.mu.Unlock()

		for _, cmd := range batch {
			h.dispatchCommand(cmd)
		}

		if !waiting && len(batch) == 0 {
			break
		}
	}
}

func (h *Hub) dispatchCommand(cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.KindConnect:
		h.mu.Lock()
		if h.isConnected {
			h.mu.Unlock()
			log.Warn("Connect command while already connected, ignoring")
			return
		}
		h.mu.Unlock()

		h.debuggerAgent.Register(h.dispatcher)
		h.runtimeAgent.Register(h.dispatcher)
		h.consoleAgent.Register(h.dispatcher)
		h.schemaAgent.Register(h.dispatcher)
		h.core.PauseOnNextStatement()

		h.mu.Lock()
		h.isConnected = true
		h.mu.Unlock()

	case protocol.KindDisconnect:
		h.mu.Lock()
		if !h.isConnected {
			h.mu.Unlock()
			return
		}
		h.mu.Unlock()

		h.dispatcher.UnregisterAll()
		h.RunIfWaitingForDebugger()

		h.mu.Lock()
		h.isConnected = false
		h.mu.Unlock()

	case protocol.KindMessageReceived:
		h.handleMessage(cmd.Text)

	case protocol.KindHostRequest:
		h.handleHostRequest(cmd.Text)
	}
}

func (h *Hub) handleMessage(text string) {
	var msg protocol.InboundMessage
	if err := json.Unmarshal([]byte(text), &msg); err != nil {
		h.sendProtocolResponse(0, nil, fmt.Errorf("%w: %v", ierrors.ErrParse, err))
		return
	}
	result, err := h.dispatcher.Dispatch(msg.Method, msg.Params)
	h.sendProtocolResponse(msg.ID, result, err)
}

// handleHostRequest implements spec.md §4.5's HostRequest dispatch. Unknown
// requests are silently ignored.
func (h *Hub) handleHostRequest(text string) {
	switch text {
	case "Debugger.go":
		h.core.ClearPauseOnNextStatement()
		h.mu.Lock()
		h.waitingForDebugger = false
		h.cond.Signal()
		h.mu.Unlock()

	case "Debugger.deferredGo":
		h.mu.Lock()
		h.deferredGo = true
		h.mu.Unlock()

	case "Debugger.stepInto":
		if err := h.facade.SetStep(engine.StepIn); err != nil && err != engine.NotAtBreak {
			log.WithError(err).Warn("step-into host request failed")
		}

	case "Console.log":
		// no-op placeholder, per spec.md §4.5.

	default:
		log.WithField("request", text).Debug("unknown host request, ignoring")
	}
}

func (h *Hub) sendProtocolResponse(id int, result interface{}, err error) {
	h.mu.Lock()
	cb := h.sendCB
	h.mu.Unlock()
	if cb == nil {
		return
	}
	resp := protocol.OutboundResponse{ID: id}
	if err != nil {
		resp.Error = &protocol.ErrorPayload{Code: errorCode(err), Message: err.Error()}
	} else {
		resp.Result = result
	}
	data, merr := json.Marshal(resp)
	if merr != nil {
		log.WithError(merr).Error("marshal protocol response")
		return
	}
	cb(string(data))
}

func (h *Hub) sendProtocolNotification(method string, params interface{}) {
	h.mu.Lock()
	cb := h.sendCB
	h.mu.Unlock()
	if cb == nil {
		return
	}
	note := protocol.OutboundNotification{Method: method, Params: params}
	data, err := json.Marshal(note)
	if err != nil {
		log.WithError(err).Error("marshal protocol notification")
		return
	}
	cb(string(data))
}

// errorCode maps an error into a wire error code, per spec.md §6/§7.
func errorCode(err error) int {
	if errors.Is(err, agents.ErrMethodNotFound) {
		return protocol.ErrCodeMethodNotFound
	}
	var kinded ierrors.Kinded
	if errors.As(err, &kinded) {
		switch kinded.Kind() {
		case ierrors.KindParse:
			return protocol.ErrCodeParseError
		case ierrors.KindInvalidArgument:
			return protocol.ErrCodeInvalidParams
		}
	}
	return protocol.ErrCodeServerError
}
