package agents

// Frontend is the non-owning back-reference agents hold to ProtocolHub, per
// spec.md §9's "Cyclic references between the hub and its agents": the hub
// creates and owns the agents and outlives them, and Connect/Disconnect
// only register and unregister their methods with the dispatcher, so this
// is a plain interface field, never a shared-ownership cycle.
type Frontend interface {
	// Notify sends an unsolicited {method, params} message to the client.
	Notify(method string, params interface{})
	// SendRequest submits an internal host-side control string, spec.md
	// §4.5's SendRequest - used by Debugger.resume/step* to unblock a
	// running nested loop via the "Debugger.go" host request.
	SendRequest(text string)
}
