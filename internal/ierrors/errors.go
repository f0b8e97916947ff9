// Package ierrors is the error taxonomy the rest of the module returns.
//
// The teacher's error/error.go holds one flat list of sentinel errors under
// a package literally named "error", imported everywhere under the alias e.
// This package keeps that shape (package-level sentinel values) but
// groups them by the kinds spec.md §7 names, so a caller can classify a
// failure with errors.Is against a kind's representative value or with
// Kind() when it needs the taxonomy bucket itself (e.g. to pick a protocol
// error code).
package ierrors

import "errors"

// Kind buckets an error into one of the categories from spec.md §7.
type Kind int

const (
	KindInvalidArgument Kind = iota
	KindState
	KindResolution
	KindEngine
	KindNotImplemented
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindState:
		return "State"
	case KindResolution:
		return "Resolution"
	case KindEngine:
		return "Engine"
	case KindNotImplemented:
		return "NotImplemented"
	case KindParse:
		return "Parse"
	default:
		return "Unknown"
	}
}

// Kinded is implemented by every error this package mints.
type Kinded interface {
	error
	Kind() Kind
}

type kindedError struct {
	kind Kind
	err  error
}

func (k *kindedError) Error() string { return k.err.Error() }
func (k *kindedError) Unwrap() error { return k.err }
func (k *kindedError) Kind() Kind    { return k.kind }

func newKinded(kind Kind, msg string) *kindedError {
	return &kindedError{kind: kind, err: errors.New(msg)}
}

// InvalidArgument errors: null engine, null callback, null command,
// column < 0, neither URL nor URL-regex given.
var (
	ErrEngineRequired   = newKinded(KindInvalidArgument, "engine is required")
	ErrCallbackRequired = newKinded(KindInvalidArgument, "callback is required")
	ErrCommandRequired  = newKinded(KindInvalidArgument, "command text is required")
	ErrInvalidColumn    = newKinded(KindInvalidArgument, "column number must be >= 0")
	ErrURLRequired      = newKinded(KindInvalidArgument, "exactly one of url or urlRegex is required")
	ErrInvalidArgument  = newKinded(KindInvalidArgument, "invalid argument")
)

// State errors: already-connected, not-connected, debugger/runtime not
// enabled.
var (
	ErrHandlerAlreadyConnected = newKinded(KindState, "a handler is already connected")
	ErrNoHandlerConnected      = newKinded(KindState, "no handler is connected")
	ErrNotEnabled              = newKinded(KindState, "domain is not enabled")
)

// Resolution errors.
var (
	ErrBreakpointCouldNotResolve = newKinded(KindResolution, "breakpoint could not resolve")
	ErrBreakpointExists          = newKinded(KindResolution, "breakpoint already exists")
	ErrBreakpointNotFound        = newKinded(KindResolution, "breakpoint not found")
	ErrScriptNotFound            = newKinded(KindResolution, "script not found")
	ErrScriptMustBeLoaded        = newKinded(KindResolution, "script must be loaded")
	ErrInvalidCallFrameID        = newKinded(KindResolution, "invalid call frame id")
	ErrInvalidObjectID           = newKinded(KindResolution, "invalid object id")
)

// ErrNotImplemented is the stable error for the enumerated unimplemented
// methods (spec.md §4.4.1 / §4.4.2).
var ErrNotImplemented = newKinded(KindNotImplemented, "method not implemented")

// ErrParse covers malformed protocol JSON or script-parse failures.
var ErrParse = newKinded(KindParse, "parse error")

// EngineError wraps an underlying engine diagnostic code (spec.md §4.1).
// NotAtBreak is a distinguished soft signal: step requests, Runtime.evaluate
// and getProperties on a scope treat it specially. Debugger.evaluateOnCallFrame
// does not; it wraps any evaluation error, NotAtBreak included, in an
// "Evaluate" EngineError.
type EngineError struct {
	Code string
	Err  error
}

func NewEngineError(code string, err error) *EngineError {
	return &EngineError{Code: code, Err: err}
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return "engine error [" + e.Code + "]: " + e.Err.Error()
	}
	return "engine error [" + e.Code + "]"
}

func (e *EngineError) Unwrap() error { return e.Err }
func (e *EngineError) Kind() Kind    { return KindEngine }

// Is reports whether err is (or wraps) a Kinded error of kind k.
func Is(err error, k Kind) bool {
	var kinded Kinded
	if errors.As(err, &kinded) {
		return kinded.Kind() == k
	}
	return false
}
