package agents

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/fansqz/js-inspector-bridge/internal/engine"
	"github.com/fansqz/js-inspector-bridge/internal/protocol"
)

// RemoteObject is the client-visible wrapper spec.md §4.4.3 describes.
type RemoteObject struct {
	Type        string      `json:"type"`
	Subtype     string      `json:"subtype,omitempty"`
	ClassName   string      `json:"className,omitempty"`
	Description string      `json:"description,omitempty"`
	Value       interface{} `json:"value,omitempty"`
	ObjectID    string      `json:"objectId,omitempty"`
}

const stringTruncateAt = 196

// WrapValue produces a client-visible RemoteObject, applying the
// type-specific description formatting spec.md §4.4.3 mandates. facade may
// be nil, in which case object values are wrapped without an objectId.
func WrapValue(v engine.Value, facade engine.Facade) RemoteObject {
	var handleOf func(goja.Value) (int, bool)
	if facade != nil {
		handleOf = func(raw goja.Value) (int, bool) {
			h := facade.HandleFor(engine.Value{Raw: raw})
			return h, h != 0
		}
	}
	if v.IsError {
		obj := wrap(v.Raw, handleOf)
		obj.Subtype = "error"
		return obj
	}
	return wrap(v.Raw, handleOf)
}

func wrap(raw goja.Value, handleOf func(goja.Value) (int, bool)) RemoteObject {
	if raw == nil || goja.IsUndefined(raw) {
		return RemoteObject{Type: "undefined", Description: "undefined"}
	}
	if goja.IsNull(raw) {
		return RemoteObject{Type: "object", Subtype: "null", Description: "null", Value: nil}
	}

	switch {
	case isNumber(raw):
		n := raw.ToFloat()
		return RemoteObject{Type: "number", Value: n, Description: fmt.Sprintf("%.8f", n)}
	case isString(raw):
		s := raw.String()
		return RemoteObject{Type: "string", Value: s, Description: truncate(s)}
	case isBoolean(raw):
		b := raw.ToBoolean()
		desc := "false"
		if b {
			desc = "true"
		}
		return RemoteObject{Type: "boolean", Value: b, Description: desc}
	}

	obj, isObj := raw.(*goja.Object)
	if !isObj {
		return RemoteObject{Type: "object", Description: raw.String()}
	}

	ro := RemoteObject{}
	if handleOf != nil {
		if h, ok := handleOf(raw); ok {
			ro.ObjectID = protocol.NewHandleObjectID(h).String()
		}
	}

	switch obj.ClassName() {
	case "Function":
		ro.Type = "function"
		ro.Description = "f() {...}"
	case "Array":
		ro.Type = "object"
		ro.Subtype = "array"
		ro.ClassName = "Array"
		ro.Description = "[...]"
	default:
		ro.Type = "object"
		ro.ClassName = obj.ClassName()
		ro.Description = "{...}"
	}
	return ro
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= stringTruncateAt {
		return s
	}
	return string(r[:stringTruncateAt]) + "..."
}

func isNumber(v goja.Value) bool  { return isKind(v, "float64", "int64", "int") }
func isString(v goja.Value) bool  { return isKind(v, "string") }
func isBoolean(v goja.Value) bool { return isKind(v, "bool") }

func isKind(v goja.Value, kinds ...string) bool {
	t := v.ExportType()
	if t == nil {
		return false
	}
	name := t.Kind().String()
	for _, k := range kinds {
		if name == k {
			return true
		}
	}
	return false
}
