package protocol

import (
	"encoding/json"
	"fmt"
)

// ObjectID is the wire form described in spec.md §6: an engine-allocated
// handle wrapped as {"handle":N}, or a call-frame-scoped scope reference
// wrapped as {"ordinal":F,"name":"locals"|"globals"}. Exactly one of the two
// shapes is populated.
type ObjectID struct {
	Handle  *int   `json:"handle,omitempty"`
	Ordinal *int   `json:"ordinal,omitempty"`
	Name    string `json:"name,omitempty"`
}

// NewHandleObjectID wraps an engine object handle.
func NewHandleObjectID(handle int) ObjectID {
	h := handle
	return ObjectID{Handle: &h}
}

// NewScopeObjectID wraps a call-frame-scoped locals/globals reference.
func NewScopeObjectID(ordinal int, name string) ObjectID {
	o := ordinal
	return ObjectID{Ordinal: &o, Name: name}
}

// IsHandle reports whether this id names an engine handle.
func (o ObjectID) IsHandle() bool { return o.Handle != nil }

// IsScope reports whether this id names a call-frame scope.
func (o ObjectID) IsScope() bool { return o.Ordinal != nil }

// String renders the canonical wire text, the same JSON that marshalling an
// ObjectID produces; agents put it in a RemoteObject's objectId field.
func (o ObjectID) String() string {
	b, _ := json.Marshal(o)
	return string(b)
}

// ParseObjectID parses the wire text produced by String or by marshalling an
// ObjectID, so ParseObjectID(NewHandleObjectID(h).String()) has Handle h, per
// spec.md §8's "Round-trip of ids" law.
func ParseObjectID(text string) (ObjectID, error) {
	var o ObjectID
	if err := json.Unmarshal([]byte(text), &o); err != nil {
		return ObjectID{}, fmt.Errorf("%w: %v", errParseObjectID, err)
	}
	if o.Handle == nil && o.Ordinal == nil {
		return ObjectID{}, errParseObjectID
	}
	return o, nil
}

var errParseObjectID = fmt.Errorf("invalid objectId")

// CallFrameID is the {ordinal} shape used by evaluateOnCallFrame.
type CallFrameID struct {
	Ordinal int `json:"ordinal"`
}

func ParseCallFrameID(text string) (CallFrameID, error) {
	var c CallFrameID
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return CallFrameID{}, fmt.Errorf("%w: %v", errParseCallFrame, err)
	}
	return c, nil
}

var errParseCallFrame = fmt.Errorf("invalid callFrameId")
