package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectIDHandleRoundTrip(t *testing.T) {
	id := NewHandleObjectID(7)
	text := id.String()

	got, err := ParseObjectID(text)
	require.NoError(t, err)
	assert.True(t, got.IsHandle())
	assert.False(t, got.IsScope())
	assert.Equal(t, 7, *got.Handle)
}

func TestObjectIDScopeRoundTrip(t *testing.T) {
	id := NewScopeObjectID(2, "locals")
	text := id.String()

	got, err := ParseObjectID(text)
	require.NoError(t, err)
	assert.True(t, got.IsScope())
	assert.False(t, got.IsHandle())
	assert.Equal(t, 2, *got.Ordinal)
	assert.Equal(t, "locals", got.Name)
}

func TestParseObjectIDRejectsEmptyShape(t *testing.T) {
	_, err := ParseObjectID(`{}`)
	assert.Error(t, err)
}

func TestParseObjectIDRejectsGarbage(t *testing.T) {
	_, err := ParseObjectID(`not json`)
	assert.Error(t, err)
}

func TestParseCallFrameID(t *testing.T) {
	c, err := ParseCallFrameID(`{"ordinal":3}`)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Ordinal)
}

func TestFingerprintIsDeterministic(t *testing.T) {
	k := NominalKey{Kind: ByURL, URLOrPattern: "a.js", Line: 10, Column: 0, Condition: "x>1"}
	assert.Equal(t, k.Fingerprint(), k.Fingerprint())
}

func TestFingerprintDiffersOnAnyField(t *testing.T) {
	base := NominalKey{Kind: ByURL, URLOrPattern: "a.js", Line: 10, Column: 0, Condition: ""}
	variants := []NominalKey{
		{Kind: ByURLRegex, URLOrPattern: base.URLOrPattern, Line: base.Line, Column: base.Column},
		{Kind: base.Kind, URLOrPattern: "b.js", Line: base.Line, Column: base.Column},
		{Kind: base.Kind, URLOrPattern: base.URLOrPattern, Line: 11, Column: base.Column},
		{Kind: base.Kind, URLOrPattern: base.URLOrPattern, Line: base.Line, Column: 1},
		{Kind: base.Kind, URLOrPattern: base.URLOrPattern, Line: base.Line, Column: base.Column, Condition: "x>2"},
	}
	for _, v := range variants {
		assert.NotEqual(t, base.Fingerprint(), v.Fingerprint())
	}
}

func TestCommandConstructors(t *testing.T) {
	assert.Equal(t, KindConnect, ConnectCommand().Kind)
	assert.Equal(t, KindDisconnect, DisconnectCommand().Kind)

	m := MessageReceived(`{"id":1}`)
	assert.Equal(t, KindMessageReceived, m.Kind)
	assert.Equal(t, `{"id":1}`, m.Text)

	h := HostRequest("Debugger.go")
	assert.Equal(t, KindHostRequest, h.Kind)
	assert.Equal(t, "Debugger.go", h.Text)
}
