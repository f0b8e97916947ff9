package breakpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fansqz/js-inspector-bridge/internal/ierrors"
	"github.com/fansqz/js-inspector-bridge/internal/protocol"
)

func urlKey(url string, line int) protocol.NominalKey {
	return protocol.NominalKey{Kind: protocol.ByURL, URLOrPattern: url, Line: line}
}

func TestInsertRejectsDuplicateFingerprint(t *testing.T) {
	r := NewRegistry()
	key := urlKey("file.js", 10)

	_, err := r.Insert(key)
	require.NoError(t, err)

	_, err = r.Insert(key)
	assert.ErrorIs(t, err, ierrors.ErrBreakpointExists)
}

func TestRemoveIsExactlyOnce(t *testing.T) {
	r := NewRegistry()
	bp, err := r.Insert(urlKey("file.js", 10))
	require.NoError(t, err)

	removed, err := r.Remove(bp.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, bp, removed)

	_, err = r.Remove(bp.Fingerprint)
	assert.ErrorIs(t, err, ierrors.ErrBreakpointNotFound)
}

func TestMarkResolvedRejectsDuplicateResolvedID(t *testing.T) {
	r := NewRegistry()
	a, err := r.Insert(urlKey("a.js", 1))
	require.NoError(t, err)
	b, err := r.Insert(urlKey("b.js", 2))
	require.NoError(t, err)

	require.NoError(t, r.MarkResolved(a, 42, "script#1", 1, 0))
	err = r.MarkResolved(b, 42, "script#2", 2, 0)
	assert.ErrorIs(t, err, ierrors.ErrBreakpointExists)
}

func TestMarkResolvedRejectsDuplicateActualLocation(t *testing.T) {
	r := NewRegistry()
	a, err := r.Insert(urlKey("a.js", 1))
	require.NoError(t, err)
	b, err := r.Insert(urlKey("b.js", 2))
	require.NoError(t, err)

	require.NoError(t, r.MarkResolved(a, 1, "script#1", 5, 0))
	err = r.MarkResolved(b, 2, "script#1", 5, 0)
	assert.ErrorIs(t, err, ierrors.ErrBreakpointExists)
}

func TestFindByResolvedID(t *testing.T) {
	r := NewRegistry()
	bp, err := r.Insert(urlKey("a.js", 1))
	require.NoError(t, err)
	require.NoError(t, r.MarkResolved(bp, 7, "script#1", 1, 0))

	found, ok := r.FindByResolvedID(7)
	require.True(t, ok)
	assert.Equal(t, bp, found)

	_, ok = r.FindByResolvedID(999)
	assert.False(t, ok)
}

func TestClearRemovesEverything(t *testing.T) {
	r := NewRegistry()
	bp, err := r.Insert(urlKey("a.js", 1))
	require.NoError(t, err)
	require.NoError(t, r.MarkResolved(bp, 1, "script#1", 1, 0))

	r.Clear()
	assert.Empty(t, r.All())
	_, ok := r.FindByResolvedID(1)
	assert.False(t, ok)
}

func TestFingerprintDeterministic(t *testing.T) {
	a := urlKey("file.js", 10).Fingerprint()
	b := urlKey("file.js", 10).Fingerprint()
	assert.Equal(t, a, b)

	c := urlKey("file.js", 11).Fingerprint()
	assert.NotEqual(t, a, c)
}
