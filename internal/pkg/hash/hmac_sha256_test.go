package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSHA256(t *testing.T) {
	_, err := NewHMACSHA256("")
	require.ErrorIs(t, err, ErrEmptySecret)

	h, err := NewHMACSHA256("current")
	require.NoError(t, err)

	digest, err := h.Hash("a@b.co", "012345")
	require.NoError(t, err)
	assert.Len(t, digest, 64)

	assert.True(t, h.Verify(digest, "a@b.co", "012345"))
	assert.False(t, h.Verify(digest, "a@b.co", "012346"))
	assert.False(t, h.Verify(digest, "x@b.co", "012345"))
	assert.False(t, h.Verify(digest, "a@b.co012345"))
}

func TestHMACSHA256_Rotation(t *testing.T) {
	old, err := NewHMACSHA256("old")
	require.NoError(t, err)
	digest, err := old.Hash("a@b.co", "999999")
	require.NoError(t, err)

	rotated, err := NewHMACSHA256("new", "old")
	require.NoError(t, err)
	assert.True(t, rotated.Verify(digest, "a@b.co", "999999"))

	fresh, err := NewHMACSHA256("new")
	require.NoError(t, err)
	assert.False(t, fresh.Verify(digest, "a@b.co", "999999"))
}
