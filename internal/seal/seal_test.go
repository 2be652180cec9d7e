package seal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, 32)
}

func TestSealRoundTrip(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	sealed, err := box.Seal("s1", "Jane Austen")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, prefix))
	assert.NotContains(t, sealed, "Austen")

	opened, err := box.Open("s1", sealed)
	require.NoError(t, err)
	assert.Equal(t, "Jane Austen", opened)
}

func TestSealIsKeyedPerServer(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	sealed, err := box.Seal("s1", "Jane Austen")
	require.NoError(t, err)

	_, err = box.Open("s2", sealed)
	assert.Error(t, err)
}

func TestSealEmptyAndLegacy(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	sealed, err := box.Seal("s1", "")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	opened, err := box.Open("s1", "written before sealing")
	require.NoError(t, err)
	assert.Equal(t, "written before sealing", opened)

	_, err = box.Open("s1", prefix+"!!!")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New([]byte("short"))
	assert.Error(t, err)
}

func TestPlain(t *testing.T) {
	var p Plain
	s, _ := p.Seal("s1", "x")
	o, _ := p.Open("s1", s)
	assert.Equal(t, "x", o)
}
