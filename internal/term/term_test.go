package term

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystem(t *testing.T) {
	term := System()
	require.NotNil(t, term)
	require.Equal(t, os.Stdin, term.In())
	require.Equal(t, os.Stdout, term.Out())
	require.Equal(t, os.Stderr, term.ErrOut())
	require.Equal(t, IsTerminal(os.Stdout), term.IsTTY())
}

func TestFromIO(t *testing.T) {
	term := FromIO(new(bytes.Buffer), new(bytes.Buffer), nil)
	require.NotNil(t, term)
	require.NotNil(t, term.In())
	require.NotNil(t, term.Out())
	require.Nil(t, term.ErrOut())
	assert.False(t, term.IsTTY())

	_, _, err := term.Size()
	assert.ErrorIs(t, err, ErrNotTTY)
	assert.Equal(t, DefaultWidth, Width(term))
}

func TestTerm_Size(t *testing.T) {
	term := System()
	if term.IsTTY() {
		w, h, err := term.Size()
		require.NoError(t, err)
		require.Greater(t, w, 0)
		require.Greater(t, h, 0)
	}
}
