package iohelper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBody_Limit(t *testing.T) {
	t.Parallel()

	body, err := ReadBody(strings.NewReader("0123456789"), 4)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(body))
}

func TestReadBody_NilReader(t *testing.T) {
	t.Parallel()

	body, err := ReadBody(nil, 16)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestDrainAndClose_Nil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DrainAndClose(nil))
}
