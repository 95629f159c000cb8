package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVKCode(t *testing.T) {
	code, err := VKCode("c")
	require.NoError(t, err)
	assert.Equal(t, 0x43, code)

	code, err = VKCode("f5")
	require.NoError(t, err)
	assert.Equal(t, 0x74, code)

	code, err = VKCode("space")
	require.NoError(t, err)
	assert.Equal(t, 0x20, code)

	// Modifier-only combos have no trigger key.
	code, err = VKCode("")
	require.NoError(t, err)
	assert.Zero(t, code)

	_, err = VKCode("hyperkey")
	assert.Error(t, err)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "success", LevelSuccess.String())
	assert.Equal(t, "error", LevelError.String())
}
