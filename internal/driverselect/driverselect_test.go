package driverselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wipeseals/cauliflower/internal/nand"
	"github.com/wipeseals/cauliflower/internal/nlog"
)

func TestNewEmulatedDriverReturnsWorkingCommander(t *testing.T) {
	cmd, err := New(Options{
		Emulate: true,
		BaseDir: t.TempDir(),
		NumChip: 1,
		Config:  nand.DefaultConfig(),
		Log:     nlog.New(nlog.LevelError),
	})
	require.NoError(t, err)

	id, err := cmd.ReadID(0)
	require.NoError(t, err)
	assert.Equal(t, nand.ReadIDExpect, id)
}

func TestNewEmulatedDriverDefaultsNumChipToMaxChips(t *testing.T) {
	cmd, err := New(Options{
		Emulate: true,
		BaseDir: t.TempDir(),
		Config:  nand.DefaultConfig(),
		Log:     nlog.New(nlog.LevelError),
	})
	require.NoError(t, err)

	id, err := cmd.ReadID(nand.MaxChips - 1)
	require.NoError(t, err)
	assert.Equal(t, nand.ReadIDExpect, id)
}
