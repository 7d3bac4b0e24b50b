package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wipeseals/cauliflower/internal/nand"
	"github.com/wipeseals/cauliflower/internal/nlog"
)

func newTestCommander(t *testing.T) *Commander {
	t.Helper()
	c, err := New(t.TempDir(), 2, nlog.New(nlog.LevelError))
	require.NoError(t, err)
	return c
}

func TestReadIDValidatesOnlyConfiguredChips(t *testing.T) {
	c := newTestCommander(t)
	id, err := c.ReadID(0)
	require.NoError(t, err)
	assert.Equal(t, nand.ReadIDExpect, id)

	id, err = c.ReadID(5)
	require.NoError(t, err)
	assert.Equal(t, [5]byte{}, id)
}

func TestUnwrittenPageReadsAsBlank(t *testing.T) {
	c := newTestCommander(t)
	data, ok := c.ReadPage(0, 3, 7, 0, nand.PageAllBytes)
	require.True(t, ok)
	for _, b := range data {
		assert.Equal(t, byte(0xFF), b)
	}
}

func TestProgramThenReadRoundTrip(t *testing.T) {
	c := newTestCommander(t)
	payload := make([]byte, nand.PageAllBytes)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.True(t, c.ProgramPage(0, 1, 2, payload, 0))

	got, ok := c.ReadPage(0, 1, 2, 0, nand.PageAllBytes)
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestEraseBlockTruncatesOnlyPageZero(t *testing.T) {
	c := newTestCommander(t)
	payload := make([]byte, nand.PageAllBytes)
	for i := range payload {
		payload[i] = 0x42
	}
	require.True(t, c.ProgramPage(0, 1, 0, payload, 0))
	require.True(t, c.ProgramPage(0, 1, 1, payload, 0))

	require.True(t, c.EraseBlock(0, 1))

	page0, _ := c.ReadPage(0, 1, 0, 0, nand.PageAllBytes)
	for _, b := range page0 {
		assert.Equal(t, byte(0xFF), b)
	}

	page1, _ := c.ReadPage(0, 1, 1, 0, nand.PageAllBytes)
	assert.Equal(t, payload, page1, "erase semantics only rewrite page 0 in this emulator")
}
