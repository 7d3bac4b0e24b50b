package nand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []PhysAddr{
		{Chip: 0, Block: 0, Page: 0, Sector: 0},
		{Chip: 1, Block: 1023, Page: 63, Sector: 3},
		{Chip: 1, Block: 512, Page: 32, Sector: 1},
		{Chip: 0, Block: 1, Page: 0, Sector: 2},
	}
	for _, c := range cases {
		encoded := Encode(c)
		decoded := Decode(encoded)
		assert.Equal(t, c, decoded, "round trip for %s", c)
	}
}

func TestColRowBytes(t *testing.T) {
	got := ColRowBytes(0x2AB, 0x15, 0x0102)
	require.Len(t, got, 4)
	assert.Equal(t, byte(0x02), got[0])
	assert.Equal(t, byte(0x01), got[1])
	assert.Equal(t, byte((0x2AB&0x3)<<6|0x15), got[2])
	assert.Equal(t, byte(0x2AB>>2), got[3])
}

func TestBlockBytes(t *testing.T) {
	got := BlockBytes(0x3FF)
	assert.Equal(t, [2]byte{0xFF, 0x03}, got)
}

func TestStatusBits(t *testing.T) {
	s := Status(0b10100001)
	assert.True(t, s.ProgramEraseFail())
	assert.False(t, s.CacheProgramFail())
	assert.True(t, s.PageBufferReady())
	assert.False(t, s.DataCacheReady())
	assert.True(t, s.WriteProtectDisabled())
}
