package blockmgr

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/wipeseals/cauliflower/internal/nand"
)

// persistedState is the stable JSON record; field names are part of the
// external interface so host tooling can inspect them, per the spec.
// Bitmaps are arbitrary-precision non-negative integers, one per chip,
// LSB = block 0 — math/big.Int marshals to a bare JSON number, matching
// the original Python implementation's use of its native arbitrary
// precision ints inside json.dumps.
type persistedState struct {
	NumChip          int        `json:"num_chip"`
	BadBlockBitmaps  []*big.Int `json:"badblock_bitmaps"`
	AllocatedBitmaps []*big.Int `json:"allocated_bitmaps"`
}

func bitmapToBigInt(b bitmap) *big.Int {
	z := new(big.Int)
	for i := 0; i < nand.BlocksPerChip; i++ {
		if b.test(i) {
			z.SetBit(z, i, 1)
		}
	}
	return z
}

func bitmapFromBigInt(z *big.Int) bitmap {
	var b bitmap
	if z == nil {
		return b
	}
	for i := 0; i < nand.BlocksPerChip; i++ {
		if z.Bit(i) == 1 {
			b.set(i)
		}
	}
	return b
}

// Save persists the current bitmaps to filepath as JSON.
func (m *Manager) Save(filepath string) error {
	state := persistedState{
		NumChip:          m.numChip,
		BadBlockBitmaps:  make([]*big.Int, m.numChip),
		AllocatedBitmaps: make([]*big.Int, m.numChip),
	}
	for c := 0; c < m.numChip; c++ {
		state.BadBlockBitmaps[c] = bitmapToBigInt(m.badBlock[c])
		state.AllocatedBitmaps[c] = bitmapToBigInt(m.allocated[c])
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("blockmgr: marshal state: %w", err)
	}
	if err := os.WriteFile(filepath, data, 0o644); err != nil {
		return fmt.Errorf("blockmgr: write %s: %w", filepath, err)
	}
	m.log.Trace("blkmng\tsave\t%s", filepath)
	return nil
}

// Load restores bitmaps from filepath. A missing or malformed file is
// reported via the returned error; the caller (New) treats this as
// non-fatal and re-scans from the chips instead.
func (m *Manager) Load(filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return fmt.Errorf("blockmgr: read %s: %w", filepath, err)
	}
	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("blockmgr: unmarshal %s: %w", filepath, err)
	}

	m.numChip = state.NumChip
	for c := 0; c < m.numChip && c < nand.MaxChips; c++ {
		if c < len(state.BadBlockBitmaps) {
			m.badBlock[c] = bitmapFromBigInt(state.BadBlockBitmaps[c])
		}
		if c < len(state.AllocatedBitmaps) {
			m.allocated[c] = bitmapFromBigInt(state.AllocatedBitmaps[c])
		}
	}
	m.log.Trace("blkmng\tload\t%s", filepath)
	return nil
}
