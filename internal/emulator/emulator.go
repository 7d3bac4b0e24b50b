// Package emulator is the file-backed flash emulator used for host-side
// test runs: it implements nand.Commander directly, with no bus driver
// underneath, mirroring the original firmware's driver_sim.py (a dummy
// NandIo paired with a file-backed NandCommander that never touches bus
// cycles at all).
package emulator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wipeseals/cauliflower/internal/nand"
	"github.com/wipeseals/cauliflower/internal/nlog"
)

// Commander backs num chips' worth of blocks/pages with
// cs{CC}_block{BBBB}_page{PP}.bin files under BaseDir; missing files read
// as all-0xFF. Erase writes an all-0xFF page-0 only. Programs overwrite the
// addressed file verbatim.
type Commander struct {
	BaseDir string
	NumChip int
	log     *nlog.Logger
}

var _ nand.Commander = (*Commander)(nil)

func New(baseDir string, numChip int, log *nlog.Logger) (*Commander, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("emulator: create base dir: %w", err)
	}
	return &Commander{BaseDir: baseDir, NumChip: numChip, log: log}, nil
}

func (c *Commander) path(chip, block, page int) string {
	return filepath.Join(c.BaseDir, fmt.Sprintf("cs%02d_block%04d_page%02d.bin", chip, block, page))
}

func (c *Commander) readFile(chip, block, page int) []byte {
	data, err := os.ReadFile(c.path(chip, block, page))
	if err != nil {
		return blankPage()
	}
	return data
}

func (c *Commander) writeFile(chip, block, page int, data []byte) error {
	return os.WriteFile(c.path(chip, block, page), data, 0o644)
}

func blankPage() []byte {
	b := make([]byte, nand.PageAllBytes)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}

// ReadID synthesizes an ID that validates for chip < NumChip, all-zero
// otherwise.
func (c *Commander) ReadID(chip int) ([5]byte, error) {
	if chip < c.NumChip {
		return nand.ReadIDExpect, nil
	}
	return [5]byte{}, nil
}

func (c *Commander) ReadPage(chip, block, page, col, n int) ([]byte, bool) {
	data := c.readFile(chip, block, page)
	if col+n > len(data) {
		n = len(data) - col
	}
	out := make([]byte, n)
	copy(out, data[col:col+n])
	return out, true
}

func (c *Commander) ReadStatus(chip int) (nand.Status, error) {
	return nand.Status(0x00), nil
}

// EraseBlock writes an all-0xFF page-0 file only, per the emulator's
// specified erase semantics.
func (c *Commander) EraseBlock(chip, block int) bool {
	if err := c.writeFile(chip, block, 0, blankPage()); err != nil {
		c.log.Error("emu\terase_block\tchip=%d\tblock=%d\terr=%v", chip, block, err)
		return false
	}
	c.log.Trace("emu\terase_block\tchip=%d\tblock=%d\tok=true", chip, block)
	return true
}

func (c *Commander) ProgramPage(chip, block, page int, data []byte, col int) bool {
	if err := c.writeFile(chip, block, page, data); err != nil {
		c.log.Error("emu\tprogram_page\tchip=%d\tblock=%d\tpage=%d\terr=%v", chip, block, page, err)
		return false
	}
	c.log.Trace("emu\tprogram_page\tchip=%d\tblock=%d\tpage=%d\tok=true", chip, block, page)
	return true
}
