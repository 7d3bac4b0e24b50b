package nand

import "fmt"

// PhysAddr is a physical (chip, block, page, sector) tuple.
type PhysAddr struct {
	Chip   int
	Block  int
	Page   int
	Sector int
}

func (p PhysAddr) String() string {
	return fmt.Sprintf("chip=%d block=%d page=%d sector=%d", p.Chip, p.Block, p.Page, p.Sector)
}

// Encode packs a PhysAddr into its integer layout: chip | block | page | sector
// (MSB to LSB). Decode is the exact inverse.
func Encode(p PhysAddr) uint32 {
	addr := uint32(p.Chip) & chipMask
	addr <<= blockBits
	addr |= uint32(p.Block) & blockMask
	addr <<= pageBits
	addr |= uint32(p.Page) & pageMask
	addr <<= sectorBits
	addr |= uint32(p.Sector) & sectorMask
	return addr
}

// Decode is the exact inverse of Encode.
func Decode(addr uint32) PhysAddr {
	sector := int(addr & sectorMask)
	addr >>= sectorBits
	page := int(addr & pageMask)
	addr >>= pageBits
	block := int(addr & blockMask)
	addr >>= blockBits
	chip := int(addr & chipMask)
	return PhysAddr{Chip: chip, Block: block, Page: page, Sector: sector}
}

// ColRowBytes builds the 4-byte column+row address cycles used by READ and
// PROGRAM: col[7:0], col[15:8], (block[1:0]<<6)|page[5:0], block[10:2].
func ColRowBytes(block, page, col int) [4]byte {
	return [4]byte{
		byte(col & 0xFF),
		byte((col >> 8) & 0xFF),
		byte(((block & 0x3) << 6) | (page & 0x3F)),
		byte((block >> 2) & 0xFF),
	}
}

// BlockBytes builds the 2-byte block-only address cycles used by ERASE:
// block[7:0], block[15:8].
func BlockBytes(block int) [2]byte {
	return [2]byte{byte(block & 0xFF), byte((block >> 8) & 0xFF)}
}
