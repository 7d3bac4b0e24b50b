// Package nand holds the geometry, wire-protocol constants and shared
// interfaces for the TC58NVG0S3HTA00-class SLC NAND core: the physical
// address layout, command bytes, status bits and the Commander capability
// set that both the real command layer and the file-backed emulator satisfy.
package nand

import "time"

// Chip geometry for the reference part (TC58NVG0S3HTA00, 2 CS).
const (
	MaxChips       = 2
	PageUsableBytes = 2048
	PageSpareBytes  = 128
	PageAllBytes    = PageUsableBytes + PageSpareBytes
	PagesPerBlock   = 64
	BlocksPerChip   = 1024
	SectorBytes     = 512
	SectorsPerPage  = PageUsableBytes / SectorBytes // 4

	sectorBits = 2
	pageBits   = 6
	blockBits  = 10
	chipBits   = 1

	sectorMask = (1 << sectorBits) - 1
	pageMask   = (1 << pageBits) - 1
	blockMask  = (1 << blockBits) - 1
	chipMask   = (1 << chipBits) - 1
)

// ReadIDExpect is the JEDEC-style ID the reference part returns for READ ID.
var ReadIDExpect = [5]byte{0x98, 0xF1, 0x80, 0x15, 0x72}

// Command bytes, per the vendor datasheet of the reference part.
const (
	CmdReadID    = 0x90
	CmdRead1st   = 0x00
	CmdRead2nd   = 0x30
	CmdErase1st  = 0x60
	CmdErase2nd  = 0xD0
	CmdStatus    = 0x70
	CmdProgram1st = 0x80
	CmdProgram2nd = 0x10
)

// Status is the one-byte response to CmdStatus.
type Status byte

func (s Status) ProgramEraseFail() bool     { return s&0x01 != 0 }
func (s Status) CacheProgramFail() bool     { return s&0x02 != 0 }
func (s Status) PageBufferReady() bool      { return s&0x20 != 0 }
func (s Status) DataCacheReady() bool       { return s&0x40 != 0 }
func (s Status) WriteProtectDisabled() bool { return s&0x80 != 0 }

// Config is the set of knobs a boot-time factory threads through the bus
// driver, command layer, emulator, and codec.
type Config struct {
	ScrambleSeed     byte
	UseScramble      bool
	UseECC           bool
	UseCRC           bool
	Delay            time.Duration
	Timeout          time.Duration
	KeepWriteProtect bool
	NumChipOverride  int // 0 = auto-detect
	AllocatorFile    string
}

// DefaultConfig mirrors the distilled spec's defaults.
func DefaultConfig() Config {
	return Config{
		ScrambleSeed:     0xA5,
		UseScramble:      true,
		UseECC:           true,
		UseCRC:           true,
		Delay:            0,
		Timeout:          1000 * time.Millisecond,
		KeepWriteProtect: true,
		NumChipOverride:  0,
		AllocatorFile:    "nand_block_allocator.json",
	}
}
