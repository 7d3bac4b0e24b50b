// Package codec encodes a usable-area page payload into a full-page
// codeword (scramble -> ECC -> CRC -> spare layout) and decodes the
// reverse, reporting uncorrectable errors rather than guessing.
package codec

import (
	"hash/crc32"

	"github.com/wipeseals/cauliflower/internal/metrics"
	"github.com/wipeseals/cauliflower/internal/nand"
)

// Spare-area layout, within the PageSpareBytes region following the
// PageUsableBytes main area:
//
//	offset 0                      : vendor/bad-block marker byte (page 0 only; owned by the block manager, untouched here)
//	offset eccOffset              : ParityBytesPerSector * SectorsPerPage bytes of ECC parity, one block per sector
//	offset crcOffset              : 4-byte CRC32 (IEEE) of the usable area post scramble/ECC
const (
	eccOffset = 1
	eccBytes  = nand.SectorsPerPage * ParityBytesPerSector
	crcOffset = eccOffset + eccBytes
	crcBytes  = 4
)

func init() {
	if crcOffset+crcBytes > nand.PageSpareBytes {
		panic("codec: spare area layout exceeds PageSpareBytes")
	}
}

// Config toggles each pipeline stage independently.
type Config struct {
	ScrambleSeed byte
	UseScramble  bool
	UseECC       bool
	UseCRC       bool
}

// Codec transforms between a PageUsableBytes payload and a PageAllBytes
// codeword.
type Codec struct {
	cfg     Config
	metrics *metrics.Counters // nil-safe; unset in most tests
}

func New(cfg Config) *Codec {
	return &Codec{cfg: cfg}
}

// SetMetrics attaches a Counters set to record ECC corrections and
// uncorrectable errors observed on Decode.
func (c *Codec) SetMetrics(m *metrics.Counters) { c.metrics = m }

// Encode returns a PageAllBytes codeword for a PageUsableBytes payload.
func (c *Codec) Encode(payload []byte) []byte {
	if len(payload) != nand.PageUsableBytes {
		panic("codec: payload must be PageUsableBytes long")
	}

	usable := make([]byte, nand.PageUsableBytes)
	copy(usable, payload)
	if c.cfg.UseScramble {
		usable = scramble(usable, c.cfg.ScrambleSeed)
	}

	spare := make([]byte, nand.PageSpareBytes)
	if c.cfg.UseECC {
		for s := 0; s < nand.SectorsPerPage; s++ {
			sector := usable[s*nand.SectorBytes : (s+1)*nand.SectorBytes]
			parity := eccEncode(sector)
			copy(spare[eccOffset+s*ParityBytesPerSector:], parity)
		}
	}
	if c.cfg.UseCRC {
		sum := crc32.ChecksumIEEE(usable)
		spare[crcOffset] = byte(sum >> 24)
		spare[crcOffset+1] = byte(sum >> 16)
		spare[crcOffset+2] = byte(sum >> 8)
		spare[crcOffset+3] = byte(sum)
	}

	out := make([]byte, 0, nand.PageAllBytes)
	out = append(out, usable...)
	out = append(out, spare...)
	return out
}

// Decode reverses Encode. It returns (payload, true) on success, or
// (nil, false) if integrity cannot be verified after all correction
// stages (ECC double-bit-or-worse, or CRC mismatch post-correction).
func (c *Codec) Decode(codeword []byte) ([]byte, bool) {
	if len(codeword) != nand.PageAllBytes {
		panic("codec: codeword must be PageAllBytes long")
	}

	usable := make([]byte, nand.PageUsableBytes)
	copy(usable, codeword[:nand.PageUsableBytes])
	spare := codeword[nand.PageUsableBytes:]

	if c.cfg.UseECC {
		for s := 0; s < nand.SectorsPerPage; s++ {
			sector := usable[s*nand.SectorBytes : (s+1)*nand.SectorBytes]
			parity := spare[eccOffset+s*ParityBytesPerSector : eccOffset+(s+1)*ParityBytesPerSector]
			ok, corrected := eccDecode(sector, parity)
			if !ok {
				if c.metrics != nil {
					c.metrics.ECCUncorrectableTotal.Inc()
				}
				return nil, false
			}
			if corrected && c.metrics != nil {
				c.metrics.ECCCorrectedTotal.Inc()
			}
		}
	}

	if c.cfg.UseCRC {
		want := uint32(spare[crcOffset])<<24 | uint32(spare[crcOffset+1])<<16 |
			uint32(spare[crcOffset+2])<<8 | uint32(spare[crcOffset+3])
		if crc32.ChecksumIEEE(usable) != want {
			return nil, false
		}
	}

	if c.cfg.UseScramble {
		usable = scramble(usable, c.cfg.ScrambleSeed) // scrambling is its own inverse
	}
	return usable, true
}
