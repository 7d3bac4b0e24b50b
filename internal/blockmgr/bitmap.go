package blockmgr

import "github.com/wipeseals/cauliflower/internal/nand"

// bitmapWords is the number of uint64 words needed to cover BlocksPerChip
// bits (1024 -> 16 words). Fixed-size word arrays are used rather than
// arbitrary-precision integers: the reference part's geometry is fixed at
// build time, so a bounded array is both simpler and avoids an unnecessary
// big-int dependency for a domain where the bit count never grows (see
// DESIGN.md for why no pack bitset library fit here either).
const bitmapWords = (nand.BlocksPerChip + 63) / 64

type bitmap [bitmapWords]uint64

func (b *bitmap) test(i int) bool {
	return b[i/64]&(1<<uint(i%64)) != 0
}

func (b *bitmap) set(i int) {
	b[i/64] |= 1 << uint(i%64)
}

func (b *bitmap) clear(i int) {
	b[i/64] &^= 1 << uint(i%64)
}

// supersetOf reports whether b has every bit that other has set — used to
// verify the allocated-bitmap-is-superset-of-badblock-bitmap invariant.
func (b *bitmap) supersetOf(other *bitmap) bool {
	for i := range b {
		if other[i]&^b[i] != 0 {
			return false
		}
	}
	return true
}
