// Package ftl implements the flash translation layer: logical block
// address (LBA) to physical address mapping, a page-sized write buffer
// that batches sub-page writes, and read-after-write semantics while a
// buffer is in flight.
package ftl

import (
	"github.com/wipeseals/cauliflower/internal/blockmgr"
	"github.com/wipeseals/cauliflower/internal/codec"
	"github.com/wipeseals/cauliflower/internal/metrics"
	"github.com/wipeseals/cauliflower/internal/nand"
	"github.com/wipeseals/cauliflower/internal/nlog"
)

// FTL owns an L2P mapping and a single write cursor, exactly per the
// distilled spec's read/write/unmap algorithms.
type FTL struct {
	blk     *blockmgr.Manager
	codec   *codec.Codec
	log     *nlog.Logger
	metrics *metrics.Counters // nil-safe; unset in most tests

	l2p    map[uint64]nand.PhysAddr
	cursor *nand.PhysAddr

	buf     []byte   // page-sized write buffer
	bufLBAs []uint64 // ordered LBAs currently occupying buf
}

func New(blk *blockmgr.Manager, c *codec.Codec, log *nlog.Logger) *FTL {
	return &FTL{
		blk:   blk,
		codec: c,
		log:   log,
		l2p:   make(map[uint64]nand.PhysAddr),
		buf:   make([]byte, nand.PageUsableBytes),
	}
}

// ReadLogical returns the 512-byte sector content for lba. An LBA still
// sitting in the in-flight write buffer is served from the buffer, not
// from flash — this is read-after-write before any flush has occurred.
// An unmapped LBA returns a zero-filled sector.
func (f *FTL) ReadLogical(lba uint64) []byte {
	if idx := f.bufferIndex(lba); idx >= 0 {
		out := make([]byte, nand.SectorBytes)
		copy(out, f.buf[idx*nand.SectorBytes:(idx+1)*nand.SectorBytes])
		return out
	}

	pba, ok := f.l2p[lba]
	if !ok {
		return make([]byte, nand.SectorBytes) // unmap sector
	}

	page, ok := f.blk.Read(pba.Chip, pba.Block, pba.Page, 0, nand.PageAllBytes)
	if !ok {
		f.log.Error("ftl\tread\tlba=%d pba=%s: block manager read failed", lba, pba)
		return make([]byte, nand.SectorBytes)
	}
	usable, ok := f.codec.Decode(page)
	if !ok {
		f.log.Error("ftl\tread\tlba=%d pba=%s: uncorrectable", lba, pba)
		return make([]byte, nand.SectorBytes)
	}
	start := pba.Sector * nand.SectorBytes
	out := make([]byte, nand.SectorBytes)
	copy(out, usable[start:start+nand.SectorBytes])
	return out
}

// SetMetrics attaches a Counters set to record write-buffer flushes.
func (f *FTL) SetMetrics(m *metrics.Counters) { f.metrics = m }

func (f *FTL) bufferIndex(lba uint64) int {
	// Search from the end: an LBA rewritten while the buffer is in flight
	// appears more than once, and the latest copy is the one to serve.
	for i := len(f.bufLBAs) - 1; i >= 0; i-- {
		if f.bufLBAs[i] == lba {
			return i
		}
	}
	return -1
}

// WriteLogical writes a 512-byte sector for lba, buffering sub-page
// writes and flushing (codec-encoding and programming) a full page's
// worth of sectors at a time.
func (f *FTL) WriteLogical(lba uint64, data []byte) bool {
	if len(data) != nand.SectorBytes {
		panic("ftl: WriteLogical requires exactly SectorBytes of data")
	}

	if f.cursor == nil {
		chip, block, err := f.blk.Alloc()
		if err != nil {
			f.log.Error("ftl\twrite\tlba=%d: %v", lba, err)
			return false
		}
		f.cursor = &nand.PhysAddr{Chip: chip, Block: block, Page: 0, Sector: 0}
		f.bufLBAs = f.bufLBAs[:0]
	}

	pba := *f.cursor
	f.l2p[lba] = pba
	copy(f.buf[pba.Sector*nand.SectorBytes:], data)
	f.bufLBAs = append(f.bufLBAs, lba)

	if len(f.bufLBAs) < nand.SectorsPerPage {
		f.cursor.Sector++
		return true
	}

	codeword := f.codec.Encode(f.buf)
	ok := f.blk.Program(pba.Chip, pba.Block, pba.Page, codeword, 0)
	if f.metrics != nil {
		f.metrics.WriteBufferFlushTotal.Inc()
	}
	f.bufLBAs = f.bufLBAs[:0]

	f.cursor.Sector = 0
	f.cursor.Page++
	if f.cursor.Page >= nand.PagesPerBlock {
		f.cursor = nil
	}
	if !ok {
		f.log.Error("ftl\twrite\tlba=%d pba=%s: program failed", lba, pba)
	}
	return ok
}

// Unmap removes lba from the L2P table; subsequent reads return the
// zero-filled unmap sector. The orphaned PBA is never reclaimed (garbage
// collection is out of scope).
func (f *FTL) Unmap(lba uint64) {
	delete(f.l2p, lba)
}
