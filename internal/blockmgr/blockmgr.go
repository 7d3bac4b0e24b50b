// Package blockmgr tracks which physical blocks exist, which are bad, and
// which are allocated to the layer above, persisting that state as JSON so
// a bad-block scan need not be repeated on every boot.
package blockmgr

import (
	"fmt"

	"github.com/wipeseals/cauliflower/internal/metrics"
	"github.com/wipeseals/cauliflower/internal/nand"
	"github.com/wipeseals/cauliflower/internal/nlog"
)

// Manager owns one bitmap pair per chip: badBlock marks blocks the factory
// or a failed erase condemned, allocated marks blocks currently handed out.
// allocated is always a superset of badBlock — a bad block is permanently
// "allocated" so it can never be picked again.
type Manager struct {
	cmd           nand.Commander
	log           *nlog.Logger
	allocatorFile string
	metrics       *metrics.Counters // nil-safe; unset in most tests

	numChip   int
	badBlock  [nand.MaxChips]bitmap
	allocated [nand.MaxChips]bitmap
}

// New builds a Manager over cmd. It first tries to load persisted state
// from allocatorFile; failing that, it auto-detects chips via ReadID and
// scans every block's page-0 first byte for the bad-block marker.
func New(cmd nand.Commander, allocatorFile string, log *nlog.Logger) (*Manager, error) {
	m := &Manager{cmd: cmd, log: log, allocatorFile: allocatorFile}

	if err := m.Load(allocatorFile); err == nil {
		if err := m.checkInvariants(); err != nil {
			return nil, err
		}
		m.log.Info("blkmng\tinit\tloaded persisted state for %d chip(s)", m.numChip)
		return m, nil
	}

	if err := m.detectAndScan(); err != nil {
		return nil, err
	}
	if err := m.Save(allocatorFile); err != nil {
		m.log.Warn("blkmng\tinit\tpersist failed: %v", err)
	}
	return m, nil
}

// checkInvariants verifies allocated is a superset of badBlock for every
// tracked chip — a bad block must never appear free, whether that state
// came from a fresh scan or was loaded from disk.
func (m *Manager) checkInvariants() error {
	for chip := 0; chip < m.numChip; chip++ {
		if !m.allocated[chip].supersetOf(&m.badBlock[chip]) {
			return fmt.Errorf("blkmng: chip %d: %w (allocated is not a superset of badblock)", chip, nand.ErrAllocatorCorrupt)
		}
	}
	return nil
}

// detectAndScan probes for responding chips via ReadID, counting consecutive
// matches, then scans every block of every detected chip for the bad-block
// marker (a non-0xFF first byte of page 0). Zero responding chips, or any
// read failure during the scan, is a fatal initialization error.
func (m *Manager) detectAndScan() error {
	numChip := 0
	for chip := 0; chip < nand.MaxChips; chip++ {
		id, err := m.cmd.ReadID(chip)
		if err != nil || id != nand.ReadIDExpect {
			break
		}
		numChip++
	}
	if numChip == 0 {
		return nand.ErrNoActiveChip
	}
	m.numChip = numChip

	for chip := 0; chip < numChip; chip++ {
		var bad bitmap
		for block := 0; block < nand.BlocksPerChip; block++ {
			data, ok := m.cmd.ReadPage(chip, block, 0, 0, 1)
			if !ok {
				return fmt.Errorf("blkmng: chip %d block %d: %w", chip, block, nand.ErrBadBlockCheckFailed)
			}
			if data[0] != 0xFF {
				bad.set(block)
			}
		}
		m.badBlock[chip] = bad
		m.allocated[chip] = bad // bad blocks start permanently allocated
		m.log.Debug("blkmng\tscan\tchip=%d bad_blocks=%d", chip, popcount(&bad))
	}
	return nil
}

func popcount(b *bitmap) int {
	n := 0
	for i := 0; i < nand.BlocksPerChip; i++ {
		if b.test(i) {
			n++
		}
	}
	return n
}

func (m *Manager) checkChip(chip int) error {
	if chip < 0 || chip >= m.numChip {
		return fmt.Errorf("blkmng: chip %d out of range [0,%d)", chip, m.numChip)
	}
	return nil
}

// SetMetrics attaches a Counters set to record bad-block demotions.
func (m *Manager) SetMetrics(c *metrics.Counters) { m.metrics = c }

// NumChip returns the number of active chips this manager tracks.
func (m *Manager) NumChip() int { return m.numChip }

// IsBad reports whether block is marked bad on chip.
func (m *Manager) IsBad(chip, block int) bool {
	return m.badBlock[chip].test(block)
}

// Alloc performs a linear scan of chips, then blocks within each chip,
// selecting the first block that is neither allocated nor bad. It erases
// that block via the command layer: on success the block is marked
// allocated, the state persisted, and (chip, block) returned. On erase
// failure the block is marked bad (it stays allocated for life, never
// freed) and the scan continues. ErrNoFreeBlock is returned if nothing
// erasable is found (garbage collection is out of scope).
func (m *Manager) Alloc() (chip, block int, err error) {
	for chip = 0; chip < m.numChip; chip++ {
		for block = 0; block < nand.BlocksPerChip; block++ {
			if m.allocated[chip].test(block) {
				continue
			}
			if m.cmd.EraseBlock(chip, block) {
				m.allocated[chip].set(block)
				m.log.Trace("blkmng\talloc\tchip=%d block=%d", chip, block)
				if err := m.Save(m.allocatorFile); err != nil {
					m.log.Warn("blkmng\talloc\tpersist failed: %v", err)
				}
				return chip, block, nil
			}
			m.badBlock[chip].set(block)
			m.allocated[chip].set(block)
			if m.metrics != nil {
				m.metrics.BlocksBadTotal.Inc()
			}
			m.log.Warn("blkmng\talloc\tchip=%d block=%d erase failed, demoted to bad", chip, block)
		}
	}
	return 0, 0, nand.ErrNoFreeBlock
}

// Free releases block back to the free pool. Freeing a block that is bad,
// or that was never allocated, violates the allocator's invariants and is
// reported via ErrAllocatorCorrupt rather than silently accepted.
func (m *Manager) Free(chip, block int) error {
	if err := m.checkChip(chip); err != nil {
		return err
	}
	if m.badBlock[chip].test(block) {
		return fmt.Errorf("blkmng: free chip=%d block=%d: %w (block is bad)", chip, block, nand.ErrAllocatorCorrupt)
	}
	if !m.allocated[chip].test(block) {
		return fmt.Errorf("blkmng: free chip=%d block=%d: %w (double free)", chip, block, nand.ErrAllocatorCorrupt)
	}
	m.allocated[chip].clear(block)
	m.log.Trace("blkmng\tfree\tchip=%d block=%d", chip, block)
	if err := m.Save(m.allocatorFile); err != nil {
		m.log.Warn("blkmng\tfree\tpersist failed: %v", err)
	}
	return nil
}

// Read reads n bytes at column col of (chip, block, page).
func (m *Manager) Read(chip, block, page, col, n int) ([]byte, bool) {
	return m.cmd.ReadPage(chip, block, page, col, n)
}

// Program writes data at column col of (chip, block, page).
func (m *Manager) Program(chip, block, page int, data []byte, col int) bool {
	return m.cmd.ProgramPage(chip, block, page, data, col)
}
