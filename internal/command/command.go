// Package command sequences bit-level bus transactions into the five NAND
// operations (READ ID, PAGE READ, PAGE PROGRAM, BLOCK ERASE, STATUS READ).
// It is a pure wire layer: it never retries a failure, it only reports it.
package command

import (
	"time"

	"github.com/wipeseals/cauliflower/internal/bus"
	"github.com/wipeseals/cauliflower/internal/metrics"
	"github.com/wipeseals/cauliflower/internal/nand"
	"github.com/wipeseals/cauliflower/internal/nlog"
)

// Layer drives bus.Driver to implement nand.Commander. All commands follow
// the template: InitPins -> SelectChip(c) -> command cycles -> [WaitReady]
// -> [data cycles] -> SelectChip(nil).
type Layer struct {
	bus     bus.Driver
	timeout time.Duration
	log     *nlog.Logger
	metrics *metrics.Counters // nil-safe; unset in most tests
}

var _ nand.Commander = (*Layer)(nil)

func New(b bus.Driver, timeout time.Duration, log *nlog.Logger) *Layer {
	return &Layer{bus: b, timeout: timeout, log: log}
}

// SetMetrics attaches a Counters set to record per-operation counts. It is
// optional — a nil receiver metrics field is simply skipped.
func (l *Layer) SetMetrics(m *metrics.Counters) { l.metrics = m }

func (l *Layer) countOp(op string) {
	if l.metrics != nil {
		l.metrics.CommandsTotal.WithLabelValues(op).Inc()
	}
}

func (l *Layer) begin(chip int) {
	l.bus.InitPins()
	l.bus.SelectChip(&chip)
}

func (l *Layer) end() {
	l.bus.SelectChip(nil)
}

// ReadID issues 0x90 + address 0x00 and reads 5 bytes.
func (l *Layer) ReadID(chip int) ([5]byte, error) {
	l.countOp("read_id")
	var id [5]byte
	l.begin(chip)
	defer l.end()

	l.bus.InputCommand(nand.CmdReadID)
	l.bus.InputAddresses([]byte{0x00})
	data := l.bus.OutputData(5)
	copy(id[:], data)
	l.log.Trace("cmd\tread_id\tchip=%d\tid=% X", chip, id)
	return id, nil
}

// ReadPage issues 0x00 + 4 addr bytes + 0x30, waits for ready, then reads n
// bytes starting at col. It returns false on timeout.
func (l *Layer) ReadPage(chip, block, page, col, n int) ([]byte, bool) {
	l.countOp("read_page")
	l.begin(chip)
	defer l.end()

	addr := nand.ColRowBytes(block, page, col)
	l.bus.InputCommand(nand.CmdRead1st)
	l.bus.InputAddresses(addr[:])
	l.bus.InputCommand(nand.CmdRead2nd)

	if !l.bus.WaitReady(l.timeout) {
		l.log.Warn("cmd\tread_page\tchip=%d\tblock=%d\tpage=%d\ttimeout", chip, block, page)
		return nil, false
	}
	data := l.bus.OutputData(n)
	l.log.Trace("cmd\tread_page\tchip=%d\tblock=%d\tpage=%d\tn=%d", chip, block, page, n)
	return data, true
}

// ReadStatus issues 0x70 and reads 1 byte.
func (l *Layer) ReadStatus(chip int) (nand.Status, error) {
	l.begin(chip)
	defer l.end()

	l.bus.InputCommand(nand.CmdStatus)
	data := l.bus.OutputData(1)
	return nand.Status(data[0]), nil
}

// EraseBlock issues 0x60 + 2 addr bytes + 0xD0, waits for ready, then checks
// the status register's program/erase-fail bit.
func (l *Layer) EraseBlock(chip, block int) bool {
	l.countOp("erase_block")
	l.begin(chip)

	addr := nand.BlockBytes(block)
	l.bus.InputCommand(nand.CmdErase1st)
	l.bus.InputAddresses(addr[:])
	l.bus.InputCommand(nand.CmdErase2nd)

	if !l.bus.WaitReady(l.timeout) {
		l.end()
		l.log.Warn("cmd\terase_block\tchip=%d\tblock=%d\ttimeout", chip, block)
		return false
	}
	l.end()

	status, _ := l.ReadStatus(chip)
	ok := !status.ProgramEraseFail()
	l.log.Trace("cmd\terase_block\tchip=%d\tblock=%d\tok=%v", chip, block, ok)
	return ok
}

// ProgramPage issues 0x80 + 4 addr bytes + data + 0x10, waits for ready, then
// checks the status register's program/erase-fail bit.
func (l *Layer) ProgramPage(chip, block, page int, data []byte, col int) bool {
	l.countOp("program_page")
	l.begin(chip)

	addr := nand.ColRowBytes(block, page, col)
	l.bus.InputCommand(nand.CmdProgram1st)
	l.bus.InputAddresses(addr[:])
	l.bus.InputData(data)
	l.bus.InputCommand(nand.CmdProgram2nd)

	if !l.bus.WaitReady(l.timeout) {
		l.end()
		l.log.Warn("cmd\tprogram_page\tchip=%d\tblock=%d\tpage=%d\ttimeout", chip, block, page)
		return false
	}
	l.end()

	status, _ := l.ReadStatus(chip)
	ok := !status.ProgramEraseFail()
	l.log.Trace("cmd\tprogram_page\tchip=%d\tblock=%d\tpage=%d\tok=%v", chip, block, page, ok)
	return ok
}
