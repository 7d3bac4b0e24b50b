// Package bus drives the NAND's asynchronous parallel bus: 8 IO lines, two
// active-low chip-enables, CLE, ALE, WE#, RE#, WP#, and the R/B# input. It
// owns no NAND-command knowledge — that lives one layer up, in
// internal/command — only the bit-level bus-cycle sequencing and its strict
// ordering (setup IO → raise CLE/ALE → drop WE#/RE# → delay → raise WE#/RE#
// → drop CLE/ALE).
package bus

import "time"

// Driver is the bus-level capability set. Three implementations satisfy
// it: Periph (native GPIO, via periph.io), FTDIBridge (a USB FT2232H/
// FT232H breakout, for bring-up before native GPIO hardware exists), and
// Sim (a trace-recording in-memory model used only in tests of bus-cycle
// ordering).
type Driver interface {
	InitPins()
	SetIODir(output bool)
	SelectChip(chip *int) error
	SetWriteProtect(enabled bool) error
	InputCommand(b byte)
	InputAddresses(addrs []byte)
	InputData(data []byte)
	OutputData(n int) []byte
	WaitReady(timeout time.Duration) bool
	Delay()
}
