package bus

import "time"

// Sim is an in-memory bus model that records one Trace event per bus call,
// used to exercise bus-cycle ordering and direction-switching invariants in
// tests; it knows nothing about NAND commands, stays ready, and OutputData
// always returns zeroed bytes. The file-backed flash emulator in
// internal/emulator does not use Sim — it implements the command-layer
// Commander interface directly, the same way the original firmware's
// driver_sim.py paired a no-op NandIo with a file-backed NandCommander that
// never touched bus cycles at all.
type Sim struct {
	ioDirOutput bool
	selected    *int
	wp          bool
	io          byte
	rb          bool // true == ready

	// Trace records every bus-cycle event, for ordering assertions in tests.
	Trace []string
}

func NewSim() *Sim {
	return &Sim{ioDirOutput: true, rb: true}
}

func (s *Sim) InitPins() {
	s.Trace = append(s.Trace, "init")
	s.ioDirOutput = true
	s.selected = nil
}

func (s *Sim) SetIODir(output bool) {
	if output {
		s.Trace = append(s.Trace, "io:out")
	} else {
		s.Trace = append(s.Trace, "io:in")
	}
	s.ioDirOutput = output
}

func (s *Sim) SelectChip(chip *int) error {
	if chip == nil {
		s.Trace = append(s.Trace, "cs:none")
		s.selected = nil
		return nil
	}
	s.Trace = append(s.Trace, "cs:select")
	c := *chip
	s.selected = &c
	return nil
}

func (s *Sim) SetWriteProtect(enabled bool) error {
	s.wp = enabled
	s.Trace = append(s.Trace, "wp")
	return nil
}

func (s *Sim) InputCommand(b byte) {
	s.Trace = append(s.Trace, "cmd")
	s.io = b
}

func (s *Sim) InputAddresses(addrs []byte) {
	s.Trace = append(s.Trace, "addr")
	if len(addrs) > 0 {
		s.io = addrs[len(addrs)-1]
	}
}

func (s *Sim) InputData(data []byte) {
	s.Trace = append(s.Trace, "data")
	if len(data) > 0 {
		s.io = data[len(data)-1]
	}
}

func (s *Sim) OutputData(n int) []byte {
	s.Trace = append(s.Trace, "dout")
	s.ioDirOutput = false
	out := make([]byte, n)
	s.ioDirOutput = true
	return out
}

func (s *Sim) WaitReady(timeout time.Duration) bool {
	return s.rb
}

func (s *Sim) Delay() {}
