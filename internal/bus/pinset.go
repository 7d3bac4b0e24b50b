package bus

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/wipeseals/cauliflower/internal/nlog"
)

// pinSet is the bus-cycle engine shared by every real-hardware Driver:
// given 8 data pins, MaxCE chip-enables, and the CLE/ALE/WE#/RE#/WP#/R-B#
// control pins (however they were resolved), it drives the exact same
// strict-ordering bus cycles. Periph resolves these through periph.io's
// gpioreg by name; FTDIBridge resolves them directly from an
// ftdi.FT232H's own GPIO fields. Both embed pinSet rather than duplicate
// this logic.
type pinSet struct {
	io  [8]gpio.PinIO
	ce  [MaxCE]gpio.PinIO
	cle gpio.PinIO
	ale gpio.PinIO
	we  gpio.PinIO
	re  gpio.PinIO
	wp  gpio.PinIO
	rb  gpio.PinIO

	delay time.Duration
	log   *nlog.Logger
}

func (p *pinSet) Delay() {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
}

func (p *pinSet) setIO(value byte) {
	for i := range p.io {
		lvl := gpio.Low
		if value&(1<<uint(i)) != 0 {
			lvl = gpio.High
		}
		p.io[i].Out(lvl)
	}
}

func (p *pinSet) getIO() byte {
	var v byte
	for i := range p.io {
		if p.io[i].Read() {
			v |= 1 << uint(i)
		}
	}
	return v
}

func (p *pinSet) SetIODir(output bool) {
	p.log.Trace("bus\tio\t%v", output)
	for _, pin := range p.io {
		if output {
			pin.Out(gpio.Low)
		} else {
			pin.In(gpio.PullNoChange, gpio.NoEdge)
		}
	}
}

func (p *pinSet) SelectChip(chip *int) error {
	if chip == nil {
		p.log.Trace("bus\tcs\tnone")
		for _, ce := range p.ce {
			if err := ce.Out(gpio.High); err != nil {
				return err
			}
		}
		return nil
	}
	if *chip < 0 || *chip >= MaxCE {
		return fmt.Errorf("bus: invalid chip select %d", *chip)
	}
	p.log.Trace("bus\tcs\t%d", *chip)
	for i, ce := range p.ce {
		lvl := gpio.High
		if i == *chip {
			lvl = gpio.Low
		}
		if err := ce.Out(lvl); err != nil {
			return err
		}
	}
	return nil
}

// SetWriteProtect drives WP# (low = protected) and settles >=100us.
func (p *pinSet) SetWriteProtect(enabled bool) error {
	lvl := gpio.High
	if enabled {
		lvl = gpio.Low
	}
	if err := p.wp.Out(lvl); err != nil {
		return err
	}
	time.Sleep(100 * time.Microsecond)
	return nil
}

func (p *pinSet) InitPins() {
	p.log.Trace("bus\tinit")
	p.SetIODir(true)
	p.SelectChip(nil)
	p.cle.Out(gpio.Low)
	p.ale.Out(gpio.Low)
	p.we.Out(gpio.High)
	p.re.Out(gpio.High)
}

func (p *pinSet) InputCommand(b byte) {
	p.setIO(b)
	p.cle.Out(gpio.High)
	p.we.Out(gpio.Low)
	p.Delay()
	p.we.Out(gpio.High)
	p.cle.Out(gpio.Low)
}

func (p *pinSet) InputAddresses(addrs []byte) {
	for _, b := range addrs {
		p.setIO(b)
		p.ale.Out(gpio.High)
		p.we.Out(gpio.Low)
		p.Delay()
		p.we.Out(gpio.High)
		p.ale.Out(gpio.Low)
	}
}

// InputData strobes each byte onto the IO lines with a plain WE# pulse
// (CLE and ALE both low) — the data-cycle phase of PAGE PROGRAM.
func (p *pinSet) InputData(data []byte) {
	for _, b := range data {
		p.setIO(b)
		p.we.Out(gpio.Low)
		p.Delay()
		p.we.Out(gpio.High)
	}
}

func (p *pinSet) OutputData(n int) []byte {
	out := make([]byte, 0, n)
	p.SetIODir(false)
	for i := 0; i < n; i++ {
		p.re.Out(gpio.Low)
		p.Delay()
		out = append(out, p.getIO())
		p.re.Out(gpio.High)
		p.Delay()
	}
	p.SetIODir(true)
	return out
}

func (p *pinSet) WaitReady(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for !p.rb.Read() {
		if time.Now().After(deadline) {
			return false
		}
	}
	return true
}
