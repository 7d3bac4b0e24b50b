package bus

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/wipeseals/cauliflower/internal/nlog"
)

// PinNames names the physical GPIO lines a Periph driver resolves through
// periph.io's gpioreg registry, the same lookup-by-name idiom periph.io's
// own host package uses to register platform backends (sysfs, bcm283x, …)
// before any pin is addressed.
type PinNames struct {
	IO   [8]string
	CE   [MaxCE]string
	CLE  string
	ALE  string
	WE   string
	RE   string
	WP   string
	RB   string
}

// MaxCE is the number of chip-enable lines this bus drives.
const MaxCE = 2

// Periph is a bus.Driver backed by real periph.io GPIO pins, the native
// microcontroller/SBC GPIO path this spec targets (sysfs, bcm283x, …via
// periph.io/x/host/v3's auto-selected backend).
type Periph struct {
	pinSet
}

// NewPeriph runs host.Init (periph.io auto-selects the platform backend
// there), then resolves every named pin through gpioreg and returns a
// ready Periph driver.
func NewPeriph(names PinNames, delay time.Duration, log *nlog.Logger) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bus: host initialization failed: %w", err)
	}

	p := &Periph{pinSet{delay: delay, log: log}}
	resolve := func(name string, dst *gpio.PinIO) error {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return fmt.Errorf("bus: pin %q not found", name)
		}
		*dst = pin
		return nil
	}

	for i, name := range names.IO {
		if err := resolve(name, &p.io[i]); err != nil {
			return nil, err
		}
	}
	for i, name := range names.CE {
		if err := resolve(name, &p.ce[i]); err != nil {
			return nil, err
		}
	}
	for name, dst := range map[string]*gpio.PinIO{
		names.CLE: &p.cle,
		names.ALE: &p.ale,
		names.WE:  &p.we,
		names.RE:  &p.re,
		names.WP:  &p.wp,
		names.RB:  &p.rb,
	} {
		if err := resolve(name, dst); err != nil {
			return nil, err
		}
	}
	return p, nil
}
