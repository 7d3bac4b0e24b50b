package bus

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"

	"github.com/wipeseals/cauliflower/internal/nlog"
)

// FTDIBridge is a bus.Driver for bring-up over a USB FT2232H/FT232H
// breakout before a native microcontroller GPIO header exists: the 8
// ADBUS pins (D0-D7) drive the NAND data bus, and the 8 ACBUS pins
// (C0-C7, GPIOH on the MPSSE chip) drive CLE/ALE/WE#/RE#/WP#/R-B# and
// the two chip-enables. Grounded on gice.Device.findFT2232H/NewDevice's
// vendor/product-ID scan and d.FTDI.D4-style field access, generalized
// from SPI-port connection to raw GPIO bit-banging since the NAND core
// drives 8 discrete lines directly rather than an MPSSE SPI port.
type FTDIBridge struct {
	pinSet
	dev *ftdi.FT232H
}

// FTDI vendor/product IDs for the FT2232H, as gice.Device.findFT2232H uses.
const (
	FTDIVendorID  = 0x0403
	FTDIProductID = 0x6010
)

// NewFTDIBridge finds an attached FT2232H/FT232H by vendor/product ID and
// wires its ADBUS/ACBUS pins into a pinSet exactly like NewPeriph does for
// gpioreg-resolved pins, so the same bus-cycle engine drives either.
func NewFTDIBridge(vendorID, productID uint16, delay time.Duration, log *nlog.Logger) (*FTDIBridge, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bus: host initialization failed: %w", err)
	}

	dev, err := findFTDI(vendorID, productID)
	if err != nil {
		return nil, err
	}

	b := &FTDIBridge{pinSet: pinSet{delay: delay, log: log}, dev: dev}
	b.io = [8]gpio.PinIO{dev.D0, dev.D1, dev.D2, dev.D3, dev.D4, dev.D5, dev.D6, dev.D7}
	b.ce = [MaxCE]gpio.PinIO{dev.C0, dev.C1}
	b.cle = dev.C2
	b.ale = dev.C3
	b.we = dev.C4
	b.re = dev.C5
	b.wp = dev.C6
	b.rb = dev.C7
	return b, nil
}

func findFTDI(vendorID, productID uint16) (*ftdi.FT232H, error) {
	info := ftdi.Info{}
	for _, d := range ftdi.All() {
		d.Info(&info)
		if uint16(info.VenID) != vendorID || uint16(info.DevID) != productID {
			continue
		}
		if ft, ok := d.(*ftdi.FT232H); ok {
			return ft, nil
		}
	}
	return nil, errors.New("bus: no matching FTDI device found")
}
