// Package driverselect is the boot-time factory choosing a real,
// periph.io-GPIO-backed command layer or the file/in-memory emulator,
// behind the single nand.Commander capability set — per the design notes,
// "no dynamic reflection required," just a factory picking one concrete
// type.
package driverselect

import (
	"fmt"

	"github.com/wipeseals/cauliflower/internal/bus"
	"github.com/wipeseals/cauliflower/internal/command"
	"github.com/wipeseals/cauliflower/internal/emulator"
	"github.com/wipeseals/cauliflower/internal/nand"
	"github.com/wipeseals/cauliflower/internal/nlog"
)

// Options selects and configures the driver to build.
type Options struct {
	Emulate  bool
	BaseDir  string // emulator only
	NumChip  int    // emulator only: chips that validate ReadID

	// FTDIBridge selects the USB FT2232H/FT232H bring-up driver instead
	// of native GPIO. Useful for exercising the real command layer
	// against a breakout board before a microcontroller header exists.
	FTDIBridge    bool
	FTDIVendorID  uint16 // 0 defaults to bus.FTDIVendorID
	FTDIProductID uint16 // 0 defaults to bus.FTDIProductID

	PinNames bus.PinNames
	Config   nand.Config
	Log      *nlog.Logger
}

// New builds a nand.Commander per Options.
func New(opts Options) (nand.Commander, error) {
	if opts.Emulate {
		numChip := opts.NumChip
		if numChip == 0 {
			numChip = nand.MaxChips
		}
		return emulator.New(opts.BaseDir, numChip, opts.Log)
	}

	var driver nand.Commander
	if opts.FTDIBridge {
		vendorID, productID := opts.FTDIVendorID, opts.FTDIProductID
		if vendorID == 0 {
			vendorID = bus.FTDIVendorID
		}
		if productID == 0 {
			productID = bus.FTDIProductID
		}
		b, err := bus.NewFTDIBridge(vendorID, productID, opts.Config.Delay, opts.Log)
		if err != nil {
			return nil, fmt.Errorf("driverselect: ftdi bridge driver: %w", err)
		}
		if err := b.SetWriteProtect(opts.Config.KeepWriteProtect); err != nil {
			return nil, fmt.Errorf("driverselect: set write protect: %w", err)
		}
		driver = command.New(b, opts.Config.Timeout, opts.Log)
		return driver, nil
	}

	p, err := bus.NewPeriph(opts.PinNames, opts.Config.Delay, opts.Log)
	if err != nil {
		return nil, fmt.Errorf("driverselect: real bus driver: %w", err)
	}
	if err := p.SetWriteProtect(opts.Config.KeepWriteProtect); err != nil {
		return nil, fmt.Errorf("driverselect: set write protect: %w", err)
	}
	return command.New(p, opts.Config.Timeout, opts.Log), nil
}
