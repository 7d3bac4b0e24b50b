// Command nandctl is a thin CLI front end over the NAND core: it wires
// configuration flags to the library and contains no business logic of
// its own.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/wipeseals/cauliflower/internal/blockmgr"
	"github.com/wipeseals/cauliflower/internal/codec"
	"github.com/wipeseals/cauliflower/internal/driverselect"
	"github.com/wipeseals/cauliflower/internal/ftl"
	"github.com/wipeseals/cauliflower/internal/metrics"
	"github.com/wipeseals/cauliflower/internal/nand"
	"github.com/wipeseals/cauliflower/internal/nlog"
)

type context struct {
	cfg     nand.Config
	log     *nlog.Logger
	metrics *metrics.Counters
}

func (c *context) newCommander(emulate bool, baseDir string, ftdiBridge bool) (nand.Commander, error) {
	return driverselect.New(driverselect.Options{
		Emulate:    emulate,
		BaseDir:    baseDir,
		NumChip:    c.cfg.NumChipOverride,
		FTDIBridge: ftdiBridge,
		Config:     c.cfg,
		Log:        c.log,
	})
}

type idCmd struct {
	Chip int `help:"Chip select to query." default:"0"`
}

func (cmd *idCmd) Run(c *context, g *globals) error {
	commander, err := c.newCommander(g.Emulate, g.BaseDir, g.FTDIBridge)
	if err != nil {
		return err
	}
	id, err := commander.ReadID(cmd.Chip)
	if err != nil {
		return err
	}
	fmt.Printf("chip=%d id=% X\n", cmd.Chip, id)
	return nil
}

type allocCmd struct{}

func (cmd *allocCmd) Run(c *context, g *globals) error {
	commander, err := c.newCommander(g.Emulate, g.BaseDir, g.FTDIBridge)
	if err != nil {
		return err
	}
	blk, err := blockmgr.New(commander, g.AllocatorFile, c.log)
	if err != nil {
		return err
	}
	blk.SetMetrics(c.metrics)
	chip, block, err := blk.Alloc()
	if err != nil {
		return err
	}
	fmt.Printf("allocated chip=%d block=%d\n", chip, block)
	return nil
}

type freeCmd struct {
	Chip  int `help:"Chip select." required:""`
	Block int `help:"Block index." required:""`
}

func (cmd *freeCmd) Run(c *context, g *globals) error {
	commander, err := c.newCommander(g.Emulate, g.BaseDir, g.FTDIBridge)
	if err != nil {
		return err
	}
	blk, err := blockmgr.New(commander, g.AllocatorFile, c.log)
	if err != nil {
		return err
	}
	blk.SetMetrics(c.metrics)
	return blk.Free(cmd.Chip, cmd.Block)
}

type readCmd struct {
	LBA    uint64 `help:"Logical block address to read." required:""`
	Output string `help:"Output file path." short:"o" required:""`
}

func (cmd *readCmd) Run(c *context, g *globals) error {
	f, err := buildFTL(c, g)
	if err != nil {
		return err
	}
	data := f.ReadLogical(cmd.LBA)
	return os.WriteFile(cmd.Output, data, 0o644)
}

type writeCmd struct {
	LBA   uint64 `help:"Logical block address to write." required:""`
	Input string `help:"Input file path (exactly one sector)." short:"i" required:""`
}

func (cmd *writeCmd) Run(c *context, g *globals) error {
	f, err := buildFTL(c, g)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(cmd.Input)
	if err != nil {
		return err
	}
	if len(data) != nand.SectorBytes {
		return fmt.Errorf("nandctl: input must be exactly %d bytes, got %d", nand.SectorBytes, len(data))
	}
	if !f.WriteLogical(cmd.LBA, data) {
		return fmt.Errorf("nandctl: write of lba %d failed", cmd.LBA)
	}
	return nil
}

type statCmd struct{}

func (cmd *statCmd) Run(c *context, g *globals) error {
	commander, err := c.newCommander(g.Emulate, g.BaseDir, g.FTDIBridge)
	if err != nil {
		return err
	}
	blk, err := blockmgr.New(commander, g.AllocatorFile, c.log)
	if err != nil {
		return err
	}
	fmt.Printf("num_chip=%d\n", blk.NumChip())
	for chip := 0; chip < blk.NumChip(); chip++ {
		bad := 0
		for block := 0; block < nand.BlocksPerChip; block++ {
			if blk.IsBad(chip, block) {
				bad++
			}
		}
		fmt.Printf("chip=%d bad_blocks=%d/%d\n", chip, bad, nand.BlocksPerChip)
	}

	mfs, err := c.metrics.Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		fmt.Println(mf.String())
	}
	return nil
}

func buildFTL(c *context, g *globals) (*ftl.FTL, error) {
	commander, err := c.newCommander(g.Emulate, g.BaseDir, g.FTDIBridge)
	if err != nil {
		return nil, err
	}
	blk, err := blockmgr.New(commander, g.AllocatorFile, c.log)
	if err != nil {
		return nil, err
	}
	blk.SetMetrics(c.metrics)

	cd := codec.New(codec.Config{
		ScrambleSeed: c.cfg.ScrambleSeed,
		UseScramble:  c.cfg.UseScramble,
		UseECC:       c.cfg.UseECC,
		UseCRC:       c.cfg.UseCRC,
	})
	cd.SetMetrics(c.metrics)

	f := ftl.New(blk, cd, c.log)
	f.SetMetrics(c.metrics)
	return f, nil
}

// globals are flags shared by every subcommand.
type globals struct {
	Emulate       bool   `help:"Run against the file-backed emulator instead of real hardware." default:"true"`
	FTDIBridge    bool   `help:"Drive the bus over a USB FT2232H/FT232H breakout instead of native GPIO; ignored when --emulate." name:"ftdi-bridge"`
	BaseDir       string `help:"Emulator backing directory." default:"./nandctl-emu"`
	AllocatorFile string `help:"Persisted bad-block/allocated bitmap path." default:"nand_block_allocator.json"`
	Verbose       bool   `help:"Enable trace-level logging." short:"v"`

	ID    idCmd    `cmd:"" help:"Read and print a chip's ID."`
	Alloc allocCmd `cmd:"" help:"Allocate a free block."`
	Free  freeCmd  `cmd:"" help:"Free an allocated block."`
	Read  readCmd  `cmd:"" help:"Read one logical sector to a file."`
	Write writeCmd `cmd:"" help:"Write one logical sector from a file."`
	Stat  statCmd  `cmd:"" help:"Print bitmap occupancy and metrics."`
}

func main() {
	var g globals
	kctx := kong.Parse(&g,
		kong.Name("nandctl"),
		kong.Description("Control interface for the SLC NAND flash controller core."),
		kong.UsageOnError(),
	)

	level := nlog.LevelInfo
	if g.Verbose {
		level = nlog.LevelTrace
	}

	c := &context{
		cfg:     nand.DefaultConfig(),
		log:     nlog.New(level),
		metrics: metrics.New(),
	}
	c.cfg.AllocatorFile = g.AllocatorFile

	err := kctx.Run(c, &g)
	kctx.FatalIfErrorf(err)
}
