package nand

import "errors"

// Sentinel errors for the fatal-initialization and allocator-invariant class
// of failure named by the error taxonomy: these always surface to the
// caller unchanged, never retried or swallowed by the owning component.
var (
	ErrNoActiveChip        = errors.New("nand: no active chip responded to read id")
	ErrBadBlockCheckFailed = errors.New("nand: bad block scan failed reading a block")
	ErrNoFreeBlock         = errors.New("nand: no free block available")
	ErrAllocatorCorrupt    = errors.New("nand: allocator invariant violated")
)
