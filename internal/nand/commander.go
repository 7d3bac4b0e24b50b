package nand

// Commander is the capability set exposed by both the real, bus-backed
// command layer and the file-backed emulator: five operations, chosen by a
// boot-time factory rather than a build tag, with no other shared state
// between the two implementations.
type Commander interface {
	ReadID(chip int) ([5]byte, error)
	ReadPage(chip, block, page, col, n int) ([]byte, bool)
	ReadStatus(chip int) (Status, error)
	EraseBlock(chip, block int) bool
	ProgramPage(chip, block, page int, data []byte, col int) bool
}
