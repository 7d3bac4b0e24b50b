package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimInitPinsResetsSelection(t *testing.T) {
	s := NewSim()
	chip := 1
	_ = s.SelectChip(&chip)
	s.InitPins()
	assert.Nil(t, s.selected)
}

func TestSimOutputDataRestoresOutputDirection(t *testing.T) {
	s := NewSim()
	s.InitPins()
	_ = s.OutputData(4)
	assert.True(t, s.ioDirOutput, "IO direction must be restored to output after OutputData")
}

func TestSimTraceOrdering(t *testing.T) {
	s := NewSim()
	s.InitPins()
	chip := 0
	_ = s.SelectChip(&chip)
	s.InputCommand(0x90)
	s.InputAddresses([]byte{0x00})
	_ = s.OutputData(5)
	_ = s.SelectChip(nil)

	assert.Equal(t, []string{"init", "cs:select", "cmd", "addr", "dout", "cs:none"}, s.Trace)
}

func TestSimWaitReadyDefaultsToReady(t *testing.T) {
	s := NewSim()
	assert.True(t, s.WaitReady(0))
}
