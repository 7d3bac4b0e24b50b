package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllCountersWithoutPanicking(t *testing.T) {
	c := New()
	c.CommandsTotal.WithLabelValues("read_id").Inc()
	c.BlocksBadTotal.Inc()
	c.ECCCorrectedTotal.Inc()
	c.ECCUncorrectableTotal.Inc()
	c.WriteBufferFlushTotal.Inc()

	mfs, err := c.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}
