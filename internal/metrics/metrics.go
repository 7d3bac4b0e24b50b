// Package metrics wires a small set of Prometheus counters over the core:
// observability that decorates calls without changing return values or
// control flow, read back only by the `nandctl stat` subcommand.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counters for command-layer and FTL activity. Registered into a private
// registry rather than the global default so multiple *Commander/FTL
// instances (e.g. in tests) don't collide on duplicate registration.
type Counters struct {
	Registry *prometheus.Registry

	CommandsTotal         *prometheus.CounterVec
	BlocksBadTotal        prometheus.Counter
	ECCCorrectedTotal     prometheus.Counter
	ECCUncorrectableTotal prometheus.Counter
	WriteBufferFlushTotal prometheus.Counter
}

// New builds a fresh Counters set registered into its own registry.
func New() *Counters {
	reg := prometheus.NewRegistry()

	c := &Counters{
		Registry: reg,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nand_commands_total",
			Help: "NAND commands issued by the command layer, by operation.",
		}, []string{"op"}),
		BlocksBadTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nand_blocks_bad_total",
			Help: "Blocks demoted to bad after an erase failure.",
		}),
		ECCCorrectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nand_ecc_corrected_total",
			Help: "Sectors with a single-bit error corrected by the codec.",
		}),
		ECCUncorrectableTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nand_ecc_uncorrectable_total",
			Help: "Sectors whose ECC error the codec could not correct on decode.",
		}),
		WriteBufferFlushTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nand_write_buffer_flush_total",
			Help: "FTL write-buffer flushes (full-page programs).",
		}),
	}

	reg.MustRegister(c.CommandsTotal, c.BlocksBadTotal, c.ECCCorrectedTotal,
		c.ECCUncorrectableTotal, c.WriteBufferFlushTotal)
	return c
}
