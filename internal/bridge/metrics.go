package bridge

import (
	"github.com/prometheus/client_golang/prometheus"

	"sqlport/internal/wire"
)

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlport_commands_total",
			Help: "Total number of protocol commands processed.",
		},
		[]string{"command", "status"},
	)

	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlport_command_duration_seconds",
			Help:    "Command handling duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	openStatements = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sqlport_open_statements",
			Help: "Number of prepared statements currently held in the registry.",
		},
	)

	commandErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlport_command_errors_total",
			Help: "Total number of error responses, by error kind.",
		},
		[]string{"kind"},
	)
)

// unknownCommand is the metric label for lines that do not carry a
// recognized command tag; client input never becomes a label value.
const unknownCommand = "unknown"

func init() {
	prometheus.MustRegister(commandsTotal)
	prometheus.MustRegister(commandDuration)
	prometheus.MustRegister(openStatements)
	prometheus.MustRegister(commandErrors)

	// Pre-initialize label combinations so they appear in /metrics before the
	// first command of each kind arrives.
	for _, cmd := range []string{
		wire.CmdBegin, wire.CmdClose, wire.CmdCommit, wire.CmdDeallocate,
		wire.CmdDeclare, wire.CmdExecute, wire.CmdFetch, wire.CmdPrepare,
		wire.CmdRollback, wire.CmdStatus, unknownCommand,
	} {
		commandsTotal.WithLabelValues(cmd, wire.StatusOK)
		commandsTotal.WithLabelValues(cmd, wire.StatusError)
	}
}
