package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InitiationsTotal counts escrow initiations by token and status
	InitiationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_initiations_total",
			Help: "Total number of escrow transactions initiated",
		},
		[]string{"token", "status"},
	)

	// SettlementsTotal counts settled transactions by outcome
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_settlements_total",
			Help: "Total number of settled transactions",
		},
		[]string{"token", "outcome"},
	)

	// FeesCollected counts spread fees locked per token
	FeesCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_fees_collected_total",
			Help: "Total spread fees collected per token",
		},
		[]string{"token"},
	)

	// DispatchesTotal counts cross-chain dispatches by fee asset and status
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_dispatches_total",
			Help: "Total number of cross-chain dispatches",
		},
		[]string{"fee_asset", "status"},
	)

	// DispatchGasLimit tracks requested execution gas per dispatch
	DispatchGasLimit = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_dispatch_gas_limit",
			Help:    "Requested destination gas limit per dispatch",
			Buckets: []float64{100000, 200000, 500000, 1000000, 2000000, 5000000},
		},
		[]string{"chain"},
	)

	// ModulePaused reports whether a module is currently paused
	ModulePaused = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_module_paused",
			Help: "Whether a module is paused (1) or active (0)",
		},
		[]string{"module"},
	)

	// WithdrawalsTotal counts operator fee and fund withdrawals
	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_withdrawals_total",
			Help: "Total number of operator withdrawals",
		},
		[]string{"module", "asset"},
	)

	// ErrorsTotal counts errors by component and category
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
