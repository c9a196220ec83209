package keeper

import (
	"math/big"
	"sync"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SettlementMetrics holds all Prometheus metrics for the settlement module
type SettlementMetrics struct {
	// Transition metrics
	TransitionsTotal   *prometheus.CounterVec
	RejectionsTotal    *prometheus.CounterVec
	InvariantFaults    *prometheus.CounterVec
	SettlementDuration *prometheus.HistogramVec

	// Pool metrics
	PoolReserves  *prometheus.GaugeVec
	LPSupply      *prometheus.GaugeVec
	PoolVersion   *prometheus.GaugeVec
	PoolsCreated  prometheus.Counter
	SwapSlippage  prometheus.Histogram
	ProvisionSkew prometheus.Histogram
}

var (
	settlementMetricsOnce sync.Once
	settlementMetrics     *SettlementMetrics
)

// NewSettlementMetrics creates and registers settlement metrics (singleton pattern)
func NewSettlementMetrics() *SettlementMetrics {
	settlementMetricsOnce.Do(func() {
		settlementMetrics = &SettlementMetrics{
			TransitionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "transitions_total",
					Help:      "Total number of transitions evaluated",
				},
				[]string{"operation", "status"},
			),
			RejectionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "rejections_total",
					Help:      "Rejected transitions by reason",
				},
				[]string{"operation", "reason"},
			),
			InvariantFaults: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "invariant_faults_total",
					Help:      "Internal arithmetic faults caught by post-condition checks",
				},
				[]string{"operation"},
			),
			SettlementDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "settle_duration_seconds",
					Help:      "Time spent evaluating one transition",
					Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
				},
				[]string{"operation"},
			),

			PoolReserves: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "pool_reserves",
					Help:      "Pool reserves in smallest units",
				},
				[]string{"pool", "side"},
			),
			LPSupply: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "lp_supply",
					Help:      "Outstanding LP tokens of a pool",
				},
				[]string{"pool"},
			),
			PoolVersion: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "pool_version",
					Help:      "Live snapshot version of a pool",
				},
				[]string{"pool"},
			),
			PoolsCreated: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "pools_created_total",
					Help:      "Total number of pools created",
				},
			),
			SwapSlippage: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "swap_output_margin_bps",
					Help:      "Margin between swap output and the caller's minimum, in bps of output",
					Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
				},
			),
			ProvisionSkew: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "provision_ratio_deviation_bps",
					Help:      "Deviation between deposit ratios of accepted provisions",
					Buckets:   []float64{0, 1, 10, 50, 100, 250, 500},
				},
			),
		}
	})
	return settlementMetrics
}

// toFloat converts a quantity for gauges; precision loss above 2^53 is accepted.
func toFloat(v math.Int) float64 {
	if v.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}
