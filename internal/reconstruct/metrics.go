package reconstruct

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are process wide and shared by every Graph.
var (
	// updateCycles counts update cycles. Labels: result (ok, failed, rejected)
	updateCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recongraph",
		Subsystem: "graph",
		Name:      "update_cycles_total",
		Help:      "Total update cycles by result",
	}, []string{"result"})

	updateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "recongraph",
		Subsystem: "graph",
		Name:      "update_duration_seconds",
		Help:      "Duration of a full update cycle in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// layerComputeDuration measures a single layer compute.
	// Labels: kind (layer kind)
	layerComputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recongraph",
		Subsystem: "layer",
		Name:      "compute_duration_seconds",
		Help:      "Layer compute duration in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"kind"})

	layerComputeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recongraph",
		Subsystem: "layer",
		Name:      "compute_failures_total",
		Help:      "Total failed layer computes by layer kind",
	}, []string{"kind"})

	// mutationsTotal counts structural mutations.
	// Labels: operation (add_layer, remove_layer, connect, disconnect, ...)
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recongraph",
		Subsystem: "graph",
		Name:      "mutations_total",
		Help:      "Total structural graph mutations by operation",
	}, []string{"operation"})

	layersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "recongraph",
		Subsystem: "graph",
		Name:      "layers",
		Help:      "Number of live layers",
	})

	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "recongraph",
		Subsystem: "graph",
		Name:      "connections",
		Help:      "Number of live connections",
	})
)
