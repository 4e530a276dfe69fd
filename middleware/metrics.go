// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sam-fredrickson/safeaction"
)

// Metrics holds the Prometheus collectors updated by [Instrument].
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics registers the action collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safeaction",
				Subsystem: "action",
				Name:      "calls_total",
				Help:      "Total number of action calls by outcome",
			},
			[]string{"action", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "safeaction",
				Subsystem: "action",
				Name:      "duration_seconds",
				Help:      "Duration of action calls in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"action"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "safeaction",
				Subsystem: "action",
				Name:      "in_flight",
				Help:      "Number of action calls currently running",
			},
		),
	}
}

// Instrument records call counts, durations and in-flight calls in m.
func Instrument[M any](m *Metrics) safeaction.Middleware[M] {
	return func(ctx context.Context, args safeaction.MiddlewareArgs[M]) (*safeaction.MiddlewareResult, error) {
		name := safeaction.ActionName(ctx)
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		res, err := args.Next(ctx, args.Ctx)
		m.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		m.calls.WithLabelValues(name, safeaction.Outcome(res, err)).Inc()
		return res, err
	}
}
