// Package metrics exposes prometheus instrumentation for the coordinator.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const namespace = "chargehub"

// Metrics holds the coordinator counters.
type Metrics struct {
	Admissions      *prometheus.CounterVec
	QueueJoins      *prometheus.CounterVec
	Promotions      *prometheus.CounterVec
	PaymentFailures *prometheus.CounterVec
}

// New registers and returns the coordinator metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Sessions admitted per station",
		}, []string{"station"}),
		QueueJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_joins_total",
			Help:      "New waiting queue entries per station",
		}, []string{"station"}),
		Promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "Queue entries promoted per station",
		}, []string{"station"}),
		PaymentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_failures_total",
			Help:      "Declined or timed out payment attempts per station",
		}, []string{"station"}),
	}
	reg.MustRegister(m.Admissions, m.QueueJoins, m.Promotions, m.PaymentFailures)
	return m
}

// DepthCounter reports how many users are waiting for a slot.
type DepthCounter interface {
	TotalDepth(ctx context.Context) (int, error)
}

// RegisterQueueDepth exposes the total waiting queue depth as a gauge read
// from the queue store on every scrape.
func RegisterQueueDepth(reg prometheus.Registerer, queue DepthCounter, logger *zap.Logger) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Users currently waiting across all stations",
		},
		func() float64 {
			depth, err := queue.TotalDepth(context.Background())
			if err != nil {
				if logger != nil {
					logger.Warn("queue depth query failed", zap.Error(err))
				}
				return 0
			}
			return float64(depth)
		},
	))
}
