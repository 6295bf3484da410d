// Package metrics instruments the price simulator.
//
// Metrics exposed:
//   - price_simulator_ticks_total: completed ticks
//   - price_simulator_tick_duration_seconds: time spent updating all keys in a tick
//   - price_simulator_append_errors_total: failed key updates by key
//   - price_simulator_retention_deleted_total: samples removed by retention by key
//   - price_simulator_current_price: last committed value by key
//   - price_simulator_publish_errors_total: failed broadcasts
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Simulator struct {
	TicksTotal         prometheus.Counter
	TickDuration       prometheus.Histogram
	AppendErrorsTotal  *prometheus.CounterVec
	RetentionDeleted   *prometheus.CounterVec
	CurrentPrice       *prometheus.GaugeVec
	PublishErrorsTotal prometheus.Counter
}

// NewSimulator registers the collectors with reg.
func NewSimulator(reg prometheus.Registerer) *Simulator {
	factory := promauto.With(reg)

	return &Simulator{
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "price_simulator_ticks_total",
			Help: "Total number of completed simulator ticks",
		}),

		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "price_simulator_tick_duration_seconds",
			Help:    "Duration of updating every tracked key in one tick",
			Buckets: prometheus.DefBuckets,
		}),

		AppendErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "price_simulator_append_errors_total",
			Help: "Total number of failed price updates by key",
		}, []string{"key"}),

		RetentionDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "price_simulator_retention_deleted_total",
			Help: "Total number of samples deleted by retention by key",
		}, []string{"key"}),

		CurrentPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "price_simulator_current_price",
			Help: "Last committed price by key",
		}, []string{"key"}),

		PublishErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "price_simulator_publish_errors_total",
			Help: "Total number of failed price broadcasts",
		}),
	}
}

func (m *Simulator) RecordTick(d time.Duration) {
	m.TicksTotal.Inc()
	m.TickDuration.Observe(d.Seconds())
}

func (m *Simulator) RecordAppendError(key string) {
	m.AppendErrorsTotal.WithLabelValues(key).Inc()
}

func (m *Simulator) RecordRetention(key string, deleted int64) {
	if deleted > 0 {
		m.RetentionDeleted.WithLabelValues(key).Add(float64(deleted))
	}
}

func (m *Simulator) SetCurrentPrice(key string, price float64) {
	m.CurrentPrice.WithLabelValues(key).Set(price)
}

func (m *Simulator) RecordPublishError() {
	m.PublishErrorsTotal.Inc()
}
