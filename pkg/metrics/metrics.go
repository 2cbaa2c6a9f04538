package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProtocolMetrics records per-operation wire protocol round trips.
type ProtocolMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewProtocolMetrics registers the protocol metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewProtocolMetrics(reg prometheus.Registerer) *ProtocolMetrics {
	if reg == nil {
		return &ProtocolMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "protocol_round_trip_seconds",
		Help:    "Duration of wire protocol round trips in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protocol_round_trip_success",
		Help: "Successful wire protocol round trips.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protocol_round_trip_failure",
		Help: "Failed wire protocol round trips.",
	}, []string{"op"})
	reg.MustRegister(duration, success, failure)
	return &ProtocolMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named operation.
func (p *ProtocolMetrics) ObserveDuration(op string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (p *ProtocolMetrics) IncSuccess(op string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (p *ProtocolMetrics) IncFailure(op string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(op)).Inc()
}

// DecoderMetrics counts catalog fragments the decoder had to drop.
type DecoderMetrics struct {
	skips prometheus.Counter
}

// NewDecoderMetrics registers the decoder metrics on the provided registerer.
func NewDecoderMetrics(reg prometheus.Registerer) *DecoderMetrics {
	if reg == nil {
		return &DecoderMetrics{}
	}
	skips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_decode_skips",
		Help: "Catalog fragments dropped during decoding.",
	})
	reg.MustRegister(skips)
	return &DecoderMetrics{skips: skips}
}

// IncSkip increments the dropped-fragment counter.
func (d *DecoderMetrics) IncSkip() {
	if d == nil || d.skips == nil {
		return
	}
	d.skips.Inc()
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
