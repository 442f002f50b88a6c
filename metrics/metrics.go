package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Recorder receives pipeline measurements. Implementations must be safe for
// concurrent use: reference calls report from their worker goroutines.
type Recorder interface {
	// TurnStarted marks a turn as in flight.
	TurnStarted()
	// TurnFinished records a finished turn and its wall time.
	TurnFinished(status string, dur time.Duration)
	// ModelCall records one reference or aggregation call.
	ModelCall(stage, model, status string, dur time.Duration)
	// Fragment counts one streamed aggregator fragment.
	Fragment()
}

// Status maps an error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// NoOp discards every measurement.
type NoOp struct{}

// TurnStarted implements Recorder.
func (NoOp) TurnStarted() {}

// TurnFinished implements Recorder.
func (NoOp) TurnFinished(string, time.Duration) {}

// ModelCall implements Recorder.
func (NoOp) ModelCall(string, string, string, time.Duration) {}

// Fragment implements Recorder.
func (NoOp) Fragment() {}

// Prometheus is a Recorder backed by client_golang collectors.
type Prometheus struct {
	turnsTotal        *prometheus.CounterVec
	turnDuration      *prometheus.HistogramVec
	turnsInFlight     prometheus.Gauge
	modelCallsTotal   *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	fragmentsTotal    prometheus.Counter
}

// NewPrometheus registers the collectors on reg under namespace
// (default "moa").
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if namespace == "" {
		namespace = "moa"
	}
	factory := promauto.With(reg)

	return &Prometheus{
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of turns by status",
			},
			[]string{"status"},
		),
		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Turn wall time in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"status"},
		),
		turnsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "turns_in_flight",
				Help:      "Number of turns currently running",
			},
		),
		modelCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of model calls by stage, model and status",
			},
			[]string{"stage", "model", "status"},
		),
		modelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Model call latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"stage", "model"},
		),
		fragmentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregation_fragments_total",
				Help:      "Total number of streamed aggregator fragments",
			},
		),
	}
}

// TurnStarted implements Recorder.
func (p *Prometheus) TurnStarted() { p.turnsInFlight.Inc() }

// TurnFinished implements Recorder.
func (p *Prometheus) TurnFinished(status string, dur time.Duration) {
	p.turnsInFlight.Dec()
	p.turnsTotal.WithLabelValues(status).Inc()
	p.turnDuration.WithLabelValues(status).Observe(dur.Seconds())
}

// ModelCall implements Recorder.
func (p *Prometheus) ModelCall(stage, model, status string, dur time.Duration) {
	p.modelCallsTotal.WithLabelValues(stage, model, status).Inc()
	p.modelCallDuration.WithLabelValues(stage, model).Observe(dur.Seconds())
}

// Fragment implements Recorder.
func (p *Prometheus) Fragment() { p.fragmentsTotal.Inc() }
