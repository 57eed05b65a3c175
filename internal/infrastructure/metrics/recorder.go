package metrics

import (
	"net/http"
	"time"

	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snapsearch"

var _ output.MetricsPort = (*Recorder)(nil)

// Recorder publishes workflow metrics on its own registry, so several
// recorders can coexist in one process (tests, multiple servers).
type Recorder struct {
	registry  *prometheus.Registry
	workflows *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	inFlight  prometheus.Gauge
	states    *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		workflows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Finished search workflows by outcome.",
		}, []string{"outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Wall time of search workflows, including cleanup.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90, 120, 300},
		}, []string{"outcome"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workflows_in_flight",
			Help:      "Search workflows currently running.",
		}),
		states: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_state_transitions_total",
			Help:      "State machine transitions by target state.",
		}, []string{"state"}),
	}
}

func (r *Recorder) WorkflowStarted() {
	r.inFlight.Inc()
}

func (r *Recorder) WorkflowFinished(kind entity.ErrorKind, elapsed time.Duration) {
	outcome := "success"
	if kind != "" {
		outcome = string(kind)
	}
	r.inFlight.Dec()
	r.workflows.WithLabelValues(outcome).Inc()
	r.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (r *Recorder) StateEntered(state entity.WorkflowState) {
	r.states.WithLabelValues(string(state)).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

var _ output.MetricsPort = Nop{}

type Nop struct{}

func (Nop) WorkflowStarted()                                 {}
func (Nop) WorkflowFinished(entity.ErrorKind, time.Duration) {}
func (Nop) StateEntered(entity.WorkflowState)                {}
