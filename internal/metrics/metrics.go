// Package metrics exports analysis results as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/ttverify/internal/latency"
)

// Recorder counts instance outcomes. It implements latency.Observer.
type Recorder struct {
	gatherer    prometheus.Gatherer
	instances   *prometheus.CounterVec
	latency     prometheus.Histogram
	hyperperiod prometheus.Gauge
	flows       prometheus.Gauge
}

var _ latency.Observer = (*Recorder)(nil)

// NewRecorder registers the analysis metrics on a fresh registry.
func NewRecorder() (*Recorder, error) {
	reg := prometheus.NewRegistry()
	return NewRecorderWith(reg, reg)
}

// NewRecorderWith registers the analysis metrics on reg; gatherer is used
// by WriteTextfile.
func NewRecorderWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Recorder, error) {
	r := &Recorder{
		gatherer: gatherer,
		instances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttverify_instances_total",
			Help: "Release instances analyzed, by outcome.",
		}, []string{"status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ttverify_latency_slots",
			Help:    "Observed release-to-completion latency of complete instances, in slots.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		hyperperiod: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ttverify_hyperperiod_slots",
			Help: "Hyperperiod of the analyzed workload, in slots.",
		}),
		flows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ttverify_flows",
			Help: "Flows in the analyzed workload.",
		}),
	}

	for _, c := range []prometheus.Collector{r.instances, r.latency, r.hyperperiod, r.flows} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	// Pre-create every status so zero counts are exported.
	for _, s := range []latency.Status{latency.StatusMet, latency.StatusMiss, latency.StatusUnknown} {
		r.instances.WithLabelValues(string(s))
	}
	return r, nil
}

// ObserveInstance records one instance outcome.
func (r *Recorder) ObserveInstance(o latency.Outcome) {
	r.instances.WithLabelValues(string(o.Status)).Inc()
	if o.Status != latency.StatusUnknown {
		r.latency.Observe(float64(o.Latency))
	}
}

// SetWorkload records the size of the analyzed workload.
func (r *Recorder) SetWorkload(flows, hyperperiod int) {
	r.flows.Set(float64(flows))
	r.hyperperiod.Set(float64(hyperperiod))
}

// WriteTextfile writes all gathered metrics to path in the text exposition
// format, for node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
