// Public domain.

package emiprog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/soniakeys/emi/entry"
	"github.com/soniakeys/emi/specimen"
)

// Metrics counts the work of one program run.
type Metrics struct {
	gatherer prometheus.Gatherer

	Classified  *prometheus.CounterVec
	Failures    prometheus.Counter
	ATPRejected prometheus.Counter
	Entries     prometheus.Counter
	Airbursts   prometheus.Counter
	Latency     prometheus.Histogram
}

// NewMetrics registers the program metrics with reg, a new private
// registry when nil.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		Classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emi_specimens_classified_total",
			Help: "Specimens classified, labeled by EMI band.",
		}, []string{"band"}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emi_classification_failures_total",
			Help: "Specimens that could not be classified.",
		}),
		ATPRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emi_atp_rejected_total",
			Help: "Specimens classified without ATP because the entry trajectory was rejected.",
		}),
		Entries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emi_entries_simulated_total",
			Help: "Atmospheric entries simulated.",
		}),
		Airbursts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emi_airbursts_detected_total",
			Help: "Simulated entries ending in a detected airburst.",
		}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emi_classification_duration_seconds",
			Help:    "Time to classify one specimen.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
	}
	for _, c := range []prometheus.Collector{
		m.Classified, m.Failures, m.ATPRejected, m.Entries, m.Airbursts, m.Latency,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe records one classification.  An error with a classification
// is a rejected entry trajectory.
func (m *Metrics) observe(cl *specimen.Classification, err error, d time.Duration) {
	m.Latency.Observe(d.Seconds())
	if cl == nil {
		m.Failures.Inc()
		return
	}
	if err != nil {
		m.ATPRejected.Inc()
	}
	m.Classified.WithLabelValues(cl.EMI.Band.Label).Inc()
	if cl.Entry != nil {
		m.simulated(cl.Entry)
	}
}

func (m *Metrics) simulated(r *entry.Result) {
	m.Entries.Inc()
	if r.Airburst.Detected {
		m.Airbursts.Inc()
	}
}

// WriteFile writes the metrics in the text exposition format, for a
// node exporter textfile collector.
func (m *Metrics) WriteFile(fn string) error {
	return prometheus.WriteToTextfile(fn, m.gatherer)
}
