package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for notify runs.
const (
	ResultSuccess       = "success"
	ResultFetchError    = "fetch_error"
	ResultDispatchError = "dispatch_error"
)

// Notify records the outcome and duration of each notify run.
type Notify struct {
	Runs     *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewNotify registers the notify collectors with reg. A nil reg skips registration.
func NewNotify(reg prometheus.Registerer) *Notify {
	m := &Notify{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_text_notify_runs_total",
			Help: "Notify runs by result.",
		}, []string{"result"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weather_text_notify_duration_seconds",
			Help:    "Wall time of a notify run, fetch through dispatch.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, r := range []string{ResultSuccess, ResultFetchError, ResultDispatchError} {
		m.Runs.WithLabelValues(r)
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Duration)
	}
	return m
}

func (m *Notify) Observe(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(result).Inc()
	m.Duration.Observe(elapsed.Seconds())
}
