// Package metrics exposes Prometheus instruments for procedure calls and
// activity publishing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the procedure layer and the activity publisher report to.
type Recorder interface {
	RecordCall(path, kind, code string, duration time.Duration)
	RecordPublishFailure()
}

type Collector struct {
	calls           *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	publishFailures prometheus.Counter
}

// NewCollector registers the dashboard instruments on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_rpc_calls_total",
			Help: "Procedure calls by path, kind and result code.",
		}, []string{"path", "kind", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_rpc_duration_seconds",
			Help:    "Procedure call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_activity_publish_failures_total",
			Help: "Activity events that could not be published.",
		}),
	}

	reg.MustRegister(c.calls, c.duration, c.publishFailures)
	return c
}

// RecordCall counts one finished call. code is "OK" on success.
func (c *Collector) RecordCall(path, kind, code string, duration time.Duration) {
	c.calls.WithLabelValues(path, kind, code).Inc()
	c.duration.WithLabelValues(path).Observe(duration.Seconds())
}

func (c *Collector) RecordPublishFailure() {
	c.publishFailures.Inc()
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type nop struct{}

func (nop) RecordCall(string, string, string, time.Duration) {}
func (nop) RecordPublishFailure()                            {}

// Nop discards everything.
var Nop Recorder = nop{}
