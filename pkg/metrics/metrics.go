// Package metrics exports command dispatch and registration counters to prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Dispatch outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeCheckFailed  = "check_failed"
	OutcomeError        = "error"
	OutcomePanic        = "panic"
	OutcomeAutocomplete = "autocomplete"
	OutcomeUnknown      = "unknown_subcommand"
)

// Collector holds the command engine's metrics.
type Collector struct {
	Registry *prometheus.Registry

	dispatchCounter  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	uploadCounter    *prometheus.CounterVec
	registeredGauge  *prometheus.GaugeVec
}

// New creates a collector registered on reg.
func New(reg *prometheus.Registry) *Collector {
	c := &Collector{
		Registry: reg,
		dispatchCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "appcmd_dispatch_total", Help: "Interactions dispatched, by command and outcome"},
			[]string{"command", "outcome"}),

		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "appcmd_dispatch_duration_seconds", Help: "Time spent dispatching an interaction", Buckets: prometheus.DefBuckets},
			[]string{"command"}),

		uploadCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "appcmd_upload_total", Help: "Bulk command uploads, by scope kind and outcome"},
			[]string{"scope", "outcome"}),

		registeredGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "appcmd_registered_commands", Help: "Commands acknowledged by the last upload of a scope"},
			[]string{"scope"}),
	}

	reg.MustRegister(c.dispatchCounter, c.dispatchDuration, c.uploadCounter, c.registeredGauge)
	return c
}

var (
	collector *Collector
	once      sync.Once
)

// Get returns the process wide collector. Its registry also carries the Go
// runtime and process collectors.
func Get() *Collector {
	once.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = New(reg)
	})
	return collector
}

// ObserveDispatch records one finished dispatch
func (c *Collector) ObserveDispatch(command, outcome string, elapsed time.Duration) {
	c.dispatchCounter.With(prometheus.Labels{"command": command, "outcome": outcome}).Inc()
	c.dispatchDuration.With(prometheus.Labels{"command": command}).Observe(elapsed.Seconds())
}

// ObserveUpload records one bulk upload attempt. scope is "global" or "guild".
func (c *Collector) ObserveUpload(scope string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.uploadCounter.With(prometheus.Labels{"scope": scope, "outcome": outcome}).Inc()
}

// SetRegistered sets the number of commands live in a scope
func (c *Collector) SetRegistered(scope string, n int) {
	c.registeredGauge.With(prometheus.Labels{"scope": scope}).Set(float64(n))
}
