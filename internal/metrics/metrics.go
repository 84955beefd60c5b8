// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Spin outcomes, used as the label on the spins counter.
const (
	OutcomeAssigned   = "assigned"    // a fresh match was committed
	OutcomeReplay     = "replay"      // spinner already had a match, returned as-is
	OutcomeChainStuck = "chain_stuck" // no eligible receiver remained
)

// Recorder is what the service layer records against. It is an interface so
// tests (and anything that doesn't care) can pass Nop instead of dragging a
// Prometheus registry into every constructor.
type Recorder interface {
	RecordSpin(outcome string)
	RecordReset()
	RecordParticipantAdded()
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	spins             *prometheus.CounterVec
	resets            prometheus.Counter
	participantsAdded prometheus.Counter
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		spins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "santa_spins_total",
			Help: "Spin requests by outcome.",
		}, []string{"outcome"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "santa_resets_total",
			Help: "Full assignment resets.",
		}),
		participantsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "santa_participants_added_total",
			Help: "Participants appended through the admin API.",
		}),
	}

	reg.MustRegister(c.spins, c.resets, c.participantsAdded)
	return c
}

func (c *Collector) RecordSpin(outcome string) {
	c.spins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordReset() {
	c.resets.Inc()
}

func (c *Collector) RecordParticipantAdded() {
	c.participantsAdded.Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop is a Recorder that discards everything.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordSpin(string)         {}
func (Nop) RecordReset()              {}
func (Nop) RecordParticipantAdded()   {}
