// Package metrics exposes the Prometheus registry served at MC's /metrics
// route, fed by the ControllerActor's status (meeting and panic counts) and
// internal/mc/actor's mailbox-drop counter.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetmesh/control-plane/internal/mc/actor"
)

var registry = prometheus.NewRegistry()

var (
	activeMeetings = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Name: "mc_active_meetings",
		Help: "Number of meetings currently owned by this controller.",
	})
	actorPanics = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "mc_actor_panics_total",
		Help: "Total number of actor goroutines that recovered from a panic.",
	})
	mailboxDrops = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "mc_mailbox_drops_total",
		Help: "Total number of messages dropped because a mailbox was full.",
	})
)

// Collector copies current state into the metrics above on every scrape:
// the gauge is set from the controller's status, and the counters are
// advanced to the panic and drop totals read from internal/mc/actor.
type Collector struct {
	controller *actor.ControllerActor
}

func NewCollector(controller *actor.ControllerActor) *Collector {
	return &Collector{controller: controller}
}

// sample updates the metrics from current state. The /metrics handler
// calls it before every scrape, since MC has no separate sampling loop.
func (c *Collector) sample() {
	sampleMu.Lock()
	defer sampleMu.Unlock()

	status := c.controller.Status()
	activeMeetings.Set(float64(status.MeetingCount))
	actorPanics.Add(float64(status.PanicCount) - lastPanicCount)
	lastPanicCount = float64(status.PanicCount)
	mailboxDrops.Add(float64(actor.DroppedCount()) - lastDropCount)
	lastDropCount = float64(actor.DroppedCount())
}

var (
	sampleMu                      sync.Mutex
	lastPanicCount, lastDropCount float64
)

// Handler returns the promhttp handler for this collector's registry,
// resampling on every scrape.
func (c *Collector) Handler() http.Handler {
	inner := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.sample()
		inner.ServeHTTP(w, r)
	})
}
