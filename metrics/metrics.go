// Package metrics declares the small set of prometheus collectors the
// server exposes: connection lifecycle, command throughput, expiration
// activity, and per-channel subscriber counts. None of this is on the
// RESP wire — it is additive observability served over a plain
// net/http /metrics endpoint, grounded in moby/moby's direct
// prometheus/client_golang dependency.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector bundles every metric the server records. A nil *Collector
// is valid everywhere it's threaded through — every call site guards
// with a nil check so metrics stay fully optional.
type Collector struct {
	ActiveConnections prometheus.Gauge
	CommandsTotal     *prometheus.CounterVec
	KeysExpired       prometheus.Counter
	KeysStored        prometheus.Gauge
	Subscribers       *prometheus.GaugeVec
}

// New registers and returns a Collector on reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests) or
// prometheus.DefaultRegisterer for production use.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "miniredis",
			Name:      "active_connections",
			Help:      "Number of currently connected clients.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miniredis",
			Name:      "commands_total",
			Help:      "Commands processed, by command name.",
		}, []string{"command"}),
		KeysExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "miniredis",
			Name:      "keys_expired_total",
			Help:      "Keys removed by the expiration reaper.",
		}),
		KeysStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "miniredis",
			Name:      "keys_stored",
			Help:      "Current number of keys in the store.",
		}),
		Subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "miniredis",
			Name:      "channel_subscribers",
			Help:      "Current subscriber count, by channel.",
		}, []string{"channel"}),
	}

	reg.MustRegister(c.ActiveConnections, c.CommandsTotal, c.KeysExpired, c.KeysStored, c.Subscribers)
	return c
}
