package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "px_oracle"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	newCounter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      name,
			Help:      help,
		})
		registry.MustRegister(c)
		return c
	}

	ticksReceived := newCounter("ticks_received_total", "Total number of price ticks accepted from venue feeds.")
	fetchFailures := newCounter("fetch_failures_total", "Total number of failed venue fetches.")
	refreshCycles := newCounter("refresh_cycles_total", "Total number of composite refresh cycles.")
	evaluations := newCounter("evaluations_total", "Total number of arbitrage evaluations performed.")
	tradesApproved := newCounter("trades_approved_total", "Total number of trade proposals approved by the risk guard.")
	tradesRejected := newCounter("trades_rejected_total", "Total number of trade proposals rejected by the risk guard.")
	publishDrops := newCounter("publish_drops_total", "Total number of composite publishes dropped.")
	historyDrops := newCounter("history_drops_total", "Total number of composite history rows dropped.")

	m := &Metrics{
		TicksReceived:  promCounter{ticksReceived},
		FetchFailures:  promCounter{fetchFailures},
		RefreshCycles:  promCounter{refreshCycles},
		Evaluations:    promCounter{evaluations},
		TradesApproved: promCounter{tradesApproved},
		TradesRejected: promCounter{tradesRejected},
		PublishDrops:   promCounter{publishDrops},
		HistoryDrops:   promCounter{historyDrops},
	}

	return &Prometheus{Metrics: m, registry: registry}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
