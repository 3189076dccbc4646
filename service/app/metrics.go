package app

import (
	"net/http"

	"github.com/flow-hydraulics/mint-gate/service/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil safe so components can be used without a registry.
type Metrics struct {
	registry             *prometheus.Registry
	attemptsTotal        *prometheus.CounterVec
	rejectionsTotal      *prometheus.CounterVec
	pollRoundsTotal      prometheus.Counter
	refreshFailuresTotal *prometheus.CounterVec
	itemsRemaining       prometheus.Gauge
}

func NewMetrics() *Metrics {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mint_attempts_total",
		Help: "Finished mint attempts by outcome",
	}, []string{"outcome"})

	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mint_rejections_total",
		Help: "Mint requests rejected before contacting the chain",
	}, []string{"reason"})

	pollRounds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mint_poll_rounds_total",
		Help: "Signature status requests made while confirming mints",
	})

	refreshFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mint_refresh_failures_total",
		Help: "Failed campaign or balance refreshes",
	}, []string{"target"})

	remaining := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mint_items_remaining",
		Help: "Items remaining as of the last campaign refresh",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(attempts, rejections, pollRounds, refreshFailures, remaining)

	return &Metrics{
		registry:             r,
		attemptsTotal:        attempts,
		rejectionsTotal:      rejections,
		pollRoundsTotal:      pollRounds,
		refreshFailuresTotal: refreshFailures,
		itemsRemaining:       remaining,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) incAttempt(outcome common.Outcome) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) incRejection(reason string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) incPollRound() {
	if m == nil {
		return
	}
	m.pollRoundsTotal.Inc()
}

func (m *Metrics) incRefreshFailure(target string) {
	if m == nil {
		return
	}
	m.refreshFailuresTotal.WithLabelValues(target).Inc()
}

func (m *Metrics) setItemsRemaining(n uint64) {
	if m == nil {
		return
	}
	m.itemsRemaining.Set(float64(n))
}
