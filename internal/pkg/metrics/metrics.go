package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clawdash_http_latency_seconds",
		Help:    "Inbound request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clawdash_upstream_requests_total",
		Help: "Outbound upstream calls by backend and outcome",
	}, []string{"backend", "outcome"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clawdash_upstream_latency_seconds",
		Help:    "Outbound upstream call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	FacetOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clawdash_facet_outcomes_total",
		Help: "Aggregation facet results by view, facet and result",
	}, []string{"view", "facet", "result"})

	PollRoundsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clawdash_poll_rounds_skipped_total",
		Help: "Poll ticks skipped because the previous round was still in flight",
	}, []string{"task"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clawdash_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clawdash_stream_clients",
		Help: "Connected websocket subscribers",
	})
)
