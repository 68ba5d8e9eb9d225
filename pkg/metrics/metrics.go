package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	EventsFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_burn_events_found_total",
		Help: "The total number of TokensBurned events found on source chains",
	}, []string{"chain_id"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_burn_events_dropped_total",
		Help: "Burn events observed but not forwarded, by reason",
	}, []string{"chain_id", "reason"})

	RelaysSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_relays_total",
		Help: "The total number of relay hand-offs by destination chain and status",
	}, []string{"chain_id", "status"})

	RelayAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_relay_attempts_total",
		Help: "The total number of sponsored-call submissions including retries",
	}, []string{"chain_id"})

	RateLimitHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_rate_limited_total",
		Help: "The total number of rate-limited sponsored-call submissions",
	}, []string{"chain_id"})

	RouteFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_route_fallbacks_total",
		Help: "Events from an unrecognised source chain routed to the fallback chain",
	}, []string{"chain_id"})

	DuplicatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_duplicate_events_total",
		Help: "Events skipped because they were already relayed",
	}, []string{"chain_id"})

	CircuitOpenSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_circuit_open_skips_total",
		Help: "Relay hand-offs skipped because the destination circuit was open",
	}, []string{"chain_id"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relayer_run_duration_seconds",
		Help:    "Time taken by one relayer invocation",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms up to ~3.4m
	})

	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_runs_total",
		Help: "Relayer invocations by result",
	}, []string{"mode", "result"})
)
