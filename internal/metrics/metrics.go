// Package metrics registers and exposes the Prometheus series the sniper and
// analyzer daemons update during operation, served at /metrics in Prometheus
// text exposition format by internal/adminrpc.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ClassifiedTotal counts launch records the classifier successfully parsed.
	ClassifiedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sniper_classified_total",
		Help: "Create+Buy pairs successfully classified off the shred-stream feed.",
	})

	// FilterDropTotal counts records dropped by the filter, labeled by reason.
	FilterDropTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sniper_filter_drop_total",
		Help: "Launch records dropped by the filter, by reason.",
	}, []string{"reason"})

	// SubmitLatencySeconds observes the time from submit decision to the relay
	// HTTP response, labeled by relay and side (buy|sell).
	SubmitLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sniper_submit_latency_seconds",
		Help:    "Latency from submit decision to relay HTTP response.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"relay", "side"})

	// SubmitOutcomeTotal counts submit attempts by relay, side, and outcome.
	SubmitOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sniper_submit_outcome_total",
		Help: "Submit attempts by relay, side, and outcome (ok|error|build_error).",
	}, []string{"relay", "side", "outcome"})

	// ExitOutcomeTotal counts exit-engine decisions, labeled by outcome.
	ExitOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sniper_exit_outcome_total",
		Help: "Exit engine decisions, by outcome label.",
	}, []string{"outcome"})

	// SellFailureTotal counts sells abandoned before any relay send, labeled
	// by the step that failed (derive_accounts|blockhash). Confirmation is not
	// tracked. Spec §9 calls for surfacing these in observability instead of a
	// log line nobody watches.
	SellFailureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sniper_sell_failure_total",
		Help: "Sells abandoned before sending, by failed step.",
	}, []string{"stage"})

	// OpenPositions reports the size of the position table, as sampled by
	// cmd/sniperd after each exit-engine decision.
	OpenPositions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sniper_open_positions",
		Help: "Current number of open positions.",
	})

	// FeedHealthy mirrors the live-trade feed's health flag (feed.HealthFlag).
	FeedHealthy = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sniper_feed_healthy",
		Help: "1 if the ingest feed is healthy, 0 otherwise.",
	})

	// AnalyzerEventsTotal counts CreateEvent/TradeEvent log lines processed by
	// the analyzer's ingest, labeled by event kind.
	AnalyzerEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analyzer_events_total",
		Help: "Venue log events processed by the analyzer, by kind.",
	}, []string{"kind"})

	// AnalyzerPersistTotal counts store writes, labeled by table and outcome.
	AnalyzerPersistTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analyzer_persist_total",
		Help: "Analyzer Postgres writes, by table and outcome (ok|error).",
	}, []string{"table", "outcome"})

	// WhitelistQueryLatencySeconds observes the whitelist aggregation query's
	// duration.
	WhitelistQueryLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "analyzer_whitelist_query_latency_seconds",
		Help:    "Latency of the whitelist aggregation query.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		ClassifiedTotal,
		FilterDropTotal,
		SubmitLatencySeconds,
		SubmitOutcomeTotal,
		ExitOutcomeTotal,
		SellFailureTotal,
		OpenPositions,
		FeedHealthy,
		AnalyzerEventsTotal,
		AnalyzerPersistTotal,
		WhitelistQueryLatencySeconds,
	)
}
