package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts processed turns by routed intent
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aira_turns_total",
		Help: "Customer turns processed, labelled by routed intent",
	}, []string{"intent"})

	// TurnDuration measures end to end turn latency
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aira_turn_duration_seconds",
		Help:    "Time to answer one customer turn",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
	})

	// OracleFailures counts language model calls that failed or timed out
	OracleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aira_oracle_failures_total",
		Help: "Failed language model calls by operation",
	}, []string{"operation"})

	// FAQFastPath counts turns routed to the FAQ handler without classification
	FAQFastPath = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aira_faq_fast_path_total",
		Help: "Turns routed to FAQ by similarity alone",
	})

	// AnswerCacheHits counts FAQ answers served from the answer cache
	AnswerCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aira_faq_answer_cache_hits_total",
		Help: "FAQ answers served from cache",
	})

	// OrderMutations counts committed and rejected order changes
	OrderMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aira_order_mutations_total",
		Help: "Order reschedule and address change attempts by outcome",
	}, []string{"operation", "outcome"})

	// ContextsCached reports the number of cached session contexts
	ContextsCached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aira_session_contexts_cached",
		Help: "Session contexts currently held in memory",
	})

	// ContextsEvicted counts contexts dropped for inactivity
	ContextsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aira_session_contexts_evicted_total",
		Help: "Session contexts evicted after the inactivity TTL",
	})

	// TicketsCreated counts escalation tickets by type
	TicketsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aira_support_tickets_total",
		Help: "Support tickets raised by type",
	}, []string{"type"})
)
