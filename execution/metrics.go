package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	proofCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "execution_proof_cache_hits_total",
		Help: "Number of account, storage, and code reads served from the verified cache.",
	})
	proofCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "execution_proof_cache_misses_total",
		Help: "Number of account, storage, and code reads that required a provider fetch.",
	})
	providerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_provider_requests_total",
		Help: "Number of requests issued to the execution provider, by method.",
	}, []string{"method"})
	providerRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_provider_retries_total",
		Help: "Number of provider request attempts that were retried, by method.",
	}, []string{"method"})
	providerRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "execution_provider_request_latency_seconds",
		Help:    "Latency of execution provider requests, by method.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method"})
)
