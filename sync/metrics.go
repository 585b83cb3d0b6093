package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	headSlotGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lightclient_optimistic_head_slot",
		Help: "Slot of the latest verified optimistic head.",
	})
	finalizedSlotGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lightclient_finalized_head_slot",
		Help: "Slot of the latest verified finalized head.",
	})
	updatesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightclient_updates_applied_total",
		Help: "Count of light client updates that passed verification and advanced the store.",
	})
	updatesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightclient_updates_rejected_total",
		Help: "Count of light client updates rejected by verification.",
	})
	updatesDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightclient_updates_deduplicated_total",
		Help: "Count of light client updates skipped because an identical update was already processed.",
	})
	forcedAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightclient_forced_advances_total",
		Help: "Count of forced head advances after finality stalled past the update timeout.",
	})
)
