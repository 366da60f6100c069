package optimizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyforge_optimizer_fallbacks_total",
		Help: "Optimization runs answered by the deterministic fallback generator.",
	}, []string{"reason"})

	blocksAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyforge_optimizer_blocks_accepted_total",
		Help: "Proposed blocks accepted into the schedule.",
	})

	blocksRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyforge_optimizer_blocks_rejected_total",
		Help: "Proposed blocks rejected by the acceptance filter or the store.",
	})
)
