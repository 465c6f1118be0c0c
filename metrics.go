package docent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sourceURL  = "url"
	sourceFile = "file"

	outcomeOK     = "ok"
	outcomeError  = "error"
	outcomeCached = "cached"

	opCreate  = "create"
	opUpdate  = "update"
	opUnknown = "unknown"
)

var (
	describeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docent_describe_requests_total",
		Help: "Describe requests by image source and outcome.",
	}, []string{"source", "outcome"})

	describeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docent_describe_duration_seconds",
		Help:    "Latency of completion requests.",
		Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 90},
	}, []string{"source"})

	publishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docent_publish_total",
		Help: "Repository writes by operation and outcome.",
	}, []string{"op", "outcome"})
)
