package upstream

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cityweather",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream requests by upstream name and outcome.",
	}, []string{"upstream", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cityweather",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Upstream request latency, excluding the simulated dispatch delay.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"upstream"})
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrHTTPStatus):
		return "http_status"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "transport"
	}
}
