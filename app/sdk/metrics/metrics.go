// Package metrics constructs the metrics the application will track.
package metrics

import (
	"context"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var m = struct {
	goroutines prometheus.GaugeFunc
	requests   prometheus.Counter
	errors     prometheus.Counter
	panics     prometheus.Counter
}{
	goroutines: promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "crm",
		Name:      "goroutines",
		Help:      "Number of goroutines that currently exist.",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	}),
	requests: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crm",
		Name:      "requests_total",
		Help:      "Number of requests handled.",
	}),
	errors: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crm",
		Name:      "errors_total",
		Help:      "Number of requests that ended in an error.",
	}),
	panics: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crm",
		Name:      "panics_total",
		Help:      "Number of recovered panics.",
	}),
}

// AddRequests increments the request count by 1.
func AddRequests(ctx context.Context) {
	m.requests.Inc()
}

// AddErrors increments the errors count by 1.
func AddErrors(ctx context.Context) {
	m.errors.Inc()
}

// AddPanics increments the panics count by 1.
func AddPanics(ctx context.Context) {
	m.panics.Inc()
}
