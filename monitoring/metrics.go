package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	FormLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_form_loads_total",
			Help: "Client record loads on form mount by outcome",
		},
		[]string{"mode", "outcome"},
	)

	FormSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_form_submissions_total",
			Help: "Client form submissions by outcome",
		},
		[]string{"mode", "outcome"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(FormLoads)
		prometheus.MustRegister(FormSubmissions)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
