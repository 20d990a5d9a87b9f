package metrics

import (
	"net/http"
	"time"

	"github.com/guarzo/swuprice/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg            *prometheus.Registry
	HTTPRequests   *prometheus.CounterVec
	CardsPriced    prometheus.Counter
	Warnings       *prometheus.CounterVec
	RunDurationSec prometheus.Histogram
	LastSuccess    prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swuprice_http_requests_total",
		Help: "Upstream HTTP requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	priced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swuprice_cards_priced_total",
		Help: "Cards that completed resolution, pricing and conversion.",
	})
	warnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swuprice_warnings_total",
		Help: "Soft anomalies by kind.",
	}, []string{"kind"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swuprice_run_duration_seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swuprice_last_run_success_timestamp",
		Help: "Unix time of the last run that wrote its output.",
	})

	r.MustRegister(requests, priced, warnings, duration, lastSuccess)
	return &Registry{
		reg:            r,
		HTTPRequests:   requests,
		CardsPriced:    priced,
		Warnings:       warnings,
		RunDurationSec: duration,
		LastSuccess:    lastSuccess,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// ObserveRequest matches httpx.Observer.
func (r *Registry) ObserveRequest(endpoint, outcome string) {
	r.HTTPRequests.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveWarning matches the model.Warnings hook.
func (r *Registry) ObserveWarning(w model.Warning) {
	r.Warnings.WithLabelValues(string(w.Kind)).Inc()
}

// ObserveRun records a finished run. Only successful runs move the timestamp.
func (r *Registry) ObserveRun(d time.Duration, ok bool) {
	r.RunDurationSec.Observe(d.Seconds())
	if ok {
		r.LastSuccess.SetToCurrentTime()
	}
}
