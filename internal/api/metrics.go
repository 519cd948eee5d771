/*
Package api
File: metrics.go
Description: Prometheus instrumentation for the planning endpoints.
*/

package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	plansComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diveplan_plans_computed_total",
		Help: "Plan computations by outcome (ok, invalid, no_safe_gas, error).",
	}, []string{"status"})

	stopsPlanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diveplan_deco_stops_planned_total",
		Help: "Decompression stop minutes emitted by successful plans.",
	})
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
