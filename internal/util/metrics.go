package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_commands_total",
		Help: "Total number of catalog commands by outcome",
	}, []string{"command", "result"})

	CommandLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_command_latency_seconds",
		Help:    "Latency of catalog commands including event dispatch",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	ActiveAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_alerts_active",
		Help: "Number of active low-stock alerts",
	})

	OrdersFulfilledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_fulfilled_total",
		Help: "Total number of orders fulfilled",
	})

	FulfillmentsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillments_rejected_total",
		Help: "Total number of rejected fulfillments",
	}, []string{"reason"})

	DeletesRefusedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deletes_refused_total",
		Help: "Total number of deletes refused because dependents exist",
	}, []string{"entity"})

	EventsDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_events_dispatched_total",
		Help: "Total number of event batches handed to sinks",
	}, []string{"sink", "result"})

	StorefrontEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_events_total",
		Help: "Total number of storefront events consumed",
	}, []string{"type", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
