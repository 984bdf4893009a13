package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal — счётчик HTTP-запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration — длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentwatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SamplesReceived — принятые отчёты телеметрии
	SamplesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rentwatch_samples_received_total",
			Help: "Total number of telemetry samples received",
		},
	)

	// EventsGenerated — события по типу и серьёзности
	EventsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentwatch_events_generated_total",
			Help: "Total number of device events generated",
		},
		[]string{"event_type", "severity"},
	)

	// Escalations — автоматические переходы в SUPERWATCH
	Escalations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rentwatch_superwatch_escalations_total",
			Help: "Total number of automatic SUPERWATCH escalations",
		},
	)

	// ScreenshotsStored — принятые скриншоты
	ScreenshotsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rentwatch_screenshots_stored_total",
			Help: "Total number of screenshots stored",
		},
	)

	// HeuristicFailures — деградации эвристик (ответ агенту всё равно ушёл)
	HeuristicFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rentwatch_heuristic_failures_total",
			Help: "Total number of heuristic pipeline failures degraded to no-events",
		},
	)
)
