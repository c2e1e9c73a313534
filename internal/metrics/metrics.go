// Package metrics содержит Prometheus-метрики сервера.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskkeeper"

var (
	// HTTPRequestsTotal считает HTTP-запросы по методу, шаблону маршрута и статусу.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration измеряет длительность HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// NotesSwept считает заметки, удаленные по истечении срока.
	NotesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_swept_total",
			Help:      "Total number of expired notes deleted by sweeps",
		},
	)

	// VaultReveals считает попытки раскрытия секретов по результату.
	VaultReveals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_reveals_total",
			Help:      "Total number of vault reveal attempts by outcome",
		},
		[]string{"outcome"}, // "ok", "unauthorized", "not_found", "rate_limited", "error"
	)

	// CodecOperations считает операции кодека секретов.
	CodecOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codec_operations_total",
			Help:      "Total number of secret encode/decode operations",
		},
		[]string{"operation"}, // "encode" или "decode"
	)

	// DatabaseConnections отражает состояние пула соединений.
	DatabaseConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "database_connections",
			Help:      "Database connection pool statistics",
		},
		[]string{"state"}, // "open", "idle", "in_use"
	)
)

// Результаты раскрытия секрета.
const (
	RevealOK           = "ok"
	RevealUnauthorized = "unauthorized"
	RevealNotFound     = "not_found"
	RevealRateLimited  = "rate_limited"
	RevealError        = "error"
)
