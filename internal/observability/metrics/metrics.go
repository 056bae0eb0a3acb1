// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "speech_translation"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Translation request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Filter metrics
	FilterVerdicts *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec
	CacheEntries prometheus.Gauge
	CachePurged  prometheus.Counter

	// Translator metrics
	TranslatorLatency *prometheus.HistogramVec
	TranslatorErrors  *prometheus.CounterVec

	// STT metrics
	STTLatency         *prometheus.HistogramVec
	STTErrors          *prometheus.CounterVec
	AudioBytesReceived prometheus.Counter
	ChunksSkipped      *prometheus.CounterVec

	// History metrics
	HistoryWrites *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Broadcast metrics
	BroadcastClients  prometheus.Gauge
	BroadcastMessages prometheus.Counter

	// gRPC metrics
	GRPCRequests *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of translation requests by transport and outcome",
		}, []string{"transport", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Translation pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"outcome"}),

		FilterVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_verdicts_total",
			Help:      "Suppressing filter verdicts by pipeline stage",
		}, []string{"stage", "verdict"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Translation cache lookups by result",
		}, []string{"result"}),
		CacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Number of entries in the translation cache",
		}),
		CachePurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_purged_total",
			Help:      "Expired cache entries removed by the purge job",
		}),

		TranslatorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translator_latency_seconds",
			Help:      "Upstream translation call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		TranslatorErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translator_errors_total",
			Help:      "Total number of upstream translation errors",
		}, []string{"provider"}),

		STTLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Speech-to-text processing latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"provider"}),
		STTErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of STT errors",
		}, []string{"provider", "error_type"}),
		AudioBytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received for transcription",
		}),
		ChunksSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_skipped_total",
			Help:      "Audio chunks answered without calling STT",
		}, []string{"reason"}),

		HistoryWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_writes_total",
			Help:      "History store writes by store, scope and result",
		}, []string{"store", "scope", "result"}),

		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		BroadcastClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broadcast_clients",
			Help:      "Number of connected room WebSocket clients",
		}),
		BroadcastMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_messages_total",
			Help:      "Total number of translation events pushed to rooms",
		}),

		GRPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC calls by method and code",
		}, []string{"method", "code"}),
	}
}

// RecordRequest records a finished translation request.
func (m *Metrics) RecordRequest(transport, outcome string, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(transport, outcome).Inc()
	m.RequestDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

// RecordFilterVerdict records a suppressing verdict at a pipeline stage.
func (m *Metrics) RecordFilterVerdict(stage, verdict string) {
	m.FilterVerdicts.WithLabelValues(stage, verdict).Inc()
}

// RecordCacheLookup records a cache lookup; result is hit, miss or stale.
func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheSize records the current number of cache entries.
func (m *Metrics) RecordCacheSize(entries int) {
	m.CacheEntries.Set(float64(entries))
}

// RecordCachePurge records entries removed by the purge job.
func (m *Metrics) RecordCachePurge(removed int) {
	m.CachePurged.Add(float64(removed))
}

// RecordTranslation records an upstream translation call.
func (m *Metrics) RecordTranslation(provider string, err error, latencySeconds float64) {
	m.TranslatorLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.TranslatorErrors.WithLabelValues(provider).Inc()
	}
}

// RecordSTT records a speech-to-text call latency.
func (m *Metrics) RecordSTT(provider string, latencySeconds float64) {
	m.STTLatency.WithLabelValues(provider).Observe(latencySeconds)
}

// RecordSTTError records an STT error.
func (m *Metrics) RecordSTTError(provider, errorType string) {
	m.STTErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordAudioReceived records audio bytes received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordChunkSkipped records an audio chunk answered without STT.
func (m *Metrics) RecordChunkSkipped(reason string) {
	m.ChunksSkipped.WithLabelValues(reason).Inc()
}

// RecordHistoryWrite records a history write; result is ok, retried_ok or failed.
func (m *Metrics) RecordHistoryWrite(store, scope, result string) {
	m.HistoryWrites.WithLabelValues(store, scope, result).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordBroadcastClients records the number of connected clients.
func (m *Metrics) RecordBroadcastClients(n int) {
	m.BroadcastClients.Set(float64(n))
}

// RecordBroadcast records an event pushed to a room.
func (m *Metrics) RecordBroadcast() {
	m.BroadcastMessages.Inc()
}

// RecordGRPCRequest records a finished gRPC call.
func (m *Metrics) RecordGRPCRequest(method, code string) {
	m.GRPCRequests.WithLabelValues(method, code).Inc()
}
