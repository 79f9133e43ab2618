// Package metrics provides Prometheus metrics for the slopetrace pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion path
	eventsPublished prometheus.Counter
	publishErrors   prometheus.Counter
	publishLatency  prometheus.Histogram
	channelsInUse   prometheus.Gauge

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Consumer path
	deliveriesReceived prometheus.Counter
	decodeFailures     prometheus.Counter
	messagesDropped    prometheus.Counter
	messagesRequeued   prometheus.Counter

	// Event buffer between consumers and aggregation workers
	bufferSize        prometheus.Gauge
	bufferCapacity    prometheus.Gauge
	bufferUtilization prometheus.Gauge
	bufferEnqueues    prometheus.Counter
	bufferDequeues    prometheus.Counter
	bufferRejections  prometheus.Counter

	// Aggregation
	aggregationBatches prometheus.Counter
	aggregationErrors  prometheus.Counter
	partialBatches     prometheus.Counter
	aggregationLatency prometheus.Histogram
	workerCount        prometheus.Gauge

	// Store
	storeErrors       prometheus.Counter
	storeReadLatency  prometheus.Histogram
	storeWriteLatency prometheus.Histogram

	// Per-component error tracking
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "slopetrace",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // metric registration is inherently flat
	auto := promauto.With(m.registry)

	m.eventsPublished = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_published_total",
		Help:      "Total lift ride events handed to the broker",
	})

	m.publishErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_errors_total",
		Help:      "Total publish failures including pool exhaustion",
	})

	m.publishLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_latency_milliseconds",
		Help:      "Borrow-publish-return round trip latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.channelsInUse = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_channels_in_use",
		Help:      "Broker channels currently borrowed from the pool",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by endpoint, method and status code",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.deliveriesReceived = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deliveries_received_total",
		Help:      "Total queue deliveries received by the consumer pool",
	})

	m.decodeFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decode_failures_total",
		Help:      "Total deliveries dropped because the payload failed to decode",
	})

	m.messagesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "messages_dropped_total",
		Help:      "Total messages lost after delivery (decode or aggregation failure)",
	})

	m.messagesRequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "messages_requeued_total",
		Help:      "Total deliveries returned to the broker due to backpressure",
	})

	m.bufferSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "buffer_size",
		Help:      "Current depth of the aggregation buffer",
	})

	m.bufferCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "buffer_capacity",
		Help:      "Configured capacity of the aggregation buffer",
	})

	m.bufferUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "buffer_utilization_ratio",
		Help:      "Aggregation buffer depth divided by capacity",
	})

	m.bufferEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "buffer_enqueues_total",
		Help:      "Total events accepted into the aggregation buffer",
	})

	m.bufferDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "buffer_dequeues_total",
		Help:      "Total events taken from the aggregation buffer by workers",
	})

	m.bufferRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "buffer_rejections_total",
		Help:      "Total events rejected because the aggregation buffer was full",
	})

	m.aggregationBatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_batches_total",
		Help:      "Total aggregation batches executed against the store",
	})

	m.aggregationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_errors_total",
		Help:      "Total aggregation batches that failed entirely",
	})

	m.partialBatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_partial_batches_total",
		Help:      "Batches where some but not all commands landed; set and counters may have diverged",
	})

	m.aggregationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_latency_milliseconds",
		Help:      "Per-event aggregation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_worker_count",
		Help:      "Number of aggregation workers",
	})

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total store command failures",
	})

	m.storeReadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_read_latency_milliseconds",
		Help:      "Store point read latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_latency_milliseconds",
		Help:      "Pipelined store write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Errors by component and kind",
		},
		[]string{"component", "kind"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current goroutine count",
	})
}

// Ingestion path.

func RecordEventPublished()           { globalManager.eventsPublished.Inc() }
func RecordPublishError()             { globalManager.publishErrors.Inc() }
func RecordPublishLatency(ms float64) { globalManager.publishLatency.Observe(ms) }
func UpdateChannelsInUse(n int)       { globalManager.channelsInUse.Set(float64(n)) }

// HTTP surface.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// Consumer path.

func RecordDeliveryReceived() { globalManager.deliveriesReceived.Inc() }
func RecordDecodeFailure()    { globalManager.decodeFailures.Inc() }
func RecordMessageDropped()   { globalManager.messagesDropped.Inc() }
func RecordMessageRequeued()  { globalManager.messagesRequeued.Inc() }

// Event buffer.

func UpdateBufferSize(size int)         { globalManager.bufferSize.Set(float64(size)) }
func UpdateBufferCapacity(capacity int) { globalManager.bufferCapacity.Set(float64(capacity)) }
func UpdateBufferUtilization(r float64) { globalManager.bufferUtilization.Set(r) }
func RecordBufferEnqueue()              { globalManager.bufferEnqueues.Inc() }
func RecordBufferDequeue()              { globalManager.bufferDequeues.Inc() }
func RecordBufferRejection()            { globalManager.bufferRejections.Inc() }

// Aggregation.

func RecordAggregationBatch()             { globalManager.aggregationBatches.Inc() }
func RecordAggregationError()             { globalManager.aggregationErrors.Inc() }
func RecordPartialBatch()                 { globalManager.partialBatches.Inc() }
func RecordAggregationLatency(ms float64) { globalManager.aggregationLatency.Observe(ms) }
func UpdateWorkerCount(n int)             { globalManager.workerCount.Set(float64(n)) }

// Store.

func RecordStoreError()                  { globalManager.storeErrors.Inc() }
func RecordStoreReadLatency(ms float64)  { globalManager.storeReadLatency.Observe(ms) }
func RecordStoreWriteLatency(ms float64) { globalManager.storeWriteLatency.Observe(ms) }

// Error tracking.

func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// System.

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(n int)     { globalManager.systemGoroutineCount.Set(float64(n)) }

// GetRegistry returns the custom registry used for the /metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
