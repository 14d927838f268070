package dicomext

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the aggregation core.
// All methods are safe for concurrent use and tolerate a nil receiver so
// metric collection can be disabled without branching at every call site.
type Metrics struct {
	BatchesTotal     *prometheus.CounterVec
	BatchDuration    prometheus.Histogram
	InstancesTotal   *prometheus.CounterVec
	DecodeDuration   prometheus.Histogram
	BytesRead        prometheus.Counter
	MappingCacheHits *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer for process-wide metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicom_batches_total",
				Help: "Batches processed, by terminal state.",
			},
			[]string{"state"},
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dicom_batch_duration_seconds",
				Help:    "End-to-end batch processing time.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		InstancesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicom_instances_total",
				Help: "Instances processed, by outcome and reject reason.",
			},
			[]string{"outcome", "reason"},
		),
		DecodeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dicom_instance_decode_duration_seconds",
				Help:    "Per-instance read and decode time.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		BytesRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dicom_bytes_read_total",
				Help: "Bytes fetched from the object store.",
			},
		),
		MappingCacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicom_mapping_cache_requests_total",
				Help: "Mapping specification cache lookups.",
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.BatchesTotal,
			m.BatchDuration,
			m.InstancesTotal,
			m.DecodeDuration,
			m.BytesRead,
			m.MappingCacheHits,
		)
	}
	return m
}

// RecordBatch records a completed batch with its terminal state
// ("assembled", "empty" or "transform_failed").
func (m *Metrics) RecordBatch(state string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(state).Inc()
	m.BatchDuration.Observe(duration.Seconds())
}

// RecordInstance records one instance outcome.
func (m *Metrics) RecordInstance(d RoutingDecision, decodeTime time.Duration) {
	if m == nil {
		return
	}
	m.InstancesTotal.WithLabelValues(string(d.Outcome), string(d.Reason)).Inc()
	m.DecodeDuration.Observe(decodeTime.Seconds())
}

// RecordRead records bytes fetched from the object store.
func (m *Metrics) RecordRead(n int64) {
	if m == nil {
		return
	}
	m.BytesRead.Add(float64(n))
}

// RecordCacheLookup records a mapping-spec cache lookup result
// ("hit" or "miss").
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.MappingCacheHits.WithLabelValues(result).Inc()
}
