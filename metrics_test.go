package dicomext

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordBatch("assembled", 120*time.Millisecond)
	m.RecordBatch("empty", 5*time.Millisecond)
	m.RecordInstance(Accept("bucket", "a.dcm").Build(), time.Millisecond)
	m.RecordInstance(Reject("bucket", "b.dcm", ReasonNotFound).Build(), time.Millisecond)
	m.RecordRead(4096)
	m.RecordCacheLookup("hit")
	m.RecordCacheLookup("miss")

	if got := testutil.ToFloat64(m.BatchesTotal.WithLabelValues("assembled")); got != 1 {
		t.Errorf("batches{assembled} = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.BatchesTotal.WithLabelValues("empty")); got != 1 {
		t.Errorf("batches{empty} = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.InstancesTotal.WithLabelValues("accepted", "")); got != 1 {
		t.Errorf("instances{accepted} = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.InstancesTotal.WithLabelValues("rejected", "not-found")); got != 1 {
		t.Errorf("instances{rejected,not-found} = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.BytesRead); got != 4096 {
		t.Errorf("bytes read = %v; want 4096", got)
	}
	if got := testutil.ToFloat64(m.MappingCacheHits.WithLabelValues("hit")); got != 1 {
		t.Errorf("cache{hit} = %v; want 1", got)
	}
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	// Disabled metrics must be a no-op, not a panic.
	m.RecordBatch("assembled", time.Second)
	m.RecordInstance(Accept("bucket", "a.dcm").Build(), time.Millisecond)
	m.RecordRead(1)
	m.RecordCacheLookup("hit")
}
