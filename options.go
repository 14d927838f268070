package dicomext

import (
	"runtime"
	"time"
)

// DefaultByteLimit bounds how much of each object is read. DICOM metadata
// lives in the header region; 10 KiB covers typical header sizes while
// keeping memory use flat for multi-gigabyte objects.
const DefaultByteLimit = 10 * 1024

// Option configures batch processing.
type Option func(*Options)

// Options holds all configuration for the aggregator.
type Options struct {
	// ByteLimit is the maximum number of bytes read per object.
	ByteLimit int64

	// WorkerCount is the number of goroutines decoding instances within a
	// batch. Defaults to runtime.NumCPU().
	WorkerCount int

	// EndpointTemplate, when non-empty, derives per-instance endpoint
	// references from a retrieval-service URL template instead of the
	// object-store location. Placeholders {study}, {series} and {instance}
	// are substituted with the respective UIDs.
	EndpointTemplate string

	// ReadTimeout bounds a single object read. Zero means no timeout
	// beyond the caller's context.
	ReadTimeout time.Duration

	// CollectMetrics enables Prometheus metric collection.
	CollectMetrics bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		ByteLimit:      DefaultByteLimit,
		WorkerCount:    runtime.NumCPU(),
		ReadTimeout:    0,
		CollectMetrics: true,
	}
}

// WithByteLimit sets the per-object read cap in bytes.
func WithByteLimit(limit int64) Option {
	return func(o *Options) {
		if limit > 0 {
			o.ByteLimit = limit
		}
	}
}

// WithWorkerCount sets the number of decode workers per batch.
func WithWorkerCount(count int) Option {
	return func(o *Options) {
		if count > 0 {
			o.WorkerCount = count
		}
	}
}

// WithEndpointTemplate sets a retrieval-service URL template for instance
// endpoint references.
func WithEndpointTemplate(template string) Option {
	return func(o *Options) {
		o.EndpointTemplate = template
	}
}

// WithReadTimeout bounds each object read.
func WithReadTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = timeout
	}
}

// WithMetrics enables or disables metric collection.
func WithMetrics(enable bool) Option {
	return func(o *Options) {
		o.CollectMetrics = enable
	}
}

// SequentialOptions returns options that disable intra-batch parallelism.
// Useful for deterministic debugging of decode failures.
func SequentialOptions() []Option {
	return []Option{
		WithWorkerCount(1),
	}
}
