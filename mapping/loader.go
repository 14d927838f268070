package mapping

import (
	"context"
	"fmt"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/cache"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/store"
)

// Loader fetches and validates mapping specifications from a configuration
// store, caching validated specs so repeated batches against the same
// configuration skip the fetch. A Spec is immutable and may be shared by
// concurrent batches.
type Loader struct {
	configs store.ConfigStore
	cache   *cache.Cache[string, *Spec]
	metrics *dicomext.Metrics
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCacheCapacity sets how many validated specs are kept warm.
func WithCacheCapacity(n int) LoaderOption {
	return func(l *Loader) {
		l.cache = cache.New[string, *Spec](n)
	}
}

// WithLoaderMetrics records cache lookups on m.
func WithLoaderMetrics(m *dicomext.Metrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = m
	}
}

// NewLoader creates a Loader over the given configuration store.
func NewLoader(configs store.ConfigStore, opts ...LoaderOption) *Loader {
	l := &Loader{
		configs: configs,
		cache:   cache.New[string, *Spec](8),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the template and tag-table documents and returns the
// validated Spec. Any failure is fatal for the batch: processing must not
// continue on a partially applied default template.
func (l *Loader) Load(ctx context.Context, bucket, templateKey, tableKey string) (*Spec, error) {
	key := bucket + "/" + templateKey + "/" + tableKey
	if spec, ok := l.cache.Get(key); ok {
		l.metrics.RecordCacheLookup("hit")
		return spec, nil
	}
	l.metrics.RecordCacheLookup("miss")

	templateJSON, err := l.configs.GetObject(ctx, bucket, templateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch template %s/%s: %v", dicomext.ErrConfigUnavailable, bucket, templateKey, err)
	}

	tableJSON, err := l.configs.GetObject(ctx, bucket, tableKey)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch tag table %s/%s: %v", dicomext.ErrConfigUnavailable, bucket, tableKey, err)
	}

	spec, err := ParseSpec(templateJSON, tableJSON)
	if err != nil {
		return nil, err
	}

	l.cache.Set(key, spec)
	return spec, nil
}

// Load is a convenience wrapper for one-shot loading without a Loader.
func Load(ctx context.Context, configs store.ConfigStore, bucket, templateKey, tableKey string) (*Spec, error) {
	return NewLoader(configs).Load(ctx, bucket, templateKey, tableKey)
}
