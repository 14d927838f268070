package mapping

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/store"
)

// countingStore wraps a ConfigStore and counts fetches.
type countingStore struct {
	inner store.ConfigStore
	gets  atomic.Int32
}

func (c *countingStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	c.gets.Add(1)
	return c.inner.GetObject(ctx, bucket, key)
}

func configFixture() *store.Memory {
	m := store.NewMemory()
	m.Put("config", "template.json", []byte(testTemplate))
	m.Put("config", "table.json", []byte(testTable))
	return m
}

func TestLoader_Load(t *testing.T) {
	loader := NewLoader(configFixture())

	spec, err := loader.Load(context.Background(), "config", "template.json", "table.json")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(spec.Projections()) != 3 {
		t.Errorf("len(Projections) = %d; want 3", len(spec.Projections()))
	}
}

func TestLoader_CachesValidatedSpec(t *testing.T) {
	counting := &countingStore{inner: configFixture()}
	loader := NewLoader(counting)

	first, err := loader.Load(context.Background(), "config", "template.json", "table.json")
	if err != nil {
		t.Fatalf("first Load error: %v", err)
	}
	second, err := loader.Load(context.Background(), "config", "template.json", "table.json")
	if err != nil {
		t.Fatalf("second Load error: %v", err)
	}

	if first != second {
		t.Error("second Load did not return the cached spec")
	}
	if got := counting.gets.Load(); got != 2 {
		t.Errorf("config fetches = %d; want 2 (template + table, once)", got)
	}
}

func TestLoader_MissingTemplate(t *testing.T) {
	m := store.NewMemory()
	m.Put("config", "table.json", []byte(testTable))
	loader := NewLoader(m)

	_, err := loader.Load(context.Background(), "config", "template.json", "table.json")
	if !errors.Is(err, dicomext.ErrConfigUnavailable) {
		t.Errorf("error = %v; want ErrConfigUnavailable", err)
	}
}

func TestLoader_MalformedTable(t *testing.T) {
	m := store.NewMemory()
	m.Put("config", "template.json", []byte(testTemplate))
	m.Put("config", "table.json", []byte(`{"projections":[{"tag":"??","path":"started","type":"date"}]}`))
	loader := NewLoader(m)

	_, err := loader.Load(context.Background(), "config", "template.json", "table.json")
	if !errors.Is(err, dicomext.ErrConfigUnavailable) {
		t.Errorf("error = %v; want ErrConfigUnavailable", err)
	}
}
