package store

import (
	"context"
	"fmt"
	"sync"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
)

// Memory is an in-process ObjectStore and ConfigStore, used in tests and
// for offline runs against local fixtures.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// Put stores an object.
func (m *Memory) Put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[bucket+"/"+key] = buf
}

// GetRange returns at most maxBytes bytes from the start of the object.
func (m *Memory) GetRange(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error) {
	data, err := m.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		data = data[:maxBytes]
	}
	return data, nil
}

// GetObject returns a copy of the whole object.
func (m *Memory) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("memory get %s/%s: %w", bucket, key, dicomext.ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
