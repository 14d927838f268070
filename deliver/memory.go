package deliver

import (
	"context"
	"sync"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
)

// MemoryDeliverer records delivered documents. It backs tests and local
// runs without a datastore.
type MemoryDeliverer struct {
	mu   sync.Mutex
	docs []document.Document
}

// NewMemoryDeliverer creates an empty in-memory deliverer.
func NewMemoryDeliverer() *MemoryDeliverer {
	return &MemoryDeliverer{}
}

// Deliver stores a deep copy of the document.
func (m *MemoryDeliverer) Deliver(_ context.Context, doc document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, doc.Clone())
	return nil
}

// Documents returns the delivered documents in delivery order.
func (m *MemoryDeliverer) Documents() []document.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]document.Document, len(m.docs))
	copy(out, m.docs)
	return out
}

// MemorySink records dispatched rejections.
type MemorySink struct {
	mu        sync.Mutex
	decisions []dicomext.RoutingDecision
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Dispatch records the rejected decisions.
func (m *MemorySink) Dispatch(_ context.Context, decisions []dicomext.RoutingDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range decisions {
		if d.IsRejected() {
			m.decisions = append(m.decisions, d)
		}
	}
	return nil
}

// Decisions returns the recorded rejections in dispatch order.
func (m *MemorySink) Decisions() []dicomext.RoutingDecision {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dicomext.RoutingDecision, len(m.decisions))
	copy(out, m.decisions)
	return out
}
