package dicomext

import (
	"time"

	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
)

// Batch is the unit of work: every object key belongs to one imaging Study.
type Batch struct {
	// Bucket is the object-store bucket holding the SOP Instances.
	Bucket string `json:"bucket"`

	// Instances are the object keys of the SOP Instances to process.
	Instances []string `json:"instances"`
}

// BatchResult is the outcome of processing one batch. Ownership of the
// document transfers to the caller; the core keeps no reference to it.
type BatchResult struct {
	// Document is the assembled ImagingStudy. Nil only when processing
	// failed at batch level (EmptyBatch, cancellation).
	Document document.Document

	// StudyUID is the reference Study Instance UID for this batch.
	StudyUID string

	// Decisions holds one routing decision per input instance, in
	// processing order.
	Decisions []RoutingDecision

	// SeriesCount is the number of series in the assembled document.
	SeriesCount int

	// InstanceCount is the number of accepted instances.
	InstanceCount int

	// Duration is the total processing time for the batch.
	Duration time.Duration
}

// HasDocument returns true if a document was assembled.
func (r *BatchResult) HasDocument() bool {
	return r.Document != nil
}

// Accepted returns the accepted decisions, in processing order.
func (r *BatchResult) Accepted() []RoutingDecision {
	var accepted []RoutingDecision
	for _, d := range r.Decisions {
		if !d.IsRejected() {
			accepted = append(accepted, d)
		}
	}
	return accepted
}

// Rejected returns the rejected decisions, in processing order. These are
// the decisions the caller hands to the bad-data collaborator.
func (r *BatchResult) Rejected() []RoutingDecision {
	var rejected []RoutingDecision
	for _, d := range r.Decisions {
		if d.IsRejected() {
			rejected = append(rejected, d)
		}
	}
	return rejected
}

// RejectedCount returns the number of rejected instances.
func (r *BatchResult) RejectedCount() int {
	return len(r.Decisions) - r.InstanceCount
}
