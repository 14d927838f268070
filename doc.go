// Package dicomext assembles FHIR ImagingStudy resources from the metadata
// of DICOM SOP Instances stored in an object store.
//
// One batch corresponds to one imaging Study: a bucket plus a list of object
// keys. Each object's header region is read up to a configurable byte cap,
// decoded into a typed tag set, projected onto a configurable FHIR template,
// and merged into a single Study/Series/Instance document annotated with
// per-instance endpoint references. Instances that fail decoding or that
// carry a different Study Instance UID than the batch are rejected and
// routed out without aborting the remaining instances.
//
// # Quick Start
//
//	import (
//	    dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
//	    "github.com/aws-samples/amazon-healthlake-dicom-extension/aggregate"
//	    "github.com/aws-samples/amazon-healthlake-dicom-extension/mapping"
//	)
//
//	spec, err := mapping.Load(ctx, configStore, configBucket, templateKey, tableKey)
//	if err != nil {
//	    log.Fatal(err) // ConfigUnavailable: nothing can be processed
//	}
//
//	agg := aggregate.New(objectStore, spec)
//	result, err := agg.Process(ctx, dicomext.Batch{
//	    Bucket:    "ingest-bucket",
//	    Instances: []string{"one.dcm", "two.dcm"},
//	})
//	if err != nil {
//	    // EmptyBatch or cancellation: no document was produced
//	}
//	for _, d := range result.Rejected() {
//	    // hand to the bad-data collaborator
//	}
//	// result.Document is ready for delivery
//
// # Architecture
//
// The core is a pipeline of pure stages behind small interfaces:
//
//   - reader: bounded tag decoding from the object store
//   - mapping: template projection driven by a validated tag table
//   - aggregate: identity check, series grouping, document assembly
//   - transform: user-extensible post-assembly adjustment pass
//   - Router (this package): classification of per-instance outcomes
//
// External collaborators (object store, configuration store, delivery
// target, bad-data queue) are consumed through interfaces defined in the
// store and deliver packages; AWS implementations are provided but the core
// never depends on them.
//
// # Concurrency
//
// Per-instance decoding inside a batch runs on a worker pool; grouping and
// assembly wait for every instance outcome. Batches for different studies
// share no mutable state and may run fully concurrently against one shared
// mapping.Spec. Cancelling the context discards partial state; a partially
// assembled document is never returned.
package dicomext
