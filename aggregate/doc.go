// Package aggregate builds one ImagingStudy document from a batch of DICOM
// SOP Instances belonging to a single study.
//
// Processing runs as a state machine over the batch: instances are decoded
// and projected in parallel (Collecting), checked against the batch's
// reference study identity (Identity Check), partitioned into series
// (Grouping), and merged into one hierarchical document (Assembly). A batch
// ends Assembled, or Empty when every instance was rejected.
//
// Per-instance failures reject that instance and the batch continues;
// identity mismatches are rejected the same way and never merged. Every
// instance yields exactly one routing decision for the caller to dispatch.
//
//	agg := aggregate.New(objects, spec).
//		WithTransform(transform.NewChain(transform.InstanceCount()))
//	result, err := agg.Process(ctx, dicomext.Batch{
//		Bucket:    "imaging-bucket",
//		Instances: []string{"study/a.dcm", "study/b.dcm"},
//	})
package aggregate
