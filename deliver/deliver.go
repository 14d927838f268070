package deliver

import (
	"context"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/pkg/document"
)

// Deliverer persists one assembled study document. Ownership of the
// document transfers with the call; the core keeps no reference to it.
type Deliverer interface {
	Deliver(ctx context.Context, doc document.Document) error
}

// BadDataSink receives rejected routing decisions for out-of-band handling.
// Retry and redelivery are the sink's side of the contract, never the
// core's.
type BadDataSink interface {
	Dispatch(ctx context.Context, decisions []dicomext.RoutingDecision) error
}
