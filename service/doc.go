// Package service orchestrates batch processing end to end: it loads the
// mapping configuration, runs the aggregator, hands the assembled document
// to the delivery collaborator, and dispatches rejected instances to the
// bad-data sink.
//
// Consumer drives the service from an SQS queue where each message carries
// one batch (one study). Message deletion tracks outcome: deterministic
// failures are deleted so they cannot poison the queue, transient failures
// are left for redelivery.
package service
