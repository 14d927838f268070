// Package deliver defines the downstream collaborators a processed batch is
// handed to: a Deliverer that persists the assembled study document, and a
// BadDataSink that receives the rejected routing decisions.
//
// The AWS HealthLake Deliverer posts the document as FHIR JSON with SigV4
// request signing. The SQS BadDataSink forwards each rejection to a
// dead-letter queue for out-of-band review. In-memory implementations back
// tests and local runs.
package deliver
