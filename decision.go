package dicomext

// Outcome is the terminal classification of one input instance.
type Outcome string

const (
	// OutcomeAccepted indicates the instance was merged into the output
	// document.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected indicates the instance was excluded and must be
	// routed to the bad-data collaborator.
	OutcomeRejected Outcome = "rejected"
)

// RejectReason identifies why an instance was rejected.
type RejectReason string

const (
	// ReasonNotFound indicates the object was missing from the store.
	ReasonNotFound RejectReason = "not-found"
	// ReasonTruncatedRead indicates the byte cap was reached before the
	// identifying tags were decoded.
	ReasonTruncatedRead RejectReason = "truncated-read"
	// ReasonMalformedStream indicates the DICOM encoding was invalid.
	ReasonMalformedStream RejectReason = "malformed-stream"
	// ReasonStudyIdentityMismatch indicates the instance belongs to a
	// different study than the batch reference.
	ReasonStudyIdentityMismatch RejectReason = "study-identity-mismatch"
)

// RoutingDecision records the outcome for one input instance. Exactly one
// decision is produced per instance reference; the core never retries a
// rejected instance.
type RoutingDecision struct {
	// Bucket is the object-store bucket of the instance.
	Bucket string `json:"bucket"`

	// Key is the object-store key of the instance.
	Key string `json:"key"`

	// Outcome is accepted or rejected.
	Outcome Outcome `json:"outcome"`

	// Reason is set when Outcome is rejected.
	Reason RejectReason `json:"reason,omitempty"`

	// Diagnostics contains human-readable details about a rejection.
	Diagnostics string `json:"diagnostics,omitempty"`
}

// IsRejected returns true for a rejected decision.
func (d RoutingDecision) IsRejected() bool {
	return d.Outcome == OutcomeRejected
}

// String returns a human-readable representation of the decision.
func (d RoutingDecision) String() string {
	if d.Outcome == OutcomeAccepted {
		return d.Key + ": accepted"
	}
	s := d.Key + ": rejected (" + string(d.Reason) + ")"
	if d.Diagnostics != "" {
		s += " " + d.Diagnostics
	}
	return s
}

// DecisionBuilder provides a fluent API for building routing decisions.
type DecisionBuilder struct {
	decision RoutingDecision
}

// Accept starts an accepted decision for the given instance.
func Accept(bucket, key string) *DecisionBuilder {
	return &DecisionBuilder{decision: RoutingDecision{
		Bucket:  bucket,
		Key:     key,
		Outcome: OutcomeAccepted,
	}}
}

// Reject starts a rejected decision for the given instance.
func Reject(bucket, key string, reason RejectReason) *DecisionBuilder {
	return &DecisionBuilder{decision: RoutingDecision{
		Bucket:  bucket,
		Key:     key,
		Outcome: OutcomeRejected,
		Reason:  reason,
	}}
}

// Diagnostics sets the diagnostic message.
func (b *DecisionBuilder) Diagnostics(msg string) *DecisionBuilder {
	b.decision.Diagnostics = msg
	return b
}

// Build returns the constructed decision.
func (b *DecisionBuilder) Build() RoutingDecision {
	return b.decision
}

// Router is the bad-data router: it accumulates per-instance outcomes during
// a batch and emits them as an ordered sequence of routing decisions. It is
// pure classification; dispatching decisions is the caller's concern.
//
// Router is not safe for concurrent use. The aggregator records outcomes
// only after the decode barrier, from a single goroutine.
type Router struct {
	bucket    string
	decisions []RoutingDecision
}

// NewRouter creates a router for one batch against a single bucket.
func NewRouter(bucket string) *Router {
	return &Router{bucket: bucket}
}

// RecordAccepted records an accepted instance.
func (r *Router) RecordAccepted(key string) {
	r.decisions = append(r.decisions, Accept(r.bucket, key).Build())
}

// RecordRejected classifies err and records a rejected instance.
func (r *Router) RecordRejected(key string, err error) {
	b := Reject(r.bucket, key, ReasonForError(err))
	if err != nil {
		b.Diagnostics(err.Error())
	}
	r.decisions = append(r.decisions, b.Build())
}

// Decisions returns all decisions in recording order.
func (r *Router) Decisions() []RoutingDecision {
	return r.decisions
}

// Rejected returns only the rejected decisions, in recording order.
func (r *Router) Rejected() []RoutingDecision {
	var rejected []RoutingDecision
	for _, d := range r.decisions {
		if d.IsRejected() {
			rejected = append(rejected, d)
		}
	}
	return rejected
}

// AcceptedCount returns the number of accepted instances.
func (r *Router) AcceptedCount() int {
	n := 0
	for _, d := range r.decisions {
		if !d.IsRejected() {
			n++
		}
	}
	return n
}
