package dicomext

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Per-instance errors are absorbed
// by the aggregator (the instance is rejected, the batch continues);
// batch-level errors propagate to the caller.
var (
	// ErrNotFound indicates the referenced object does not exist in the
	// object store. Per-instance.
	ErrNotFound = errors.New("object not found")

	// ErrTruncatedRead indicates the byte cap was reached before the
	// essential identifying tags were decoded. Per-instance.
	ErrTruncatedRead = errors.New("truncated read before identifying tags")

	// ErrMalformedStream indicates the element structure violates the
	// expected DICOM encoding. Per-instance.
	ErrMalformedStream = errors.New("malformed DICOM stream")

	// ErrStudyIdentityMismatch indicates the instance carries a different
	// Study Instance UID than the batch reference. Per-instance.
	ErrStudyIdentityMismatch = errors.New("study identity mismatch")

	// ErrEmptyBatch indicates every instance in the batch was rejected.
	// Batch-level: no document is produced.
	ErrEmptyBatch = errors.New("empty batch: no valid instances")

	// ErrConfigUnavailable indicates the mapping configuration could not be
	// loaded or validated. Batch-level: processing must not start with a
	// partially applied default template.
	ErrConfigUnavailable = errors.New("mapping configuration unavailable")
)

// InstanceError wraps a per-instance failure with the object key it
// occurred on. The underlying sentinel determines the reject reason.
type InstanceError struct {
	// Key is the object-store key of the failing instance.
	Key string

	// Err is one of the per-instance sentinel errors, possibly wrapped.
	Err error
}

// Error implements the error interface.
func (e *InstanceError) Error() string {
	return fmt.Sprintf("instance %s: %v", e.Key, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *InstanceError) Unwrap() error {
	return e.Err
}

// NewInstanceError wraps err with the instance key.
func NewInstanceError(key string, err error) *InstanceError {
	return &InstanceError{Key: key, Err: err}
}

// ReasonForError maps a per-instance error to its reject reason.
// Unrecognized errors map to ReasonMalformedStream, the conservative choice
// for a stream that could not be processed.
func ReasonForError(err error) RejectReason {
	switch {
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrTruncatedRead):
		return ReasonTruncatedRead
	case errors.Is(err, ErrStudyIdentityMismatch):
		return ReasonStudyIdentityMismatch
	default:
		return ReasonMalformedStream
	}
}
