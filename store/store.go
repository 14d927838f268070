// Package store defines the object-storage collaborators the aggregation
// core consumes, with Amazon S3 and in-memory implementations.
package store

import (
	"context"
)

// ObjectStore provides bounded reads of stored binary objects. Reads must
// return at most maxBytes bytes regardless of the object size; a missing
// object is reported with dicomext.ErrNotFound in the error chain.
type ObjectStore interface {
	GetRange(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error)
}

// ConfigStore fetches whole configuration documents.
type ConfigStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}
