package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
)

// S3 implements ObjectStore and ConfigStore over Amazon S3.
type S3 struct {
	client *s3.Client
}

// NewS3 wraps an existing S3 client.
func NewS3(client *s3.Client) *S3 {
	return &S3{client: client}
}

// NewS3FromConfig builds a client from an AWS configuration.
func NewS3FromConfig(cfg aws.Config) *S3 {
	return &S3{client: s3.NewFromConfig(cfg)}
}

// GetRange reads at most maxBytes bytes from the start of the object using
// a ranged request, so a multi-gigabyte instance never leaves the header
// region in transit.
func (s *S3) GetRange(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("s3 get %s/%s: non-positive byte limit %d", bucket, key, maxBytes)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", maxBytes-1)),
	})
	if err != nil {
		return nil, mapError(bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("s3 read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// GetObject reads a whole object, for configuration documents.
func (s *S3) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// mapError translates S3 missing-object errors into the core taxonomy.
func mapError(bucket, key string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("s3 get %s/%s: %w", bucket, key, dicomext.ErrNotFound)
	}
	return fmt.Errorf("s3 get %s/%s: %w", bucket, key, err)
}
