// Package reader decodes the metadata element stream of DICOM SOP
// Instances from an object store, bounded by a configurable byte cap.
package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/suyashkumar/dicom"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/store"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/tagset"
)

// dicomHeaderSize is the fixed preamble plus the DICM magic.
const dicomHeaderSize = 132

// Reader reads SOP Instance metadata from an object store. The byte cap is
// enforced per read: metadata lives in the header region, so decoding stops
// long before pixel data regardless of object size.
//
// Reader is stateless apart from its configuration and is safe for
// concurrent use.
type Reader struct {
	objects store.ObjectStore
	limit   int64
}

// New creates a Reader with the given per-object byte cap. A non-positive
// cap falls back to dicomext.DefaultByteLimit.
func New(objects store.ObjectStore, byteLimit int64) *Reader {
	if byteLimit <= 0 {
		byteLimit = dicomext.DefaultByteLimit
	}
	return &Reader{objects: objects, limit: byteLimit}
}

// ByteLimit returns the configured per-object cap.
func (r *Reader) ByteLimit() int64 {
	return r.limit
}

// ReadTags fetches at most the configured number of bytes of the object and
// decodes its element stream into a TagSet.
//
// Failure modes:
//   - dicomext.ErrNotFound: the object is missing from the store
//   - dicomext.ErrTruncatedRead: the cap was reached before the essential
//     identifying tags were decoded
//   - dicomext.ErrMalformedStream: the element structure violates the
//     expected encoding
//
// Unknown and private elements are retained in the TagSet and never cause
// failure. A decode error past the cap is tolerated as long as the
// identifying tags were already seen, since truncated trailing elements are
// expected when an object outgrows the cap.
func (r *Reader) ReadTags(ctx context.Context, bucket, key string) (*tagset.TagSet, int64, error) {
	data, err := r.objects.GetRange(ctx, bucket, key, r.limit)
	if err != nil {
		if errors.Is(err, dicomext.ErrNotFound) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}

	read := int64(len(data))
	capped := read >= r.limit

	ts, err := decode(data, capped)
	if err != nil {
		return nil, read, fmt.Errorf("decode %s/%s: %w", bucket, key, err)
	}
	return ts, read, nil
}

// decode parses as many elements as the buffer allows. capped indicates the
// buffer may be a truncated prefix of the object.
//
// Truncation is only claimed when the buffer shows evidence of a real DICOM
// stream cut short by the cap: either the cap landed inside the fixed
// header, or the DICM magic is present and parsing ran out of bytes. A
// buffer that never looked like DICOM is malformed no matter where the cap
// fell.
func decode(data []byte, capped bool) (*tagset.TagSet, error) {
	headerOK := hasDICMHeader(data)

	parser, err := dicom.NewParser(bytes.NewReader(data), int64(len(data)), nil, dicom.SkipPixelData())
	if err != nil {
		// A capped buffer can end inside the file-meta group, in which
		// case the parser fails before the first dataset element.
		if capped && (len(data) < dicomHeaderSize || headerOK) {
			return nil, dicomext.ErrTruncatedRead
		}
		return nil, fmt.Errorf("%w: %v", dicomext.ErrMalformedStream, err)
	}

	elems := parser.GetMetadata().Elements
	for {
		elem, nextErr := parser.Next()
		if nextErr != nil {
			if isCleanEnd(nextErr) {
				break
			}
			if capped && isTruncation(nextErr) {
				// Salvage what was decoded before the cap.
				ts := tagset.FromElements(elems)
				if ts.HasIdentity() {
					return ts, nil
				}
				if headerOK {
					return nil, dicomext.ErrTruncatedRead
				}
			}
			return nil, fmt.Errorf("%w: %v", dicomext.ErrMalformedStream, nextErr)
		}
		elems = append(elems, elem)
	}

	ts := tagset.FromElements(elems)
	if capped && !ts.HasIdentity() {
		if headerOK {
			return nil, dicomext.ErrTruncatedRead
		}
		return nil, dicomext.ErrMalformedStream
	}
	return ts, nil
}

// hasDICMHeader reports whether the buffer carries the full preamble and
// the DICM magic.
func hasDICMHeader(data []byte) bool {
	return len(data) >= dicomHeaderSize &&
		string(data[dicomHeaderSize-4:dicomHeaderSize]) == "DICM"
}

// isCleanEnd reports whether the parser reached the end of the dataset.
func isCleanEnd(err error) bool {
	return errors.Is(err, dicom.ErrorEndOfDICOM)
}

// isTruncation reports whether the parser ran out of bytes mid-element.
func isTruncation(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
