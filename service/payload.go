package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
)

// ParseBatch decodes a queue payload into a batch. Producers send either
// the batch object itself or a single-element list wrapping it; both shapes
// are accepted.
func ParseBatch(data []byte) (dicomext.Batch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return dicomext.Batch{}, fmt.Errorf("empty batch payload")
	}

	var batch dicomext.Batch
	if trimmed[0] == '[' {
		var list []dicomext.Batch
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return dicomext.Batch{}, fmt.Errorf("decode batch payload: %w", err)
		}
		if len(list) != 1 {
			return dicomext.Batch{}, fmt.Errorf("batch payload holds %d batches; want 1", len(list))
		}
		batch = list[0]
	} else if err := json.Unmarshal(trimmed, &batch); err != nil {
		return dicomext.Batch{}, fmt.Errorf("decode batch payload: %w", err)
	}

	if batch.Bucket == "" {
		return dicomext.Batch{}, fmt.Errorf("batch payload missing bucket")
	}
	return batch, nil
}
