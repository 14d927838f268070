package service

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/deliver"
	"github.com/aws-samples/amazon-healthlake-dicom-extension/store"
)

func TestParseBatch(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    dicomext.Batch
		wantErr bool
	}{
		{
			name:    "object body",
			payload: `{"bucket": "imaging", "instances": ["a.dcm", "b.dcm"]}`,
			want:    dicomext.Batch{Bucket: "imaging", Instances: []string{"a.dcm", "b.dcm"}},
		},
		{
			name:    "single-element list body",
			payload: `[{"bucket": "imaging", "instances": ["a.dcm"]}]`,
			want:    dicomext.Batch{Bucket: "imaging", Instances: []string{"a.dcm"}},
		},
		{
			name:    "multi-element list",
			payload: `[{"bucket": "a"}, {"bucket": "b"}]`,
			wantErr: true,
		},
		{
			name:    "missing bucket",
			payload: `{"instances": ["a.dcm"]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `study please`,
			wantErr: true,
		},
		{
			name:    "empty",
			payload: ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBatch([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseBatch error = nil; want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBatch error: %v", err)
			}
			if got.Bucket != tt.want.Bucket || len(got.Instances) != len(tt.want.Instances) {
				t.Errorf("ParseBatch = %+v; want %+v", got, tt.want)
			}
		})
	}
}

// fakeQueue serves queued bodies one receive at a time and records deletes.
type fakeQueue struct {
	bodies  []string
	deleted int
}

func (f *fakeQueue) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if len(f.bodies) == 0 {
		return &sqs.ReceiveMessageOutput{}, nil
	}
	body := f.bodies[0]
	f.bodies = f.bodies[1:]
	return &sqs.ReceiveMessageOutput{Messages: []types.Message{{
		Body:          aws.String(body),
		ReceiptHandle: aws.String("receipt-1"),
	}}}, nil
}

func (f *fakeQueue) DeleteMessage(_ context.Context, _ *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted++
	return &sqs.DeleteMessageOutput{}, nil
}

func consumerFixture(t *testing.T, queue *fakeQueue) (*Consumer, *deliver.MemoryDeliverer) {
	t.Helper()

	objects := store.NewMemory()
	objects.Put("imaging", "a.dcm", encodeInstance(t, "1.2.3", "1.2.3.1", "1.2.3.1.1"))

	delivered := deliver.NewMemoryDeliverer()
	svc := New(objects, configStore(t), delivered, testConfig).
		WithBadDataSink(deliver.NewMemorySink())
	return NewConsumer(queue, "https://sqs.example.com/batches", svc), delivered
}

func TestConsumer_ProcessesAndDeletes(t *testing.T) {
	queue := &fakeQueue{bodies: []string{`{"bucket": "imaging", "instances": ["a.dcm"]}`}}
	consumer, delivered := consumerFixture(t, queue)

	n, err := consumer.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if n != 1 {
		t.Errorf("handled = %d messages; want 1", n)
	}
	if len(delivered.Documents()) != 1 {
		t.Errorf("delivered = %d documents; want 1", len(delivered.Documents()))
	}
	if queue.deleted != 1 {
		t.Errorf("deleted = %d messages; want 1", queue.deleted)
	}
}

func TestConsumer_DropsMalformedPayload(t *testing.T) {
	queue := &fakeQueue{bodies: []string{`not a batch`}}
	consumer, delivered := consumerFixture(t, queue)

	if _, err := consumer.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if len(delivered.Documents()) != 0 {
		t.Error("malformed payload produced a delivery")
	}
	if queue.deleted != 1 {
		t.Errorf("deleted = %d messages; want 1 (poison message removed)", queue.deleted)
	}
}

func TestConsumer_DeletesEmptyBatch(t *testing.T) {
	queue := &fakeQueue{bodies: []string{`{"bucket": "imaging", "instances": ["missing.dcm"]}`}}
	consumer, delivered := consumerFixture(t, queue)

	if _, err := consumer.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if len(delivered.Documents()) != 0 {
		t.Error("empty batch produced a delivery")
	}
	// Same objects reject deterministically, so the message is removed.
	if queue.deleted != 1 {
		t.Errorf("deleted = %d messages; want 1", queue.deleted)
	}
}

func TestConsumer_KeepsMessageOnTransientFailure(t *testing.T) {
	queue := &fakeQueue{bodies: []string{`{"bucket": "imaging", "instances": ["a.dcm"]}`}}

	objects := store.NewMemory()
	objects.Put("imaging", "a.dcm", encodeInstance(t, "1.2.3", "1.2.3.1", "1.2.3.1.1"))

	// Empty config store: ErrConfigUnavailable, retryable on redelivery.
	svc := New(objects, store.NewMemory(), deliver.NewMemoryDeliverer(), testConfig)
	consumer := NewConsumer(queue, "https://sqs.example.com/batches", svc)

	if _, err := consumer.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if queue.deleted != 0 {
		t.Errorf("deleted = %d messages; want 0 (left for redelivery)", queue.deleted)
	}
}
