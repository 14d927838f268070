package service

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
)

// sqsReceiver is the slice of the SQS client the consumer uses.
type sqsReceiver interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Consumer polls a queue of batch messages and processes each one. One
// message carries one study.
type Consumer struct {
	client   sqsReceiver
	queueURL string
	svc      *Service
	log      zerolog.Logger
	waitSecs int32
}

// NewConsumer creates a consumer reading from the given queue URL.
func NewConsumer(client sqsReceiver, queueURL string, svc *Service) *Consumer {
	return &Consumer{
		client:   client,
		queueURL: queueURL,
		svc:      svc,
		log:      zerolog.Nop(),
		waitSecs: 20,
	}
}

// WithLogger sets the logger. The default discards all output.
func (c *Consumer) WithLogger(log zerolog.Logger) *Consumer {
	c.log = log
	return c
}

// Run polls until ctx is cancelled. Receive failures are returned; the
// caller owns the restart policy.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if _, err := c.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// RunOnce performs a single receive cycle and returns the number of
// messages handled.
func (c *Consumer) RunOnce(ctx context.Context) (int, error) {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     c.waitSecs,
	})
	if err != nil {
		return 0, err
	}

	for _, msg := range out.Messages {
		c.handle(ctx, msg.Body, msg.ReceiptHandle)
	}
	return len(out.Messages), nil
}

func (c *Consumer) handle(ctx context.Context, body, receipt *string) {
	if body == nil {
		c.delete(ctx, receipt)
		return
	}

	batch, err := ParseBatch([]byte(*body))
	if err != nil {
		// A payload that cannot decode can never succeed on redelivery.
		c.log.Error().Err(err).Msg("dropping malformed batch payload")
		c.delete(ctx, receipt)
		return
	}

	_, err = c.svc.ProcessBatch(ctx, batch)
	switch {
	case err == nil:
		c.delete(ctx, receipt)
	case errors.Is(err, dicomext.ErrEmptyBatch):
		// Deterministic failure: the same objects reject every time.
		// Rejections were already dispatched to the bad-data sink.
		c.log.Error().Err(err).Msg("batch produced no document")
		c.delete(ctx, receipt)
	default:
		// Transient (config store, delivery, cancellation): leave the
		// message for redelivery.
		c.log.Warn().Err(err).Msg("batch failed, leaving message for redelivery")
	}
}

func (c *Consumer) delete(ctx context.Context, receipt *string) {
	if receipt == nil {
		return
	}
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receipt,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("delete message failed")
	}
}
