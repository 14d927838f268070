package deliver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	dicomext "github.com/aws-samples/amazon-healthlake-dicom-extension"
)

// sqsAPI is the slice of the SQS client the sink uses.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQS forwards rejected decisions to a dead-letter queue, one message per
// decision so each bad object can be reviewed and replayed independently.
type SQS struct {
	client   sqsAPI
	queueURL string
}

// NewSQS creates a sink sending to the given queue URL.
func NewSQS(client sqsAPI, queueURL string) *SQS {
	return &SQS{client: client, queueURL: queueURL}
}

// Dispatch sends every rejected decision. Accepted decisions are skipped, so
// callers may pass the full decision list. The first send failure aborts the
// dispatch; redelivery of the batch re-sends the remainder.
func (s *SQS) Dispatch(ctx context.Context, decisions []dicomext.RoutingDecision) error {
	for _, d := range decisions {
		if !d.IsRejected() {
			continue
		}
		body, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encode decision for %s: %w", d.Key, err)
		}
		_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(s.queueURL),
			MessageBody: aws.String(string(body)),
		})
		if err != nil {
			return fmt.Errorf("send decision for %s: %w", d.Key, err)
		}
	}
	return nil
}
