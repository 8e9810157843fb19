package queues

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Yulian302/lfusys-services-crmrelay/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
)

type RelayNotify interface {
	NotifyRelayComplete(ctx context.Context, msg RelayCompleteMessage) error
}

type RelayCompleteMessage struct {
	DealID   string `json:"deal_id"`
	Uploaded int    `json:"uploaded"`
	Stored   int    `json:"stored"`
	Fallback int    `json:"fallback"`
	Failed   int    `json:"failed"`
	Errors   int    `json:"errors"`
}

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SQSRelayNotify struct {
	client   sqsSender
	queueURL string

	logger logging.Logger
}

func NewSQSRelayNotify(client sqsSender, region, accountID, queueName string, l logging.Logger) *SQSRelayNotify {
	return &SQSRelayNotify{
		client:   client,
		queueURL: fmt.Sprintf("https://sqs.%s.amazonaws.com/%s/%s.fifo", region, accountID, queueName),
		logger:   l,
	}
}

func (q *SQSRelayNotify) NotifyRelayComplete(ctx context.Context, msg RelayCompleteMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	res, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),

		MessageGroupId:         aws.String(msg.DealID),
		MessageDeduplicationId: aws.String(uuid.NewString()),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	q.logger.Debug("relay notification sent",
		"deal_id", msg.DealID,
		"message_id", aws.ToString(res.MessageId),
	)
	return nil
}

// NopRelayNotify is used when notifications are disabled.
type NopRelayNotify struct{}

func (NopRelayNotify) NotifyRelayComplete(context.Context, RelayCompleteMessage) error { return nil }
