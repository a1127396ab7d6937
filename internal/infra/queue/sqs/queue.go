// Package sqs adapts the AWS SQS client to the scanning.WorkQueue port.
// Visibility timeout is the sole mutual-exclusion mechanism between worker
// processes; acknowledging a work item deletes its message permanently.
package sqs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

// API is the subset of the SQS client the queue depends on.
type API interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Config holds the queue's polling parameters.
type Config struct {
	QueueURL string
	// WaitTimeSeconds is the long-poll wait for ReceiveMessage.
	WaitTimeSeconds int32
	// VisibilityTimeout is how long a received message stays invisible to
	// other consumers before redelivery.
	VisibilityTimeout int32
	// MaxMessages is the batch size per receive.
	MaxMessages int32
}

// DefaultConfig returns the polling defaults: 20s long poll, 300s visibility,
// one message per receive.
func DefaultConfig(queueURL string) Config {
	return Config{
		QueueURL:          queueURL,
		WaitTimeSeconds:   20,
		VisibilityTimeout: 300,
		MaxMessages:       1,
	}
}

var _ scanning.WorkQueue = (*Queue)(nil)

// Queue implements scanning.WorkQueue backed by SQS.
type Queue struct {
	client API
	cfg    Config
	log    *logger.Logger
}

// NewQueue creates a Queue around the given SQS client.
func NewQueue(client API, cfg Config, log *logger.Logger) *Queue {
	return &Queue{client: client, cfg: cfg, log: log}
}

// Receive long-polls for a batch of work items. Malformed payloads are
// acknowledged and dropped here so they cannot loop as poison messages.
func (q *Queue) Receive(ctx context.Context) ([]scanning.WorkItem, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:             aws.String(q.cfg.QueueURL),
		MaxNumberOfMessages:  q.cfg.MaxMessages,
		WaitTimeSeconds:      q.cfg.WaitTimeSeconds,
		VisibilityTimeout:    q.cfg.VisibilityTimeout,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameApproximateReceiveCount},
	})
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}

	items := make([]scanning.WorkItem, 0, len(out.Messages))
	for _, msg := range out.Messages {
		item, err := scanning.ParseWorkItem([]byte(aws.ToString(msg.Body)))
		if err != nil {
			q.log.Error(ctx, "dropping malformed work item",
				"message_id", aws.ToString(msg.MessageId), "err", err)
			if ackErr := q.Acknowledge(ctx, aws.ToString(msg.ReceiptHandle)); ackErr != nil {
				q.log.Error(ctx, "failed to delete malformed message", "err", ackErr)
			}
			continue
		}

		item.MessageID = aws.ToString(msg.MessageId)
		item.ReceiptHandle = aws.ToString(msg.ReceiptHandle)
		if raw, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]; ok {
			if count, err := strconv.Atoi(raw); err == nil {
				item.Attempt = count
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Acknowledge deletes the delivered message from the queue.
func (q *Queue) Acknowledge(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.cfg.QueueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// Enqueue publishes a work item for processing.
func (q *Queue) Enqueue(ctx context.Context, item scanning.WorkItem) error {
	body, err := scanning.EncodeWorkItem(item)
	if err != nil {
		return fmt.Errorf("encode work item: %w", err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.cfg.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
