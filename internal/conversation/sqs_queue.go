package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQS caps a single long poll at 20 seconds and a message delay at 15 minutes.
const (
	sqsMaxWait  = 20 * time.Second
	sqsMaxDelay = 15 * time.Minute
)

// SQSQueue carries turn jobs over SQS. On a FIFO queue (URL ending in
// .fifo) turns are grouped by session so one caller's messages stay in
// order; FIFO queues ignore per-message delays.
type SQSQueue struct {
	client   sqsAPI
	queueURL string
	fifo     bool
}

func NewSQSQueue(client sqsAPI, queueURL string) *SQSQueue {
	if client == nil {
		panic("conversation: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("conversation: SQS queue URL cannot be empty")
	}
	return &SQSQueue{client: client, queueURL: queueURL, fifo: strings.HasSuffix(queueURL, ".fifo")}
}

func (q *SQSQueue) Send(ctx context.Context, env envelope) error {
	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(env.Body),
	}
	if q.fifo {
		group := env.Group
		if group == "" {
			group = "default"
		}
		in.MessageGroupId = aws.String(group)
		if env.DedupID != "" {
			in.MessageDeduplicationId = aws.String(env.DedupID)
		}
	} else if env.Delay > 0 {
		in.DelaySeconds = int32(min(env.Delay, sqsMaxDelay) / time.Second)
	}
	if _, err := q.client.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("conversation: sqs send: %w", err)
	}
	return nil
}

func (q *SQSQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]delivery, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     int32(min(wait, sqsMaxWait) / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: sqs receive: %w", err)
	}
	batch := make([]delivery, 0, len(out.Messages))
	for _, m := range out.Messages {
		batch = append(batch, delivery{
			ID:      aws.ToString(m.MessageId),
			Body:    aws.ToString(m.Body),
			Receipt: aws.ToString(m.ReceiptHandle),
		})
	}
	return batch, nil
}

func (q *SQSQueue) Ack(ctx context.Context, receipt string) error {
	if receipt == "" {
		return nil
	}
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receipt),
	})
	if err != nil {
		return fmt.Errorf("conversation: sqs delete: %w", err)
	}
	return nil
}
