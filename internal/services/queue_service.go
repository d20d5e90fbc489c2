package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"serverless-api-starter/internal/apierr"
)

// SQSAPI is the subset of the SQS client used by the queue service.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	PurgeQueue(ctx context.Context, params *sqs.PurgeQueueInput, optFns ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error)
}

// maxBatchEntries is the SQS limit on entries per batch request.
const maxBatchEntries = 10

// queueService implements the QueueService interface for one queue URL.
type queueService struct {
	client   SQSAPI
	queueURL string
}

// NewQueueService creates a new queue service instance bound to queueURL
func NewQueueService(client SQSAPI, queueURL string) (QueueService, error) {
	if client == nil {
		return nil, fmt.Errorf("SQS client cannot be nil")
	}
	if queueURL == "" {
		return nil, fmt.Errorf("queue URL cannot be empty")
	}
	return &queueService{client: client, queueURL: queueURL}, nil
}

// SendMessage enqueues a single message and returns its message ID
func (s *queueService) SendMessage(ctx context.Context, body string, attributes map[string]string) (string, error) {
	if body == "" {
		return "", apierr.NewValidation("Message body cannot be empty", nil)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(body),
	}
	if len(attributes) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attributes))
		for name, value := range attributes {
			input.MessageAttributes[name] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(value),
			}
		}
	}

	out, err := s.client.SendMessage(ctx, input)
	if err != nil {
		// Provider detail stays in the wrapped chain for logs only.
		return "", fmt.Errorf("send message: %w: %w",
			apierr.NewExternalService("Queue send failed", nil), err)
	}

	return aws.ToString(out.MessageId), nil
}

// SendMessageBatch enqueues messages in chunks of at most ten entries
func (s *queueService) SendMessageBatch(ctx context.Context, bodies []string) (*BatchSendResult, error) {
	if len(bodies) == 0 {
		return nil, apierr.NewValidation("Message batch cannot be empty", nil)
	}

	result := &BatchSendResult{}
	for start := 0; start < len(bodies); start += maxBatchEntries {
		end := start + maxBatchEntries
		if end > len(bodies) {
			end = len(bodies)
		}

		entries := make([]types.SendMessageBatchRequestEntry, 0, end-start)
		for i, body := range bodies[start:end] {
			entries = append(entries, types.SendMessageBatchRequestEntry{
				Id:          aws.String(strconv.Itoa(start + i)),
				MessageBody: aws.String(body),
			})
		}

		out, err := s.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(s.queueURL),
			Entries:  entries,
		})
		if err != nil {
			return nil, fmt.Errorf("send message batch: %w: %w",
				apierr.NewExternalService("Queue batch send failed", nil), err)
		}

		for _, ok := range out.Successful {
			result.Successful = append(result.Successful, aws.ToString(ok.MessageId))
		}
		for _, failed := range out.Failed {
			result.Failed = append(result.Failed, aws.ToString(failed.Id))
		}
	}

	return result, nil
}

// ReceiveMessages fetches up to maxMessages messages, capped at the SQS
// per-request limit.
func (s *queueService) ReceiveMessages(ctx context.Context, maxMessages int32, waitSeconds int32) ([]QueueMessage, error) {
	if maxMessages < 1 {
		maxMessages = 1
	}
	if maxMessages > maxBatchEntries {
		maxMessages = maxBatchEntries
	}
	if waitSeconds < 0 {
		waitSeconds = 0
	}

	out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(s.queueURL),
		MaxNumberOfMessages:   maxMessages,
		WaitTimeSeconds:       waitSeconds,
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return nil, fmt.Errorf("receive messages: %w: %w",
			apierr.NewExternalService("Queue receive failed", nil), err)
	}

	messages := make([]QueueMessage, 0, len(out.Messages))
	for _, msg := range out.Messages {
		received := QueueMessage{
			MessageID:     aws.ToString(msg.MessageId),
			Body:          aws.ToString(msg.Body),
			ReceiptHandle: aws.ToString(msg.ReceiptHandle),
		}
		if len(msg.MessageAttributes) > 0 {
			received.Attributes = make(map[string]string, len(msg.MessageAttributes))
			for name, attr := range msg.MessageAttributes {
				received.Attributes[name] = aws.ToString(attr.StringValue)
			}
		}
		messages = append(messages, received)
	}

	return messages, nil
}

// DeleteMessage removes a message by its receipt handle
func (s *queueService) DeleteMessage(ctx context.Context, receiptHandle string) error {
	if receiptHandle == "" {
		return apierr.NewValidation("Receipt handle cannot be empty", nil)
	}

	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w: %w",
			apierr.NewExternalService("Queue delete failed", nil), err)
	}

	return nil
}

// PurgeQueue removes all messages from the queue
func (s *queueService) PurgeQueue(ctx context.Context) error {
	_, err := s.client.PurgeQueue(ctx, &sqs.PurgeQueueInput{
		QueueUrl: aws.String(s.queueURL),
	})
	if err != nil {
		return fmt.Errorf("purge queue: %w: %w",
			apierr.NewExternalService("Queue purge failed", nil), err)
	}

	return nil
}

// QueueRegistry hands out one queue service per queue URL.
type QueueRegistry struct {
	client SQSAPI

	mu       sync.Mutex
	services map[string]QueueService
}

// NewQueueRegistry creates a new queue registry
func NewQueueRegistry(client SQSAPI) *QueueRegistry {
	return &QueueRegistry{
		client:   client,
		services: make(map[string]QueueService),
	}
}

// Get returns the queue service for queueURL, creating it on first use
func (r *QueueRegistry) Get(queueURL string) (QueueService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.services[queueURL]; ok {
		return svc, nil
	}

	svc, err := NewQueueService(r.client, queueURL)
	if err != nil {
		return nil, err
	}
	r.services[queueURL] = svc

	return svc, nil
}
