package services

import (
	"context"

	"serverless-api-starter/internal/models"
)

// UserService defines the interface for user business logic operations
type UserService interface {
	CreateUser(ctx context.Context, req *models.UserCreateRequest) (*models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	Greeting(name string) *models.Greeting
}

// EmailService defines the interface for outbound email operations
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, recipient, name string) (string, error)
	SendEmail(ctx context.Context, to []string, subject, htmlBody, textBody string) (string, error)
	ValidateEmailAddress(email string) error
}

// QueueMessage is a received queue message with its deletion handle.
type QueueMessage struct {
	MessageID     string            `json:"message_id"`
	Body          string            `json:"body"`
	ReceiptHandle string            `json:"receipt_handle"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// BatchSendResult reports the outcome of a batched queue send.
type BatchSendResult struct {
	Successful []string `json:"successful"`
	Failed     []string `json:"failed"`
}

// QueueService defines the interface for message queue operations
// bound to a single queue URL.
type QueueService interface {
	SendMessage(ctx context.Context, body string, attributes map[string]string) (string, error)
	SendMessageBatch(ctx context.Context, bodies []string) (*BatchSendResult, error)
	ReceiveMessages(ctx context.Context, maxMessages int32, waitSeconds int32) ([]QueueMessage, error)
	DeleteMessage(ctx context.Context, receiptHandle string) error
	PurgeQueue(ctx context.Context) error
}

// TableService defines the interface for key-value table operations
// bound to a single table name.
type TableService interface {
	PutItem(ctx context.Context, item map[string]any) error
	GetItem(ctx context.Context, key map[string]any) (map[string]any, error)
	DeleteItem(ctx context.Context, key map[string]any) error
	UpdateItem(ctx context.Context, key map[string]any, updates map[string]any) (map[string]any, error)
	Query(ctx context.Context, keyCondition string, values map[string]any, limit int32) ([]map[string]any, error)
	Scan(ctx context.Context, limit int32) ([]map[string]any, error)
	BatchPutItems(ctx context.Context, items []map[string]any) error
	BatchGetItems(ctx context.Context, keys []map[string]any) ([]map[string]any, error)
	ItemExists(ctx context.Context, key map[string]any) (bool, error)
}
