package services

import (
	"fmt"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	UserService   UserService
	EmailService  EmailService
	QueueRegistry *QueueRegistry
	TableRegistry *TableRegistry
}

// ServiceConfig holds configuration for services
type ServiceConfig struct {
	SESClient   SESAPI
	SQSClient   SQSAPI
	DynamoDB    DynamoDBAPI
	SenderEmail string
}

// NewServiceContainer creates a new service container with all services.
// Services whose AWS client is absent are left nil so local runs without
// credentials still serve the routes that do not need them.
func NewServiceContainer(config *ServiceConfig) (*ServiceContainer, error) {
	if config == nil {
		config = &ServiceConfig{}
	}

	container := &ServiceContainer{
		UserService: NewUserService(),
	}

	if config.SESClient != nil {
		emailService, err := NewEmailService(config.SESClient, config.SenderEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to create email service: %w", err)
		}
		container.EmailService = emailService
	}

	if config.SQSClient != nil {
		container.QueueRegistry = NewQueueRegistry(config.SQSClient)
	}

	if config.DynamoDB != nil {
		container.TableRegistry = NewTableRegistry(config.DynamoDB)
	}

	return container, nil
}
