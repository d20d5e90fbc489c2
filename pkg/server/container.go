package server

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/sirupsen/logrus"

	"serverless-api-starter/internal/adapters/storage"
	"serverless-api-starter/internal/config"
	"serverless-api-starter/internal/handlers"
	"serverless-api-starter/internal/middleware"
	"serverless-api-starter/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Services *services.ServiceContainer
	Storage  storage.FileStorage
	Auth     *middleware.AuthService
	Registry *middleware.ErrorRegistry
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := newLogger(cfg)

	serviceConfig := &services.ServiceConfig{
		SenderEmail: cfg.AWS.SenderEmail,
	}

	var awsLoaded bool
	needsAWS := cfg.Storage.Type == string(storage.StorageTypeS3) ||
		cfg.AWS.SenderEmail != "" || cfg.AWS.QueueURL != "" || cfg.AWS.UserTable != ""

	factory := storage.NewFactory(storage.DefaultRetryConfig(), nil)
	if needsAWS {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		awsLoaded = true

		factory = storage.NewFactory(storage.DefaultRetryConfig(), &awsCfg)
		if cfg.AWS.SenderEmail != "" {
			serviceConfig.SESClient = ses.NewFromConfig(awsCfg)
		}
		if cfg.AWS.QueueURL != "" {
			serviceConfig.SQSClient = sqs.NewFromConfig(awsCfg)
		}
		if cfg.AWS.UserTable != "" {
			serviceConfig.DynamoDB = dynamodb.NewFromConfig(awsCfg)
		}
	}

	store, err := factory.Create(&storage.FactoryConfig{
		Type:     cfg.Storage.Type,
		BasePath: cfg.Storage.LocalPath,
		Bucket:   cfg.Storage.S3Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file storage: %w", err)
	}

	serviceContainer, err := services.NewServiceContainer(serviceConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create service container: %w", err)
	}

	var auth *middleware.AuthService
	if cfg.JWT.Secret != "" {
		auth = middleware.NewAuthService(&middleware.AuthConfig{
			Secret:        cfg.JWT.Secret,
			TokenDuration: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
			Issuer:        cfg.ServiceName,
		})
	}

	logger.WithFields(logrus.Fields{
		"storage_type": cfg.Storage.Type,
		"aws_loaded":   awsLoaded,
		"auth_enabled": auth != nil,
	}).Info("container initialized")

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Services: serviceContainer,
		Storage:  store,
		Auth:     auth,
		Registry: middleware.NewErrorRegistry(logger),
	}, nil
}

// RouterConfig builds the handler wiring for this container.
func (c *Container) RouterConfig() *handlers.RouterConfig {
	var auditQueue services.QueueService
	if c.Services.QueueRegistry != nil && c.Config.AWS.QueueURL != "" {
		q, err := c.Services.QueueRegistry.Get(c.Config.AWS.QueueURL)
		if err != nil {
			c.Logger.WithError(err).Warn("audit queue unavailable")
		} else {
			auditQueue = q
		}
	}

	return &handlers.RouterConfig{
		ServiceName:    c.Config.ServiceName,
		Version:        c.Config.Version,
		UserService:    c.Services.UserService,
		EmailService:   c.Services.EmailService,
		AuditQueue:     auditQueue,
		FileStorage:    c.Storage,
		AuthService:    c.Auth,
		Registry:       c.Registry,
		Logger:         c.Logger,
		RateLimitRPS:   c.Config.RateLimit.RequestsPerSecond,
		RateLimitBurst: c.Config.RateLimit.Burst,
	}
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.Environment == "production" || config.IsServerlessMode() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
