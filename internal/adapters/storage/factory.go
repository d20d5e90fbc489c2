package storage

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// StorageType identifies a FileStorage implementation.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMock  StorageType = "mock"
)

// FactoryConfig selects and configures a FileStorage implementation.
type FactoryConfig struct {
	Type     string
	BasePath string // local storage
	BaseURL  string // local storage URL generation
	Bucket   string // s3 storage
}

// Factory creates FileStorage instances based on configuration.
type Factory struct {
	retryConfig *RetryConfig
	awsConfig   *aws.Config
}

// NewFactory creates a storage factory. awsConfig may be nil when S3 storage
// is never selected (local development, tests).
func NewFactory(retryConfig *RetryConfig, awsConfig *aws.Config) *Factory {
	return &Factory{retryConfig: retryConfig, awsConfig: awsConfig}
}

// Create creates a FileStorage instance, wrapped with retry logic when the
// factory carries a retry configuration.
func (f *Factory) Create(config *FactoryConfig) (FileStorage, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	var (
		store FileStorage
		err   error
	)

	switch StorageType(strings.ToLower(config.Type)) {
	case StorageTypeLocal:
		basePath := config.BasePath
		if basePath == "" {
			basePath = "./storage"
		}
		if config.BaseURL != "" {
			store, err = NewLocalFileStorage(basePath, config.BaseURL)
		} else {
			store, err = NewLocalFileStorage(basePath)
		}
	case StorageTypeS3:
		if f.awsConfig == nil {
			return nil, fmt.Errorf("s3 storage requires an AWS config")
		}
		client := s3.NewFromConfig(*f.awsConfig)
		store, err = NewS3FileStorage(client, s3.NewPresignClient(client), config.Bucket)
	case StorageTypeMock:
		store = NewMockFileStorage()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", config.Type, err)
	}

	if f.retryConfig != nil {
		store = NewRetryableFileStorage(store, f.retryConfig)
	}
	return store, nil
}
