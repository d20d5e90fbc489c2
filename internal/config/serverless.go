package config

import (
	"os"
	"sync"
)

// ServerlessConfig holds Lambda-specific configuration.
type ServerlessConfig struct {
	IsLambda     bool
	FunctionName string
	Region       string
	Stage        string
}

var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration, detected once per
// execution context.
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = &ServerlessConfig{
			IsLambda:     isRunningInLambda(),
			FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
			Region:       os.Getenv("AWS_REGION"),
			Stage:        GetEnv("STAGE", "dev"),
		}
	})
	return serverlessConfig
}

func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in AWS Lambda.
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// AdaptConfigForServerless adjusts configuration for Lambda: the filesystem
// is read-only apart from /tmp, so local file storage is swapped for S3.
func AdaptConfigForServerless(config *Config) *Config {
	if !IsServerlessMode() {
		return config
	}

	if config.Storage.Type == "local" {
		config.Storage.Type = "s3"
		if config.Storage.S3Bucket == "" {
			config.Storage.S3Bucket = GetEnv("DATA_BUCKET", "serverless-api-starter-data")
		}
		if config.Storage.S3Region == "" {
			config.Storage.S3Region = GetEnv("AWS_REGION", "us-east-1")
		}
	}

	return config
}

// GetOptimizedConfig returns configuration adapted to the current deployment
// mode.
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	return AdaptConfigForServerless(config), nil
}
