package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Environment string
	Port        string
	ServiceName string
	Version     string
	Storage     StorageConfig
	AWS         AWSConfig
	JWT         JWTConfig
	RateLimit   RateLimitConfig
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	Type      string // "local", "s3" or "mock"
	LocalPath string
	S3Bucket  string
	S3Region  string
}

// AWSConfig holds settings for the AWS service wrappers.
type AWSConfig struct {
	Region      string
	UserTable   string
	QueueURL    string
	SenderEmail string
}

// JWTConfig holds token signing configuration.
type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// RateLimitConfig holds request throttling configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load loads configuration from environment variables and an optional .env
// file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("SERVICE_NAME", "serverless-api-starter")
	viper.SetDefault("SERVICE_VERSION", "1.0.0")
	viper.SetDefault("STORAGE_TYPE", "local")
	viper.SetDefault("STORAGE_LOCAL_PATH", "./data/files")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("RATE_LIMIT_RPS", 50.0)
	viper.SetDefault("RATE_LIMIT_BURST", 100)

	config := &Config{
		Environment: viper.GetString("ENVIRONMENT"),
		Port:        viper.GetString("PORT"),
		ServiceName: viper.GetString("SERVICE_NAME"),
		Version:     viper.GetString("SERVICE_VERSION"),
		Storage: StorageConfig{
			Type:      viper.GetString("STORAGE_TYPE"),
			LocalPath: viper.GetString("STORAGE_LOCAL_PATH"),
			S3Bucket:  viper.GetString("DATA_BUCKET"),
			S3Region:  viper.GetString("AWS_REGION"),
		},
		AWS: AWSConfig{
			Region:      viper.GetString("AWS_REGION"),
			UserTable:   viper.GetString("DYNAMODB_TABLE"),
			QueueURL:    viper.GetString("SQS_QUEUE_URL"),
			SenderEmail: viper.GetString("SES_SENDER_EMAIL"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

// GetEnv gets an environment variable with a fallback value.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt gets an environment variable as integer with a fallback value.
func GetEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
