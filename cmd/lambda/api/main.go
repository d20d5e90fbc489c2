package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-gonic/gin"

	"serverless-api-starter/internal/config"
	"serverless-api-starter/internal/handlers"
	"serverless-api-starter/pkg/lambda"
)

var adapter *lambda.Adapter

func init() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	manager := lambda.GetConnectionManager()
	if err := manager.Initialize(cfg); err != nil {
		panic("Failed to initialize container: " + err.Error())
	}

	container, err := manager.GetContainer(context.Background())
	if err != nil {
		panic("Failed to get container: " + err.Error())
	}

	router := handlers.NewRouter(container.RouterConfig())
	adapter = lambda.NewAdapter(router)
}

func handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	lambda.GetConnectionManager().UpdateLastUsed()
	return adapter.Handle(ctx, event)
}

func main() {
	awslambda.Start(handler)
}
