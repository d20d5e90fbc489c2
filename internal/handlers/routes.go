package handlers

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"serverless-api-starter/internal/adapters/storage"
	"serverless-api-starter/internal/middleware"
	"serverless-api-starter/internal/models"
	"serverless-api-starter/internal/services"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	ServiceName string
	Version     string

	UserService  services.UserService
	EmailService services.EmailService
	AuditQueue   services.QueueService
	FileStorage  storage.FileStorage
	AuthService  *middleware.AuthService
	Registry     *middleware.ErrorRegistry
	Logger       *logrus.Logger

	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the gin engine with the full middleware chain and all
// API routes. Routes whose backing service is absent respond 502 through
// the error registry instead of panicking at startup.
func NewRouter(config *RouterConfig) *gin.Engine {
	registerTagNameFunc()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if config.Logger != nil {
		router.Use(middleware.RequestLogger(config.Logger))
	}
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(config.Registry.Middleware())
	if config.RateLimitRPS > 0 {
		router.Use(middleware.RateLimit(config.RateLimitRPS, config.RateLimitBurst))
	}

	router.GET("/health", Wrap(func(c *gin.Context) (any, error) {
		return &models.HealthStatus{
			Status:  "healthy",
			Service: config.ServiceName,
			Version: config.Version,
		}, nil
	}))

	userHandler := NewUserHandler(config.UserService)
	router.GET("/hello", Wrap(userHandler.Hello))
	router.GET("/hello/:name", Wrap(userHandler.Hello))

	users := router.Group("/users")
	{
		users.POST("", WrapStatus(http.StatusCreated, userHandler.CreateUser))
		users.GET("", Wrap(userHandler.ListUsers))
		users.GET("/:id", Wrap(userHandler.GetUser))
	}

	if config.FileStorage != nil {
		fileHandler := NewFileHandler(config.FileStorage)
		files := router.Group("/files")
		{
			files.POST("", WrapStatus(http.StatusCreated, fileHandler.UploadFile))
			files.GET("", Wrap(fileHandler.ListFiles))
			files.GET("/:key/url", Wrap(fileHandler.GetFileURL))

			// Destructive, so behind authentication when it is configured.
			if config.AuthService != nil {
				files.DELETE("/:key",
					middleware.Authentication(config.AuthService),
					Wrap(fileHandler.DeleteFile))
			} else {
				files.DELETE("/:key", Wrap(fileHandler.DeleteFile))
			}
		}
	}

	if config.EmailService != nil {
		emailHandler := NewEmailHandler(config.EmailService, config.AuditQueue, config.Logger)
		router.POST("/emails/welcome", Wrap(emailHandler.SendWelcomeEmail))
	}

	return router
}

// registerTagNameFunc makes validator report json field names instead of Go
// struct field names, so violation records match the request payload.
func registerTagNameFunc() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
