package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"serverless-api-starter/internal/apierr"
	"serverless-api-starter/internal/models"
	"serverless-api-starter/internal/services"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Hello returns a greeting, using the name path parameter when present
func (h *UserHandler) Hello(c *gin.Context) (any, error) {
	return h.userService.Greeting(c.Param("name")), nil
}

// CreateUser validates the request body and stores a new user
func (h *UserHandler) CreateUser(c *gin.Context) (any, error) {
	var req models.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}

	user, err := h.userService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		return nil, err
	}

	return &models.UserCreateResponse{
		Status:  "created",
		Message: "User created successfully",
		User:    user,
	}, nil
}

// GetUser fetches a user by its numeric ID
func (h *UserHandler) GetUser(c *gin.Context) (any, error) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apierr.NewValidation(
			"User ID must be an integer",
			map[string]any{"user_id": raw},
		)
	}

	return h.userService.GetUser(c.Request.Context(), id)
}

// ListUsers returns all stored users
func (h *UserHandler) ListUsers(c *gin.Context) (any, error) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return gin.H{"users": users, "count": len(users)}, nil
}
