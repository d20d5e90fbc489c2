package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"serverless-api-starter/internal/apierr"
	"serverless-api-starter/internal/models"
)

// firstUserID is where generated user IDs start.
const firstUserID = 1000

// userService implements the UserService interface with in-memory storage.
type userService struct {
	mu     sync.RWMutex
	users  map[int]*models.User
	nextID int
}

// NewUserService creates a new user service instance
func NewUserService() UserService {
	return &userService{
		users:  make(map[int]*models.User),
		nextID: firstUserID,
	}
}

// CreateUser stores a new user and assigns it the next available ID
func (s *userService) CreateUser(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	if req == nil {
		return nil, fmt.Errorf("user create request cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := &models.User{
		UserID:   s.nextID,
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		IsActive: req.Active(),
	}
	s.users[user.UserID] = user
	s.nextID++

	return user, nil
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apierr.NewNotFound(
			fmt.Sprintf("User %d not found", id),
			"User",
			fmt.Sprintf("%d", id),
		)
	}

	copied := *user
	return &copied, nil
}

// ListUsers returns all stored users ordered by ID
func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		copied := *user
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })

	return users, nil
}

// Greeting builds a greeting payload, defaulting the name to "World"
func (s *userService) Greeting(name string) *models.Greeting {
	source := "path"
	if name == "" {
		name = "World"
		source = "default"
	}

	return &models.Greeting{
		Greeting: fmt.Sprintf("Hello, %s!", name),
		Source:   source,
		Status:   "success",
	}
}
