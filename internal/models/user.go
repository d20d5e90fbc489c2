package models

// User is the domain model for a user entity. It lives in the leaf models
// package so both the route layer and the service layer can depend on it
// without depending on each other.
type User struct {
	UserID   int    `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      int    `json:"age"`
	IsActive bool   `json:"is_active"`
}

// UserCreateRequest is the request contract for POST /users. Binding tags
// mirror the field constraints enforced before the handler body runs.
type UserCreateRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Age      int    `json:"age" binding:"gte=0,lte=150"`
	IsActive *bool  `json:"is_active" binding:"omitempty"`
}

// Active resolves the optional is_active flag, defaulting to true.
func (r *UserCreateRequest) Active() bool {
	if r.IsActive == nil {
		return true
	}
	return *r.IsActive
}

// UserCreateResponse is the response contract for POST /users.
type UserCreateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// Greeting is the payload produced by the greeting helper, returned from
// GET /hello.
type Greeting struct {
	Greeting string `json:"greeting"`
	Source   string `json:"source"`
	Status   string `json:"status"`
}

// HealthStatus is the payload for GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
