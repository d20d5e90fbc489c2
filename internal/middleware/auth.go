package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"serverless-api-starter/internal/apierr"
)

// UserKey is the gin context key holding the authenticated subject.
const UserKey = "user"

// Claims are the JWT claims issued and accepted by this service.
type Claims struct {
	Subject string   `json:"sub_name"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	Secret        string
	TokenDuration time.Duration
	Issuer        string
}

// AuthService signs and validates bearer tokens.
type AuthService struct {
	config *AuthConfig
}

// NewAuthService creates an AuthService, filling in defaults.
func NewAuthService(config *AuthConfig) *AuthService {
	if config.TokenDuration == 0 {
		config.TokenDuration = 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "serverless-api-starter"
	}
	return &AuthService{config: config}
}

// GenerateToken issues a signed token for the given subject.
func (a *AuthService) GenerateToken(subject string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Subject: subject,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.config.Issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.config.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Authentication requires a valid bearer token. Failures surface as
// UnauthorizedError through the error registry.
func Authentication(auth *AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			_ = c.Error(apierr.NewUnauthorized("Authorization header is required"))
			c.Abort()
			return
		}

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			_ = c.Error(apierr.NewUnauthorized("Authorization header must be a bearer token"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			_ = c.Error(apierr.NewUnauthorized("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(UserKey, claims)
		c.Next()
	}
}

// RequireRole requires that the authenticated subject holds the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(UserKey)
		claims, ok := v.(*Claims)
		if !exists || !ok {
			_ = c.Error(apierr.NewUnauthorized("Authentication required"))
			c.Abort()
			return
		}

		for _, r := range claims.Roles {
			if r == role {
				c.Next()
				return
			}
		}

		_ = c.Error(apierr.NewForbidden(fmt.Sprintf("Role %q is required", role)))
		c.Abort()
	}
}
