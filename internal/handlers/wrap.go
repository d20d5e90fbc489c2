package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"serverless-api-starter/internal/models"
)

// HandlerFunc is a route handler that returns a payload or an error instead
// of writing to the response directly. Wrap turns the payload into a success
// envelope; errors are recorded on the context for the error middleware to
// convert, so handlers never pick status codes for failures.
type HandlerFunc func(c *gin.Context) (any, error)

// Wrap adapts a HandlerFunc into a gin handler responding 200 on success
func Wrap(fn HandlerFunc) gin.HandlerFunc {
	return WrapStatus(http.StatusOK, fn)
}

// WrapStatus adapts a HandlerFunc with an explicit success status code
func WrapStatus(status int, fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := fn(c)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.JSON(status, models.Success(payload))
	}
}
