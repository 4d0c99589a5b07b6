package utils

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// ErrorDetail represents one invalid request field
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Success sends a successful JSON response
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: now(),
	})
}

// OK sends a 200 OK response with data
func OK(c *gin.Context, data interface{}) {
	Success(c, http.StatusOK, "", data)
}

// OKWithMessage sends a 200 OK response with custom message
func OKWithMessage(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

// Error sends an error JSON response
func Error(c *gin.Context, statusCode int, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     message,
		Details:   details,
		Timestamp: now(),
	})
}

// Failure sends an unsuccessful outcome that still carries a human message,
// as the connection test does.
func Failure(c *gin.Context, statusCode int, message, errMsg string) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Message:   message,
		Error:     errMsg,
		Timestamp: now(),
	})
}

// AbortWithError sends an error response and stops the handler chain.
func AbortWithError(c *gin.Context, statusCode int, message string) {
	Error(c, statusCode, message, nil)
	c.Abort()
}

// SetSecurityHeaders sets common security headers
func SetSecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
}

// SetCacheHeaders sets cache control headers
func SetCacheHeaders(c *gin.Context, maxAge int) {
	if maxAge > 0 {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
	} else {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
	}
}
