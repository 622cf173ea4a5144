// Package dto contains Data Transfer Objects for API responses
package dto

import (
	"time"

	"github.com/gin-gonic/gin"
)

// BaseResponse contains the fields shared by every response envelope
type BaseResponse struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// SuccessResponse represents a successful response
type SuccessResponse struct {
	BaseResponse
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	BaseResponse
	Error   string      `json:"error"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents the healthcheck response
type HealthResponse struct {
	BaseResponse
	Status  string            `json:"status" example:"OK"`
	Service string            `json:"service" example:"DeskPulse API"`
	Version string            `json:"version" example:"1.0.0"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// AuthErrorResponse represents authentication-specific errors
type AuthErrorResponse struct {
	BaseResponse
	Error   string `json:"error" example:"unauthorized"`
	Code    int    `json:"code" example:"401"`
	Message string `json:"message" example:"Invalid or expired authorization token"`
}

// RateLimitErrorResponse represents rate limit errors
type RateLimitErrorResponse struct {
	BaseResponse
	Error      string `json:"error" example:"rate_limit_exceeded"`
	Code       int    `json:"code" example:"429"`
	Message    string `json:"message" example:"Request limit exceeded"`
	RetryAfter string `json:"retry_after" example:"60s"`
}

// NewSuccessResponse creates a new success response
func NewSuccessResponse(c *gin.Context, data interface{}, message string) SuccessResponse {
	return SuccessResponse{
		BaseResponse: BaseResponse{
			Success:   true,
			Timestamp: time.Now().UTC(),
			RequestID: getRequestID(c),
		},
		Data:    data,
		Message: message,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(c *gin.Context, code int, error string, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		BaseResponse: BaseResponse{
			Success:   false,
			Timestamp: time.Now().UTC(),
			RequestID: getRequestID(c),
		},
		Error:   error,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewHealthResponse creates a new health response
func NewHealthResponse(c *gin.Context, status, service, version string, checks map[string]string) HealthResponse {
	return HealthResponse{
		BaseResponse: BaseResponse{
			Success:   status == "OK",
			Timestamp: time.Now().UTC(),
			RequestID: getRequestID(c),
		},
		Status:  status,
		Service: service,
		Version: version,
		Checks:  checks,
	}
}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}
