package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest         ErrorCode = "bad_request"
	errCodeNotFound           ErrorCode = "not_found"
	errCodeValidationFailed   ErrorCode = "validation_failed"
	errCodeUnauthorized       ErrorCode = "unauthorized"
	errCodeConflict           ErrorCode = "conflict"
	errCodeInsufficientTokens ErrorCode = "insufficient_tokens"

	// Server errors (5xx)
	errCodeInternalError ErrorCode = "internal_error"
	errCodeUpstreamError ErrorCode = "upstream_error"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, http.StatusNotFound, errCodeNotFound, message)
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	respondWithError(c, http.StatusInternalServerError, errCodeInternalError, message)
}

// respondServiceError maps service errors to their HTTP representations.
// Unknown errors are treated as internal and logged.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		respondNotFound(c, "User not found")
	case errors.Is(err, domain.ErrPluginNotFound):
		respondNotFound(c, "Plugin not found")
	case errors.Is(err, domain.ErrUnauthorized):
		respondWithError(c, http.StatusUnauthorized, errCodeUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInsufficientTokens), errors.Is(err, domain.ErrInsufficientBalance):
		respondWithError(c, http.StatusPaymentRequired, errCodeInsufficientTokens,
			"Insufficient tokens. Please purchase more tokens.")
	case errors.Is(err, domain.ErrConflict):
		respondWithError(c, http.StatusConflict, errCodeConflict, err.Error())
	case errors.Is(err, domain.ErrValidation):
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		logger.Error(err, zap.String("path", c.Request.URL.Path))
		respondWithError(c, http.StatusBadGateway, errCodeUpstreamError,
			"Code generation service is unavailable, please try again")
	default:
		respondInternalError(c, err, "Internal server error",
			zap.String("path", c.Request.URL.Path))
	}
}
