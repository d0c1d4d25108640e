package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
)

// RequestIDKey is the gin context key holding the request ID
const RequestIDKey = "request_id"

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	Errors    []errors.FieldError `json:"errors,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

// PaginatedResponse wraps one page of a listing
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	Pages   int         `json:"pages"`
	Data    interface{} `json:"data"`
}

// RespondWithSuccess sends a 200 response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// RespondWithMessage sends a 200 response with a human readable message
func RespondWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func RespondWithCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// RespondWithPage sends a paginated listing
func RespondWithPage[T any](c *gin.Context, page *model.Page[T]) {
	c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Count:   len(page.Items),
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
		Data:    page.Items,
	})
}

// RespondWithError maps err onto an HTTP status. Anything that is not an
// AppError, and every 5xx, is reported without detail.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{
		Message:   "Internal server error",
		RequestID: c.GetString(RequestIDKey),
	}

	if appErr, ok := errors.As(err); ok {
		status = appErr.StatusCode()
		if status < http.StatusInternalServerError {
			body.Message = appErr.Message
			body.Errors = appErr.Fields
		}
	}

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", body.RequestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, body)
}

// Abort sends an error response with an explicit status
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	})
}
