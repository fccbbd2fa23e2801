package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/availability-api/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: StatusSuccess,
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  StatusError,
		Message: message,
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, NewSuccessResponse(data))
}

// RespondWithError maps AppErrors to their status and message. Anything else
// is logged and hidden behind a generic 500.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := errors.As(err); ok {
		status := appErr.StatusCode()
		if status >= http.StatusInternalServerError {
			logInternal(c, err)
			c.JSON(status, NewErrorResponse("Internal server error"))
			return
		}
		c.JSON(status, NewErrorResponse(appErr.Message))
		return
	}

	logInternal(c, err)
	c.JSON(http.StatusInternalServerError, NewErrorResponse("Internal server error"))
}

// RespondWithBadRequest is a shortcut for binding and parsing failures.
func RespondWithBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, NewErrorResponse(message))
}

// Abort writes an error response and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, NewErrorResponse(message))
}

func logInternal(c *gin.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.GetString("request_id")).
		Msg("Request failed")
}
