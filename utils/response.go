package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Data       any      `json:"data"`
	StatusCode int      `json:"status_code"`
}

func Success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Message:    message,
		Data:       data,
		StatusCode: http.StatusOK,
	})
}

// Fail answers 400, the status of every failure coming out of the engines.
func Fail(c *gin.Context, message string, errs ...string) {
	FailWithStatus(c, http.StatusBadRequest, message, errs...)
}

func FailWithStatus(c *gin.Context, status int, message string, errs ...string) {
	c.JSON(status, Response{
		Success:    false,
		Message:    message,
		Errors:     errs,
		StatusCode: status,
	})
}

// Abort is FailWithStatus for middleware.
func Abort(c *gin.Context, status int, message string) {
	FailWithStatus(c, status, message)
	c.Abort()
}
