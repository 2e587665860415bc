package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response standard response structure
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// SuccessResponse returns success response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      0,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// Error returns an error response with the given code
func Error(c *gin.Context, code ResponseCode, message string) {
	c.JSON(int(code), Response{
		Code:      int(code),
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// ErrorFromErr maps an error to its HTTP response. AppError codes become the
// HTTP status; anything else renders as a masked 500.
func ErrorFromErr(c *gin.Context, err error) {
	code := GetErrorCode(err)
	Error(c, code, UserMessage(err))
}
