package handler

import (
	"errors"
	"net/http"

	"github.com/blues/mss/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
	})
}

// FailWith 按错误类型映射HTTP状态码，错误原样透出给调用方
func FailWith(c *gin.Context, err error) {
	c.JSON(statusFromError(err), Response{
		Success:   false,
		Message:   err.Error(),
		Retryable: apperr.Retryable(err),
	})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrUnknownMilestone):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateSubmission),
		errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrAlreadyCompleted),
		errors.Is(err, apperr.ErrAlreadyReleased):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrSettlement):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
