// Package response renders the JSON envelope every endpoint answers with.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

func Build[T any](ctx *gin.Context, status int, success bool, message string, data T, errDetail interface{}) APIResponse[T] {
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: ctx.GetString("request_id"),
		Success:   success,
		Message:   message,
		Data:      data,
		Error:     errDetail,
	}
}

// Success writes a success=true envelope.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := Build(ctx, status, true, message, data, nil)
	resp.Meta = meta
	ctx.JSON(status, resp)
	return resp
}

// Error writes a success=false envelope.
func Error(ctx *gin.Context, status int, message string, err interface{}) APIResponse[any] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := Build[any](ctx, status, false, message, nil, err)
	ctx.JSON(status, resp)
	return resp
}

// Abort is Error for middleware: the chain stops after the envelope is
// written.
func Abort(ctx *gin.Context, status int, message string, err interface{}) {
	if status == 0 {
		status = http.StatusUnauthorized
	}
	resp := Build[any](ctx, status, false, message, nil, err)
	ctx.AbortWithStatusJSON(status, resp)
}
