// Package dto HTTP 请求绑定与响应信封
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/domain/repository"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
)

// Response 成功信封
type Response[T any] struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    T         `json:"data,omitempty"`
	Meta    *PageMeta `json:"meta,omitempty"`
	TraceID string    `json:"trace_id,omitempty"`
}

type PageMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ErrorDetail error_code 为稳定的机器可读码
type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse 失败信封
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

// WithStatus 以指定状态码返回数据
func WithStatus[T any](c *gin.Context, status int, message string, data T) {
	c.JSON(status, Response[T]{Code: status, Message: message, Data: data, TraceID: traceID(c)})
}

func Success[T any](c *gin.Context, data T) {
	WithStatus(c, http.StatusOK, "success", data)
}

func Created[T any](c *gin.Context, data T) {
	WithStatus(c, http.StatusCreated, "created", data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paged 仓储分页结果；空页返回 []
func Paged[T any](c *gin.Context, result *repository.PagedResult[T]) {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, Response[[]T]{
		Code:    http.StatusOK,
		Message: "success",
		Data:    items,
		Meta: &PageMeta{
			Page:       result.Page,
			PageSize:   result.PageSize,
			Total:      int(result.Total),
			TotalPages: result.TotalPages,
		},
		TraceID: traceID(c),
	})
}

func abort(c *gin.Context, status int, message string, detail *ErrorDetail) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    status,
		Message: message,
		Error:   detail,
		TraceID: traceID(c),
	})
}

// BadRequest 绑定或参数格式错误
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, message, &ErrorDetail{ErrorCode: string(apperrors.CodeInvalidParam)})
}

func NotFound(c *gin.Context, message string) {
	abort(c, http.StatusNotFound, message, &ErrorDetail{ErrorCode: string(apperrors.CodeNotFound)})
}

// Fail 按 AppError 映射状态码；5xx 只返回通用消息，原始错误写日志
func Fail(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", err,
			"method", c.Request.Method,
			"route", c.FullPath(),
		)
		abort(c, status, "internal server error", &ErrorDetail{ErrorCode: string(apperrors.CodeInternalError)})
		return
	}
	abort(c, status, appErr.Message, &ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	})
}
