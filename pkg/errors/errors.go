// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeUnauthorized       ErrorCode = "1002"
	CodeForbidden          ErrorCode = "1003"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 认证授权错误 (2xxx)
	CodeTokenExpired       ErrorCode = "2001"
	CodeTokenInvalid       ErrorCode = "2002"
	CodeTokenMissing       ErrorCode = "2003"
	CodePermissionDenied   ErrorCode = "2004"
	CodeInvalidCredentials ErrorCode = "2005"
	CodeEmailTaken         ErrorCode = "2006"

	// 资源错误 (3xxx)
	CodeProjectNotFound   ErrorCode = "3001"
	CodeCharacterNotFound ErrorCode = "3002"
	CodePanelNotFound     ErrorCode = "3003"
	CodeSessionNotFound   ErrorCode = "3004"

	// 业务错误 (4xxx)
	CodeInvalidAmount    ErrorCode = "4001"
	CodeFundingClosed    ErrorCode = "4002"
	CodeFundingConflict  ErrorCode = "4003"
	CodeRightsExceeded   ErrorCode = "4004"
	CodeLLMCallFailed    ErrorCode = "4005"
	CodeInvalidSelection ErrorCode = "4006"
	CodeRateLimited      ErrorCode = "4007"
	CodePaymentRequired  ErrorCode = "4008"
	CodeGenerationFailed ErrorCode = "4009"

	// 外部服务错误 (5xxx)
	CodeDatabaseError    ErrorCode = "5001"
	CodeCacheError       ErrorCode = "5002"
	CodeStreamError      ErrorCode = "5003"
	CodeLLMProviderError ErrorCode = "5005"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，便于 errors.Is 匹配预定义错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 返回附带详细信息的副本，不修改预定义错误
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 返回附带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeInvalidAmount, CodeInvalidSelection:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenInvalid, CodeTokenMissing, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodePaymentRequired:
		return http.StatusPaymentRequired
	case CodeForbidden, CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound, CodeProjectNotFound, CodeCharacterNotFound, CodePanelNotFound, CodeSessionNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeEmailTaken, CodeFundingClosed, CodeFundingConflict, CodeRightsExceeded:
		return http.StatusConflict
	case CodeTooManyRequests, CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeLLMCallFailed, CodeLLMProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrTokenExpired       = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid       = New(CodeTokenInvalid, "token invalid")
	ErrTokenMissing       = New(CodeTokenMissing, "token missing")
	ErrPermissionDenied   = New(CodePermissionDenied, "permission denied")
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid email or password")
	ErrEmailTaken         = New(CodeEmailTaken, "email already registered")

	ErrProjectNotFound   = New(CodeProjectNotFound, "project not found")
	ErrCharacterNotFound = New(CodeCharacterNotFound, "character not found")
	ErrPanelNotFound     = New(CodePanelNotFound, "panel not found")
	ErrSessionNotFound   = New(CodeSessionNotFound, "story session not found")

	ErrInvalidAmount    = New(CodeInvalidAmount, "funding amount must be a positive number")
	ErrFundingClosed    = New(CodeFundingClosed, "project is not open for funding")
	ErrFundingConflict  = New(CodeFundingConflict, "project price changed concurrently, please retry")
	ErrRightsExceeded   = New(CodeRightsExceeded, "total rights percentage would exceed 100")
	ErrInvalidSelection = New(CodeInvalidSelection, "selected_index must be between 0 and 3")
	ErrRateLimited      = New(CodeRateLimited, "Rate limits exceeded, please try again later.")
	ErrPaymentRequired  = New(CodePaymentRequired, "Payment required, please add funds to your workspace.")
	ErrLLMCallFailed    = New(CodeLLMCallFailed, "LLM call failed")
	ErrGenerationFailed = New(CodeGenerationFailed, "generation failed")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
