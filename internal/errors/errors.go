// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	// 通用错误类型
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeError      ErrorType = "processing_error"
	ErrorTypeTimeout    ErrorType = "timeout"

	// 图表生成管线的错误类型，作用域为单本书
	ErrorTypeMissingBookField ErrorType = "missing_book_field"
	ErrorTypeNoChapters       ErrorType = "no_chapters_found"
	ErrorTypeEmptyCorpus      ErrorType = "empty_corpus"
	ErrorTypeSourceUnreadable ErrorType = "source_unreadable"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProcessingError 创建处理错误
func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

// NewMissingBookFieldError 书籍规格缺少必填字段
func NewMissingBookFieldError(message string) *AppError {
	return NewAppError(ErrorTypeMissingBookField, message, nil)
}

// NewNoChaptersError 整本书没有匹配到任何章节标题
func NewNoChaptersError(message string) *AppError {
	return NewAppError(ErrorTypeNoChapters, message, nil)
}

// NewEmptyCorpusError 全书词数为零，无法按词数分配面板
func NewEmptyCorpusError(message string) *AppError {
	return NewAppError(ErrorTypeEmptyCorpus, message, nil)
}

// NewSourceUnreadableError 书籍文本来源读取失败
func NewSourceUnreadableError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeSourceUnreadable, message, originalError)
}

// TypeOf 返回错误的类型，非 AppError 归为处理错误
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ErrorTypeError
}

// CodeOf 返回错误的用户友好代码
func CodeOf(err error) string {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Code
	}
	return generateErrorCode(ErrorTypeError)
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFoundError 检查是否为未找到错误
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsMissingBookFieldError 检查是否为书籍字段缺失错误
func IsMissingBookFieldError(err error) bool {
	return isType(err, ErrorTypeMissingBookField)
}

// IsNoChaptersError 检查是否为无章节错误
func IsNoChaptersError(err error) bool {
	return isType(err, ErrorTypeNoChapters)
}

// IsEmptyCorpusError 检查是否为空语料错误
func IsEmptyCorpusError(err error) bool {
	return isType(err, ErrorTypeEmptyCorpus)
}

// IsSourceUnreadableError 检查是否为来源不可读错误
func IsSourceUnreadableError(err error) bool {
	return isType(err, ErrorTypeSourceUnreadable)
}

func isType(err error, errType ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == errType
	}
	return false
}

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeMissingBookField:
		return "MISSING_BOOK_FIELD"
	case ErrorTypeNoChapters:
		return "NO_CHAPTERS_FOUND"
	case ErrorTypeEmptyCorpus:
		return "EMPTY_CORPUS"
	case ErrorTypeSourceUnreadable:
		return "SOURCE_UNREADABLE"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError 包装现有错误
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		// 如果已经是 AppError，只更新消息
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	// 否则创建新的 AppError
	return NewAppError(errType, message, err)
}
