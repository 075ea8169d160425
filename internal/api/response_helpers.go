// internal/api/response_helpers.go
package api

import (
	"net/http"
	"time"

	apperrors "github.com/Corphon/NarrativeCharts/internal/errors"
	"github.com/gin-gonic/gin"
)

// ResponseHelper 响应助手类
type ResponseHelper struct{}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	}

	c.JSON(http.StatusOK, response)
}

// Accepted 任务已接受响应（异步任务）
func (rh *ResponseHelper) Accepted(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	} else {
		response.Message = "任务已接受"
	}

	c.JSON(http.StatusAccepted, response)
}

// Error 错误响应
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: message,
	}

	if len(details) > 0 {
		apiError.Details = details[0]
	}

	response := &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	c.JSON(statusCode, response)
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, "BAD_REQUEST", message, details...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusNotFound, "NOT_FOUND", message, details...)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, details...)
}

// AppError 按应用错误类型映射HTTP状态码
func (rh *ResponseHelper) AppError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)

	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeMissingBookField:
		rh.Error(c, http.StatusBadRequest, code, err.Error())
	case apperrors.ErrorTypeNotFound:
		rh.Error(c, http.StatusNotFound, code, err.Error())
	case apperrors.ErrorTypeNoChapters, apperrors.ErrorTypeEmptyCorpus, apperrors.ErrorTypeSourceUnreadable:
		// 书级失败：输入可处理性问题，算作客户端可修正的错误
		rh.Error(c, http.StatusUnprocessableEntity, code, err.Error())
	default:
		rh.Error(c, http.StatusInternalServerError, code, err.Error())
	}
}

// FileResponse 文件下载响应
func (rh *ResponseHelper) FileResponse(c *gin.Context, content string, filename string, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.String(http.StatusOK, content)
}

// getRequestID 获取请求ID
func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	if requestID := c.GetString("request_id"); requestID != "" {
		return requestID
	}
	return ""
}
