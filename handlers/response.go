package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vparking/services"
)

// APIResponse 定義統一的 API 回應結構
type APIResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"` // omitempty 表示如果為空則不顯示
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse 返回成功的回應
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 返回失敗的回應
func ErrorResponse(c *gin.Context, statusCode int, message, code, err string) {
	c.JSON(statusCode, APIResponse{
		Status:  false,
		Message: message,
		Error:   err,
		Code:    code,
	})
}

// ServiceErrorResponse 將服務層錯誤分類轉成對應的 HTTP 狀態碼
func ServiceErrorResponse(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, message, "ERR_VALIDATION", err.Error())
	case errors.Is(err, services.ErrParse):
		ErrorResponse(c, http.StatusBadRequest, message, "ERR_PARSE", err.Error())
	case errors.Is(err, services.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, message, "ERR_NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrInsufficientCapacity):
		ErrorResponse(c, http.StatusConflict, message, "ERR_INSUFFICIENT_CAPACITY", err.Error())
	case errors.Is(err, services.ErrConflict):
		ErrorResponse(c, http.StatusConflict, message, "ERR_CONFLICT", err.Error())
	case errors.Is(err, services.ErrInvalidState):
		ErrorResponse(c, http.StatusConflict, message, "ERR_INVALID_STATE", err.Error())
	default:
		log.Printf("Unclassified service error: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, message, "ERR_STORAGE", err.Error())
	}
}
