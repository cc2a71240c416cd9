package util

import (
	"errors"
	"net/http"

	"learning_path_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	Error(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// HandleServiceError 按错误分类映射为行内提示，任何错误都不会向上逃逸
func HandleServiceError(c *gin.Context, err error) {
	var (
		upstream    *UpstreamError
		parseErr    *ParseError
		persistence *PersistenceError
		validation  *ValidationError
	)

	switch {
	case errors.Is(err, ErrPathNotFound), errors.Is(err, ErrStudyDataNotFound), errors.Is(err, ErrUserNotFound):
		NotFound(c)
	case errors.Is(err, ErrEmailRegistered), errors.Is(err, ErrVerifyTokenInvalid):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Unauthorized(c, "邮箱或密码错误")
	case errors.Is(err, ErrAPIKeyMissing):
		Error(c, http.StatusInternalServerError, "AI 服务未配置，请联系管理员")
	case errors.Is(err, ErrEmptyCompletion):
		Error(c, http.StatusBadGateway, "未能生成有效的学习路径，请重试")
	case errors.Is(err, ErrStepOutOfRange):
		BadRequest(c, err.Error())
	case errors.As(err, &validation):
		BadRequest(c, validation.Message)
	case errors.As(err, &parseErr):
		Error(c, http.StatusBadGateway, "未能生成有效的学习路径，请重试")
	case errors.As(err, &upstream):
		Error(c, http.StatusBadGateway, upstream.Message)
	case errors.As(err, &persistence):
		logger.Log.Error("Persistence failure", zap.String("op", persistence.Op), zap.Error(persistence.Err))
		Error(c, http.StatusInternalServerError, "保存失败，更改已撤销，请重试")
	default:
		LogInternalError(c, err)
	}
}
