package gintool

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_duel/constants"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
)

// GinContextToLoggerContext 将 Gin 上下文转换为 Logger 上下文
func GinContextToLoggerContext(c *gin.Context) context.Context {
	fields := make([]logger.Field, 0, 2)

	if requestID := c.GetHeader(constants.HeaderRequestIDKey); requestID != "" {
		fields = append(fields, logger.String("RequestID", requestID))
	}
	if userID := c.GetHeader(constants.HeaderUserIDKey); userID != "" {
		fields = append(fields, logger.String("UserID", userID))
	}

	return logger.ContextWithFields(c.Request.Context(), fields...)
}

// ExtractOperator 从网关注入的 X-User-ID 提取操作人 ID
func ExtractOperator(c *gin.Context, p model.CommonParamInterface) error {
	userID := c.GetHeader(constants.HeaderUserIDKey)
	if userID == "" {
		return fmt.Errorf("%s header is required", constants.HeaderUserIDKey)
	}
	operator, err := strconv.ParseUint(userID, 10, 64)
	if err != nil || operator == 0 {
		return fmt.Errorf("%s header is not a valid user id: %s", constants.HeaderUserIDKey, userID)
	}
	p.SetOperator(operator)
	return nil
}

// abortBadRequest 参数错误时统一响应
func abortBadRequest(c *gin.Context, err error) {
	GinResponse(c, &Response{
		Code:    http.StatusBadRequest,
		Message: err.Error(),
	})
	c.Abort()
}
