package gintool

import (
	"github.com/gin-gonic/gin"
)

// ContextMiddleware 将请求 ID 与用户 ID 写入请求上下文的日志字段
func ContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(GinContextToLoggerContext(c))
		c.Next()
	}
}
