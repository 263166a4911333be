package gintool

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
)

// Param 可绑定请求参数并携带操作人的参数指针类型
type Param[T any] interface {
	*T
	model.CommonParamInterface
}

// WrapHandler 包装处理函数, GET 请求绑定 query, 其余绑定 JSON 体
func WrapHandler[T any, PT Param[T]](h func(c *gin.Context, param PT), log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		param := PT(new(T))

		var err error
		if c.Request.Method == http.MethodGet {
			err = c.ShouldBindQuery(param)
		} else {
			err = c.ShouldBindJSON(param)
		}
		if err != nil {
			abortBadRequest(c, err)
			log.WarnContext(c.Request.Context(), "WrapHandler bind param failed", logger.Error(err))
			return
		}

		if err = ExtractOperator(c, param); err != nil {
			abortBadRequest(c, err)
			log.WarnContext(c.Request.Context(), "WrapHandler ExtractOperator failed", logger.Error(err))
			return
		}

		h(c, param)
	}
}

// WrapWithoutBodyHandler 包装处理函数, 只提取操作人
func WrapWithoutBodyHandler[T any, PT Param[T]](h func(c *gin.Context, param PT), log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		param := PT(new(T))

		if err := ExtractOperator(c, param); err != nil {
			abortBadRequest(c, err)
			log.WarnContext(c.Request.Context(), "WrapWithoutBodyHandler ExtractOperator failed", logger.Error(err))
			return
		}

		h(c, param)
	}
}
