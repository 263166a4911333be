package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_duel/pkg/gintool"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/service"
)

// errorCode 将业务错误映射为响应码
func errorCode(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrSelfJoin):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, service.ErrDuelNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuelNotPending),
		errors.Is(err, service.ErrDuelNotActive),
		errors.Is(err, service.ErrStoreConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrJudgeUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondOK(c *gin.Context, data any) int {
	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
	return http.StatusOK
}

func respondError(c *gin.Context, log logger.Logger, op string, err error) int {
	code := errorCode(err)
	gintool.GinResponse(c, &gintool.Response{
		Code:    code,
		Message: fmt.Sprintf("%s failed: %s", op, err.Error()),
	})
	if code >= http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), op+" failed", logger.Error(err))
	} else {
		log.WarnContext(c.Request.Context(), op+" rejected", logger.Int("code", code), logger.Error(err))
	}
	return code
}
