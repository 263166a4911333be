package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
)

type HealthHandler struct {
	log logger.Logger
}

var _ Handler = (*HealthHandler)(nil)

func NewHealthHandler(log logger.Logger) *HealthHandler {
	return &HealthHandler{
		log: log,
	}
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)
}

func (h *HealthHandler) HealthCheck(ctx *gin.Context) {
	h.log.Debug("health check")
	ctx.Status(http.StatusOK)
}
