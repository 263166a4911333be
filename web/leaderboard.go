package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_duel/constants"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/gintool"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/service"
	"github.com/to404hanga/online_judge_duel/service/exporter/factory"
)

type LeaderboardHandler struct {
	leaderboardSvc service.LeaderboardService
	log            logger.Logger
}

var _ Handler = (*LeaderboardHandler)(nil)

func NewLeaderboardHandler(leaderboardSvc service.LeaderboardService, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardSvc: leaderboardSvc,
		log:            log,
	}
}

func (h *LeaderboardHandler) Register(r *gin.Engine) {
	r.GET(constants.GetLeaderboardPath, gintool.WrapHandler(h.GetLeaderboard, h.log))
	r.GET(constants.ExportLeaderboardPath, gintool.WrapHandler(h.ExportLeaderboard, h.log))
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context, param *model.GetLeaderboardParam) {
	start := time.Now()
	list, total, err := h.leaderboardSvc.GetLeaderboard(c.Request.Context(), param.Page, param.PageSize)
	if err != nil {
		observeLeaderboard("GetLeaderboard", respondError(c, h.log, "GetLeaderboard", err), start)
		return
	}
	observeLeaderboard("GetLeaderboard", respondOK(c, model.GetLeaderboardResponse{
		List:     list,
		Total:    total,
		Page:     param.Page,
		PageSize: param.PageSize,
	}), start)
}

// ExportLeaderboard 以附件形式流式输出排行榜
func (h *LeaderboardHandler) ExportLeaderboard(c *gin.Context, param *model.ExportLeaderboardParam) {
	start := time.Now()
	exporterType := factory.ExporterType(param.Format)
	ctx := logger.ContextWithFields(c.Request.Context(), logger.String("export_type", param.Format))

	filename := fmt.Sprintf("leaderboard_%s%s", time.Now().UTC().Format("20060102150405"), factory.ExporterSuffixMap[exporterType])
	c.Header("Content-Type", factory.ExporterContentTypeMap[exporterType])
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	if err := h.leaderboardSvc.Export(ctx, exporterType, c.Writer); err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			observeLeaderboard("ExportLeaderboard", respondError(c, h.log, "ExportLeaderboard", err), start)
			return
		}
		// 已开始输出, 只能中断连接
		h.log.ErrorContext(ctx, "ExportLeaderboard failed after partial write", logger.Error(err))
		observeLeaderboard("ExportLeaderboard", http.StatusInternalServerError, start)
		c.Abort()
		return
	}
	observeLeaderboard("ExportLeaderboard", http.StatusOK, start)
}
