package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_duel/constants"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/gintool"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/service"
)

type DuelHandler struct {
	duelSvc service.DuelService
	log     logger.Logger
}

var _ Handler = (*DuelHandler)(nil)

func NewDuelHandler(duelSvc service.DuelService, log logger.Logger) *DuelHandler {
	return &DuelHandler{
		duelSvc: duelSvc,
		log:     log,
	}
}

func (h *DuelHandler) Register(r *gin.Engine) {
	r.POST(constants.CreateDuelPath, gintool.WrapHandler(h.CreateDuel, h.log))
	r.POST(constants.JoinDuelPath, gintool.WrapHandler(h.JoinDuel, h.log))
	r.GET(constants.GetDuelPath, gintool.WrapHandler(h.GetDuel, h.log))
	r.POST(constants.CompleteDuelPath, gintool.WrapHandler(h.CompleteDuel, h.log))
	r.GET(constants.GetUserDuelListPath, gintool.WrapHandler(h.GetUserDuelList, h.log))
	r.GET(constants.GetDuelOutcomePath, gintool.WrapHandler(h.GetDuelOutcome, h.log))
}

func (h *DuelHandler) CreateDuel(c *gin.Context, param *model.CreateDuelParam) {
	start := time.Now()
	duel, err := h.duelSvc.CreateDuel(c.Request.Context(), param.Operator, param.TimeLimit, param.Challenges)
	if err != nil {
		observeDuel("CreateDuel", respondError(c, h.log, "CreateDuel", err), start)
		return
	}
	h.log.InfoContext(c.Request.Context(), "duel created", logger.String("duel_id", duel.ID))
	observeDuel("CreateDuel", respondOK(c, duel), start)
}

func (h *DuelHandler) JoinDuel(c *gin.Context, param *model.JoinDuelParam) {
	start := time.Now()
	c.Request = c.Request.WithContext(logger.ContextWithFields(c.Request.Context(),
		logger.String("duel_id", param.DuelID)))

	duel, err := h.duelSvc.JoinDuel(c.Request.Context(), param.DuelID, param.Operator)
	if err != nil {
		observeDuel("JoinDuel", respondError(c, h.log, "JoinDuel", err), start)
		return
	}
	observeDuel("JoinDuel", respondOK(c, duel), start)
}

func (h *DuelHandler) GetDuel(c *gin.Context, param *model.GetDuelParam) {
	start := time.Now()
	duel, err := h.duelSvc.GetDuel(c.Request.Context(), param.DuelID)
	if err != nil {
		observeDuel("GetDuel", respondError(c, h.log, "GetDuel", err), start)
		return
	}
	observeDuel("GetDuel", respondOK(c, duel), start)
}

func (h *DuelHandler) CompleteDuel(c *gin.Context, param *model.CompleteDuelParam) {
	start := time.Now()
	c.Request = c.Request.WithContext(logger.ContextWithFields(c.Request.Context(),
		logger.String("duel_id", param.DuelID)))

	duel, err := h.duelSvc.CompleteDuel(c.Request.Context(), param.DuelID, param.Operator)
	if err != nil {
		observeDuel("CompleteDuel", respondError(c, h.log, "CompleteDuel", err), start)
		return
	}
	observeDuel("CompleteDuel", respondOK(c, duel), start)
}

func (h *DuelHandler) GetUserDuelList(c *gin.Context, param *model.GetUserDuelListParam) {
	start := time.Now()
	userID := param.UserID
	if userID == 0 {
		userID = param.Operator
	}

	list, total, err := h.duelSvc.ListUserDuels(c.Request.Context(), userID, param.Page, param.PageSize)
	if err != nil {
		observeDuel("GetUserDuelList", respondError(c, h.log, "GetUserDuelList", err), start)
		return
	}
	observeDuel("GetUserDuelList", respondOK(c, model.GetUserDuelListResponse{
		List:     list,
		Total:    int(total),
		Page:     param.Page,
		PageSize: param.PageSize,
	}), start)
}

func (h *DuelHandler) GetDuelOutcome(c *gin.Context, param *model.GetDuelOutcomeParam) {
	start := time.Now()
	outcome, err := h.duelSvc.GetDuelOutcome(c.Request.Context(), param.DuelID)
	if err != nil {
		observeDuel("GetDuelOutcome", respondError(c, h.log, "GetDuelOutcome", err), start)
		return
	}
	observeDuel("GetDuelOutcome", respondOK(c, outcome), start)
}
