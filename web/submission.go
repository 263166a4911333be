package web

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_duel/constants"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/gintool"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/service"
)

var errCodeTooLarge = fmt.Errorf("%w: code too large", service.ErrValidation)

type SubmissionHandler struct {
	submissionSvc service.SubmissionService
	log           logger.Logger
	maxCodeSize   int
}

var _ Handler = (*SubmissionHandler)(nil)

func NewSubmissionHandler(submissionSvc service.SubmissionService, log logger.Logger, maxCodeSize int) *SubmissionHandler {
	return &SubmissionHandler{
		submissionSvc: submissionSvc,
		log:           log,
		maxCodeSize:   maxCodeSize,
	}
}

func (h *SubmissionHandler) Register(r *gin.Engine) {
	r.POST(constants.SubmitDuelChallengePath, gintool.WrapHandler(h.SubmitDuelChallenge, h.log))
	r.POST(constants.RunCodePath, gintool.WrapHandler(h.RunCode, h.log))
}

// codeTooLarge maxCodeSize 为 0 时不限制
func (h *SubmissionHandler) codeTooLarge(code string) bool {
	return h.maxCodeSize > 0 && len(code) > h.maxCodeSize
}

func (h *SubmissionHandler) SubmitDuelChallenge(c *gin.Context, param *model.SubmitDuelChallengeParam) {
	start := time.Now()
	fields := []logger.Field{
		logger.String("challenge", param.Challenge),
		logger.String("language", param.Language),
	}
	if param.DuelID != nil {
		fields = append(fields, logger.String("duel_id", *param.DuelID))
	}
	c.Request = c.Request.WithContext(logger.ContextWithFields(c.Request.Context(), fields...))

	if h.codeTooLarge(param.Code) {
		code := respondError(c, h.log, "SubmitDuelChallenge", errCodeTooLarge)
		observeSubmit(param.Language, code, start)
		return
	}

	submission, err := h.submissionSvc.RecordSubmission(c.Request.Context(), param)
	if err != nil {
		observeSubmit(param.Language, respondError(c, h.log, "SubmitDuelChallenge", err), start)
		return
	}
	submissionVerdictsTotal.WithLabelValues(string(submission.Status)).Inc()
	observeSubmit(param.Language, respondOK(c, submission), start)
}

func (h *SubmissionHandler) RunCode(c *gin.Context, param *model.RunCodeParam) {
	if h.codeTooLarge(param.Code) {
		code := respondError(c, h.log, "RunCode", errCodeTooLarge)
		runCodeRequestsTotal.WithLabelValues(strconv.Itoa(code), param.Language).Inc()
		return
	}

	resp, err := h.submissionSvc.RunCode(c.Request.Context(), param)
	if err != nil {
		code := respondError(c, h.log, "RunCode", err)
		runCodeRequestsTotal.WithLabelValues(strconv.Itoa(code), param.Language).Inc()
		return
	}
	runCodeRequestsTotal.WithLabelValues(strconv.Itoa(respondOK(c, resp)), param.Language).Inc()
}
