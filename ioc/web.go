package ioc

import (
	"log"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/service"
	"github.com/to404hanga/online_judge_duel/web"
)

func InitSubmissionHandler(submissionSvc service.SubmissionService, l logger.Logger) *web.SubmissionHandler {
	var cfg config.SubmissionConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal submission config failed: %v", err)
	}
	return web.NewSubmissionHandler(submissionSvc, l, cfg.MaxCodeSize)
}
