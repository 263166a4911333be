package ioc

import (
	"log"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/judge"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
)

func InitJudgeClient(l logger.Logger) judge.Client {
	var cfg config.JudgeConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal judge config failed: %v", err)
	}
	if cfg.BaseURL == "" {
		log.Panicf("judge baseURL is required")
	}
	return judge.NewHTTPClient(cfg, l)
}
