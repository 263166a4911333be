package ioc

import (
	"log"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
)

func InitLogger() logger.Logger {
	var cfg config.LoggerConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal logger config failed: %v", err)
	}
	return logger.NewZapLogger(logger.NewZap(cfg.Config))
}
