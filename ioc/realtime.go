package ioc

import (
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/realtime"
)

func InitSynchronizer(rdb *redis.Client, l logger.Logger) *realtime.Synchronizer {
	var cfg config.RealtimeConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal realtime config failed: %v", err)
	}
	return realtime.NewSynchronizer(rdb, cfg.ChannelPrefix, cfg.BufferSize, l)
}
