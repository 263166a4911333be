package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_duel/cmd/cronjob/config"
	"github.com/to404hanga/online_judge_duel/job"
	"github.com/to404hanga/online_judge_duel/job/sweeper"
)

const (
	DuelExpirySweepJob    = "DuelExpirySweep"
	PendingDuelCleanupJob = "PendingDuelCleanup"
)

func InitDuelExpirySweep(sw *sweeper.DuelSweeper) *job.JobConfig {
	var cfg config.DuelExpirySweepConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal duel expiry sweep config fail, err: %v", err)
	}

	return &job.JobConfig{
		Name:        DuelExpirySweepJob,
		CronExpr:    cfg.CronExpr,
		JobFunc:     sw.RunExpiry,
		Description: "结束已到截止时间的对战",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
}

func InitPendingDuelCleanup(sw *sweeper.DuelSweeper) *job.JobConfig {
	var cfg config.PendingDuelCleanupConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal pending duel cleanup config fail, err: %v", err)
	}

	return &job.JobConfig{
		Name:        PendingDuelCleanupJob,
		CronExpr:    cfg.CronExpr,
		JobFunc:     sw.RunPendingCleanup,
		Description: "废弃长时间无人加入的对战",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
}
