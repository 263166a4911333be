package ioc

import (
	"log"

	"github.com/to404hanga/online_judge_duel/job"
	"github.com/to404hanga/online_judge_duel/job/sweeper"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
)

func InitScheduler(l logger.Logger, sw *sweeper.DuelSweeper) *job.CronScheduler {
	scheduler := job.NewCronScheduler(l)

	for _, cfg := range []*job.JobConfig{
		InitDuelExpirySweep(sw),
		InitPendingDuelCleanup(sw),
	} {
		if err := scheduler.AddJob(cfg); err != nil {
			log.Panicf("add job %s failed: %v", cfg.Name, err)
		}
	}

	return scheduler
}
